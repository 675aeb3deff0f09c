package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/singleflight"

	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/types"
)

// TTSService synthesizes narration clips and caches them on disk, keyed by a
// sanitised cache key. Concurrent requests for the same key share a single
// synthesis call via singleflight; followers get the same URL.
type TTSService struct {
	client   *openai.Client
	voice    openai.SpeechVoice
	cacheDir string
	baseURL  string
	flight   singleflight.Group
}

// NewTTSService creates a TTS service. An empty apiKey disables synthesis:
// Generate then returns "" and clients skip narration.
func NewTTSService(apiKey string, voice types.Voice, cacheDir string, baseURL string) (*TTSService, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create TTS cache directory: %v", err)
	}

	service := &TTSService{
		voice:    mapVoice(voice),
		cacheDir: cacheDir,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
	if apiKey != "" {
		service.client = openai.NewClient(apiKey)
	}

	return service, nil
}

func mapVoice(voice types.Voice) openai.SpeechVoice {
	switch voice {
	case types.VoiceAlloy:
		return openai.VoiceAlloy
	case types.VoiceEcho:
		return openai.VoiceEcho
	case types.VoiceFable:
		return openai.VoiceFable
	case types.VoiceOnyx:
		return openai.VoiceOnyx
	case types.VoiceNova:
		return openai.VoiceNova
	case types.VoiceShimmer:
		return openai.VoiceShimmer
	default:
		return openai.VoiceAlloy
	}
}

// SanitizeCacheKey restricts a cache key to alphanumerics plus "-_" so it is
// safe as a filename and as a URL path segment.
func SanitizeCacheKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// FilePath returns the cache file path for a (sanitised) key
func (t *TTSService) FilePath(key string) string {
	return filepath.Join(t.cacheDir, SanitizeCacheKey(key)+".mp3")
}

// Generate returns a URL for the synthesized text, or "" when the service is
// disabled. Failures are not retried here: callers treat an error as
// tts_unavailable and broadcast without a URL.
func (t *TTSService) Generate(ctx context.Context, text string, cacheKey string) (string, error) {
	if text == "" {
		return "", nil
	}

	key := SanitizeCacheKey(cacheKey)
	path := t.FilePath(key)

	if _, err := os.Stat(path); err == nil {
		return t.urlFor(key), nil
	}

	if t.client == nil {
		return "", nil
	}

	// One outstanding synthesis per key; followers await the same result.
	url, err, _ := t.flight.Do(key, func() (interface{}, error) {
		// Re-check after winning the flight: a previous caller may have
		// written the file between our stat and Do.
		if _, err := os.Stat(path); err == nil {
			return t.urlFor(key), nil
		}

		data, err := t.synthesize(ctx, text)
		if err != nil {
			return "", err
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", fmt.Errorf("failed to write TTS cache file: %v", err)
		}

		logging.LogTTSEvent("tts_generated", key, map[string]interface{}{
			"bytes": len(data),
		})

		return t.urlFor(key), nil
	})
	if err != nil {
		logging.LogTTSEvent("tts_failed", key, map[string]interface{}{
			"error": err.Error(),
		})
		return "", err
	}

	return url.(string), nil
}

func (t *TTSService) synthesize(ctx context.Context, text string) ([]byte, error) {
	req := openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          t.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}

	resp, err := t.client.CreateSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech: %v", err)
	}
	defer resp.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp); err != nil {
		return nil, fmt.Errorf("failed to read speech response: %v", err)
	}

	return buf.Bytes(), nil
}

func (t *TTSService) urlFor(key string) string {
	return fmt.Sprintf("%s/api/audio/%s", t.baseURL, key)
}
