package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo/quizparty_backend/internal/types"
)

func newDisabledService(t *testing.T) *TTSService {
	t.Helper()
	svc, err := NewTTSService("", types.VoiceNova, t.TempDir(), "http://localhost:3001/")
	require.NoError(t, err)
	return svc
}

func TestSanitizeCacheKey(t *testing.T) {
	assert.Equal(t, "round_1_intro", SanitizeCacheKey("round_1_intro"))
	assert.Equal(t, "ABCD-scoreboard-2", SanitizeCacheKey("ABCD-scoreboard-2"))
	assert.Equal(t, "q_42_text", SanitizeCacheKey("q/42 text"))
	assert.Equal(t, "___", SanitizeCacheKey("ä?!"))
}

func TestNewTTSServiceCreatesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := NewTTSService("", types.VoiceAlloy, dir, "http://localhost:3001")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFilePathUsesSanitizedKey(t *testing.T) {
	svc := newDisabledService(t)
	path := svc.FilePath("room/ABCD intro")
	assert.Equal(t, "room_ABCD_intro.mp3", filepath.Base(path))
}

func TestGenerateEmptyTextIsSilent(t *testing.T) {
	svc := newDisabledService(t)
	url, err := svc.Generate(context.Background(), "", "key")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestGenerateDisabledServiceReturnsNoURL(t *testing.T) {
	svc := newDisabledService(t)
	url, err := svc.Generate(context.Background(), "Willkommen!", "intro")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestGenerateServesCachedClipWithoutClient(t *testing.T) {
	svc := newDisabledService(t)

	// a clip already on disk is served even when synthesis is disabled
	require.NoError(t, os.WriteFile(svc.FilePath("intro"), []byte("mp3"), 0644))

	url, err := svc.Generate(context.Background(), "Willkommen!", "intro")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3001/api/audio/intro", url)
}

func TestGenerateCacheHitIgnoresTextChanges(t *testing.T) {
	svc := newDisabledService(t)
	require.NoError(t, os.WriteFile(svc.FilePath("q-1"), []byte("mp3"), 0644))

	a, err := svc.Generate(context.Background(), "first text", "q-1")
	require.NoError(t, err)
	b, err := svc.Generate(context.Background(), "different text", "q-1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
