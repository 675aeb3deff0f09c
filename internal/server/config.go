package server

import (
	"github.com/neo/quizparty_backend/internal/types"
)

// Config holds the HTTP server configuration
type Config struct {
	Port          string
	DataDir       string
	QuestionsFile string
	PublicURL     string
	TTSVoice      types.Voice
	DevMode       bool
}
