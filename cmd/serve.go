package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/neo/quizparty_backend/internal/audio"
	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/logging"
	"github.com/neo/quizparty_backend/internal/server"
	"github.com/neo/quizparty_backend/internal/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the QuizParty game server",
	Long: `Start the QuizParty game server with the specified configuration.
This initializes the question store, the TTS narrator, and the WebSocket
server, then begins accepting connections.

Every flag can also be set through the environment with the QUIZPARTY_
prefix, e.g. QUIZPARTY_PORT=9000.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "port to listen on")
	serveCmd.Flags().String("data-dir", "data", "directory for the question database and TTS cache")
	serveCmd.Flags().String("questions-file", "", "JSON question file to use instead of the SQLite store")
	serveCmd.Flags().String("public-url", "http://localhost:8080", "base URL clients use to reach this server")
	serveCmd.Flags().String("tts-voice", string(types.VoiceNova), "OpenAI TTS voice for the moderator")
	serveCmd.Flags().Bool("dev", false, "enable development mode (bots, verbose gin output)")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().String("log-file", "", "also write logs to this file")

	viper.SetEnvPrefix("quizparty")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: no .env file found")
	}

	logConfig := logging.Config{
		Level:   logging.ParseLevel(viper.GetString("log-level")),
		Prefix:  "quizparty",
		Colored: true,
	}
	if path := viper.GetString("log-file"); path != "" {
		logConfig.LogToFile = true
		logConfig.LogFilePath = path
	}
	if err := logging.InitDefaultLogger(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logging: %v", err)
	}

	dataDir := viper.GetString("data-dir")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	// Question store: SQLite by default, a JSON file when asked
	var (
		store database.QuestionStore
		err   error
	)
	if file := viper.GetString("questions-file"); file != "" {
		store, err = database.NewFileStore(file, time.Now().UnixNano())
	} else {
		store, err = database.New(dataDir)
	}
	if err != nil {
		return fmt.Errorf("failed to open question store: %v", err)
	}
	defer store.Close()

	voice, err := types.ParseVoice(viper.GetString("tts-voice"))
	if err != nil {
		return fmt.Errorf("invalid TTS voice: %v", err)
	}

	publicURL := viper.GetString("public-url")
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logging.Warn("OPENAI_API_KEY not set, narration disabled")
	}
	tts, err := audio.NewTTSService(apiKey, voice, filepath.Join(dataDir, "tts"), publicURL)
	if err != nil {
		return fmt.Errorf("failed to initialize TTS service: %v", err)
	}

	config := server.Config{
		Port:          fmt.Sprintf(":%d", viper.GetInt("port")),
		DataDir:       dataDir,
		QuestionsFile: viper.GetString("questions-file"),
		PublicURL:     publicURL,
		TTSVoice:      voice,
		DevMode:       viper.GetBool("dev"),
	}

	srv := server.NewServer(config, store, tts)

	errChan := make(chan error, 1)
	go func() {
		logging.Info("starting server", map[string]interface{}{
			"addr": config.Port,
			"dev":  config.DevMode,
		})
		errChan <- srv.Run(config.Port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %v", err)
	case sig := <-sigChan:
		logging.Info("shutting down", map[string]interface{}{
			"signal": sig.String(),
		})
		return nil
	}
}
