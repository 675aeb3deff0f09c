package server

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/neo/quizparty_backend/internal/audio"
	"github.com/neo/quizparty_backend/internal/database"
	"github.com/neo/quizparty_backend/internal/game"
	"github.com/neo/quizparty_backend/internal/logging"
)

// Server wires the HTTP surface, the websocket hub and the game manager
type Server struct {
	router  *gin.Engine
	hub     *Hub
	manager *game.Manager
	store   database.QuestionStore
	tts     *audio.TTSService
	config  Config
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
	EnableCompression: true,
}

// NewServer creates the HTTP server with WebSocket support
func NewServer(config Config, store database.QuestionStore, tts *audio.TTSService) *Server {
	if !config.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, Range")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, HEAD")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	hub := NewHub()

	// The manager takes the TTS service through the narrator interface; a
	// nil service must stay a nil interface.
	var narrator game.Narrator
	if tts != nil {
		narrator = tts
	}

	server := &Server{
		router:  router,
		hub:     hub,
		manager: game.NewManager(store, narrator, hub, config.DevMode),
		store:   store,
		tts:     tts,
		config:  config,
	}

	// Setup routes
	router.GET("/ws", server.handleWebSocket)
	router.GET("/api/health", server.handleHealth)
	router.GET("/api/categories", server.handleCategories)
	router.GET("/api/rooms/:code", server.handleRoomInfo)
	router.GET("/api/rooms/:code/qr", server.handleRoomQR)
	router.GET("/api/audio/:id", server.handleAudioStream)

	return server
}

// Manager exposes the game manager, used by tests
func (s *Server) Manager() *game.Manager {
	return s.manager
}

// handleWebSocket upgrades the connection and starts the client pumps
func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("failed to upgrade connection", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := newClient(uuid.New().String(), ws)
	s.hub.register(client)
	logging.LogWebSocketEvent("connected", "", client.id, nil)

	go client.writePump()
	go client.readPump(s)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rooms":  s.manager.Rooms().Count(),
	})
}

func (s *Server) handleCategories(c *gin.Context) {
	categories, err := s.store.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// handleRoomInfo reports whether a room code can still be joined
func (s *Server) handleRoomInfo(c *gin.Context) {
	room, ok := s.manager.Rooms().Get(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	info := room.PublicInfo()
	c.JSON(http.StatusOK, info)
}

// handleRoomQR renders a join QR code for sharing a room on another screen
func (s *Server) handleRoomQR(c *gin.Context) {
	code := c.Param("code")
	if _, ok := s.manager.Rooms().Get(code); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	joinURL := s.config.PublicURL + "/join/" + code
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render QR code"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

// handleAudioStream serves a cached TTS file by its cache key
func (s *Server) handleAudioStream(c *gin.Context) {
	if s.tts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audio not found"})
		return
	}

	path := s.tts.FilePath(audio.SanitizeCacheKey(c.Param("id")))
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audio not found"})
		return
	}

	c.Header("Content-Type", "audio/mpeg")
	c.Header("Cache-Control", "public, max-age=31536000")
	c.File(path)
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
