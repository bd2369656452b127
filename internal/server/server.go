package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/alkime/intake/internal/config"
	"github.com/alkime/intake/internal/extract"
	"github.com/alkime/intake/internal/report"
	"github.com/alkime/intake/internal/stt"
)

// Server is the intake backend: it accepts visit audio, extracts
// clinical data from the transcript and renders the visit report.
type Server struct {
	config      *config.Config
	logger      *slog.Logger
	router      *gin.Engine
	store       *Store
	transcriber stt.Transcriber
	extractor   extract.Extractor
	renderer    *report.Renderer
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *slog.Logger, transcriber stt.Transcriber, extractor extract.Extractor) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	if cfg.Env == config.EnvProduction {
		router.TrustedPlatform = gin.PlatformFlyIO
		logger.Debug("Configured trusted platform", "platform", "fly.io")
	}

	server := &Server{
		config:      cfg,
		logger:      logger,
		router:      router,
		store:       NewStore(),
		transcriber: transcriber,
		extractor:   extractor,
		renderer:    report.NewRenderer(),
	}

	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server.
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/visits/process-audio", s.handleProcessAudio)
		api.POST("/clinical-data/extract-from-transcript", s.handleExtract)
		api.PATCH("/transcripts/:id/update-clinical-data", s.handleUpdateClinicalData)
		api.POST("/reports/:id/generate", s.handleGenerateReport)
		api.GET("/reports/:id/download", s.handleDownloadReport)
	}
}
