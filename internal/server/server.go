// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/airwavetv/airwave/internal/api"
	"github.com/airwavetv/airwave/internal/catalog"
	"github.com/airwavetv/airwave/internal/config"
	"github.com/airwavetv/airwave/internal/db"
	"github.com/airwavetv/airwave/internal/logger"
	"github.com/airwavetv/airwave/internal/media"
	"github.com/airwavetv/airwave/internal/middleware"
	"github.com/airwavetv/airwave/internal/schedule"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server represents the HTTP server
type Server struct {
	config          *config.Config
	db              *db.DB
	repos           *db.Repositories
	index           *catalog.Index
	scanner         *media.Scanner
	scheduleService *schedule.Service
	watcher         *media.LibraryWatcher
	router          *gin.Engine
	server          *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	index := catalog.NewIndex()
	probe := media.NewFFprobe(cfg.Library.ProbeTimeout, cfg.Broadcast.UseStreamDuration)
	scanner := media.NewScanner(repos, index, probe, cfg.Library.SupportedFormats, cfg.Library.ProbeWorkers)
	scheduleService := schedule.NewService(repos, index, cfg.Broadcast.Epoch())

	return &Server{
		config:          cfg,
		db:              database,
		repos:           repos,
		index:           index,
		scanner:         scanner,
		scheduleService: scheduleService,
	}
}

// ScheduleService returns the schedule service, for startup warm loading
func (s *Server) ScheduleService() *schedule.Service {
	return s.scheduleService
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(cors.Default())

	apiGroup := s.router.Group("/api")

	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupChannelRoutes(apiGroup, s.scheduleService, s.index)
	api.SetupScanRoutes(apiGroup, s.scanner, s.config.Library.Path)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	if err := s.startWatcher(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Time("go_live", s.config.Broadcast.Epoch()).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// startWatcher wires the library watcher to rescans when enabled
func (s *Server) startWatcher() error {
	if !s.config.Library.Watch || s.config.Library.Path == "" {
		return nil
	}

	libraryPath := s.config.Library.Path
	watcher, err := media.NewLibraryWatcher(libraryPath, func() {
		if _, err := s.scanner.StartScan(context.Background(), libraryPath); err != nil {
			logger.Log.Warn().
				Err(err).
				Msg("Watcher-triggered rescan not started")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create library watcher: %w", err)
	}

	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start library watcher: %w", err)
	}
	s.watcher = watcher
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			logger.Log.Warn().
				Err(err).
				Msg("Error stopping library watcher")
		}
	}

	if s.scanner != nil {
		s.scanner.Stop()
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
