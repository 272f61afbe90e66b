package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/airwavetv/airwave/internal/config"
	"github.com/airwavetv/airwave/internal/db"
	"github.com/airwavetv/airwave/internal/logger"
	"github.com/airwavetv/airwave/internal/media"
	"github.com/airwavetv/airwave/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not initialized yet
		panic("failed to load configuration: " + err.Error())
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	if err := run(cfg); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config) error {
	if err := media.CheckFFprobeInstalled(); err != nil {
		logger.Log.Warn().Err(err).Msg("ffprobe not available, library scans will skip every file")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return err
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("Error closing database")
		}
	}()

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		return err
	}
	if err := db.RunMigrations(sqlDB, "file://./migrations"); err != nil {
		return err
	}

	srv := server.New(cfg, database)

	// Populate the duration index from the durable store so channels
	// resolve before any scan runs in this process
	warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.ScheduleService().WarmLoad(warmCtx); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		logger.Log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	return srv.Shutdown(shutdownCtx)
}
