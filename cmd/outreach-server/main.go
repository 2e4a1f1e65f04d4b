package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amatoti/outreach/internal/api"
	"github.com/amatoti/outreach/internal/campaign"
	"github.com/amatoti/outreach/internal/config"
	"github.com/amatoti/outreach/internal/logger"
	"github.com/amatoti/outreach/internal/outlog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewFromConfig(logger.Config{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	log.Info().Msg("starting outreach server")

	// Open the outreach log; a missing or corrupt file starts empty.
	sendLog := outlog.Open(cfg.Outreach.LogPath, log)
	log.Info().
		Str("path", cfg.Outreach.LogPath).
		Int("entries", sendLog.Len()).
		Msg("outreach log opened")

	// Session state and the send-loop runner.
	session := campaign.NewSession(sendLog)
	runner := campaign.NewRunner(session, log)

	// Build router
	router := api.NewRouter(api.RouterConfig{
		Session: session,
		Runner:  runner,
		Cfg:     cfg,
		Log:     log,
	})

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("outreach server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down server")

	// Graceful shutdown with 30-second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
