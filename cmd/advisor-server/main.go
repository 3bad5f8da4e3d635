package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/advisor/internal/app"
	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/server"
)

func main() {
	configPath := os.Getenv("ADVISOR_CONFIG")

	cfg, err := common.LoadConfig(configPath, "advisor.toml")
	if err != nil {
		common.NewDefaultLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger := common.NewLogger(cfg.Logging.Level)

	a, err := app.NewApp(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := a.StartJobs(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start background jobs")
	}

	srv := server.NewServer(a)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)).
		Str("version", common.GetFullVersion()).
		Msg("Server ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	if err := a.Close(); err != nil {
		logger.Error().Err(err).Msg("Storage close failed")
	}
	logger.Info().Msg("Server stopped")
}
