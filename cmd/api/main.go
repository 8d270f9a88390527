package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/evapp/ev-backend/internal/app"
	"github.com/evapp/ev-backend/internal/config"
	"github.com/evapp/ev-backend/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize application")
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing application")
		}
	}()

	if err := server.FromApp(application).Run(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return 1
	}
	log.Info().Msg("HTTP server stopped")
	return 0
}
