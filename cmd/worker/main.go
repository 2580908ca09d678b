// Package main provides the entry point for the worker service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/tabtriage/internal/config"
	"github.com/thebtf/tabtriage/internal/kv"
	"github.com/thebtf/tabtriage/internal/worker"
	"github.com/thebtf/tabtriage/pkg/workerclient"
)

var Version = "dev"

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare data directory")
	}
	cfg := config.Get()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	log.Info().
		Str("version", Version).
		Str("backend", string(cfg.Backend)).
		Msg("Starting tabtriage worker")

	if workerclient.New(cfg.WorkerPort, "").IsRunning(context.Background()) {
		log.Fatal().Int("port", cfg.WorkerPort).Msg("A worker is already running on this port")
	}

	store, err := kv.Open(cfg.StoreOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}

	svc, err := worker.NewService(Version, cfg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create service")
	}

	if err := svc.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start service")
	}
	if token := svc.AuthToken(); token != "" {
		log.Info().Str("token", token).Msg("API token (send as X-Auth-Token)")
	}

	// Settings hot reload
	ctx, stop := context.WithCancel(context.Background())
	if watcher, err := config.NewWatcher(log.Logger); err != nil {
		log.Warn().Err(err).Msg("Settings watcher unavailable")
	} else {
		watcher.Subscribe(svc.ApplyConfig)
		go watcher.Run(ctx)
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Received shutdown signal")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}

	log.Info().Msg("Worker shutdown complete")
}
