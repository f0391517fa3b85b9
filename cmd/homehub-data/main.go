package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"homehub-data/internal/config"
	"homehub-data/internal/service"
	"homehub-data/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "homehub-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	hub, err := service.NewHomeHub(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize homehub-data", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- hub.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server exited", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hub.Stop(shutdownCtx); err != nil {
		log.Error("Shutdown failed", zap.Error(err))
	}
	log.Info("homehub-data stopped")
}
