package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/server"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := server.ReadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	configureLogging(cfg.LogLevel)
	log.Info("starting task service")
	warnDefaultSecret(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer stores.Close()

	api := server.NewTaskAPI(stores.users, stores.tasks, cfg)
	if api == nil {
		log.Fatal("failed to initialise API")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := api.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		} else {
			log.Info("graceful shutdown complete")
		}

	case err := <-serverErr:
		log.WithError(err).Error("server stopped")
		cancel()
	}

	log.Info("task service stopped")
}

func warnDefaultSecret(cfg *server.Config) {
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT secret is the built-in default; set JWT_SECRET before exposing the service")
	}
}

func configureLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
