package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markdave123-py/Synopsis/internal/app"
	"github.com/markdave123-py/Synopsis/internal/config"
	"github.com/markdave123-py/Synopsis/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "synopsis:", err)
		os.Exit(1)
	}
}

func run() error {
	// Handle SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- application.Server.Start() }()

	log.Info("Synopsis is running", "port", cfg.Port, "file_store", cfg.FileStore, "llm_provider", cfg.LLMProvider)

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if serr := application.Server.Shutdown(shutdownCtx); serr != nil {
		log.Warn("http shutdown", "error", serr)
	}
	if cerr := application.Close(shutdownCtx); cerr != nil {
		log.Warn("close", "error", cerr)
	}
	return err
}
