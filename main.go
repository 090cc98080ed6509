package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdfshrink/internal/config"
	"pdfshrink/internal/database"
	"pdfshrink/internal/engine"
	"pdfshrink/internal/shrink"
	"pdfshrink/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg, err := config.New(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		// The service still compresses without history or preferences
		cfg.Logger.Warn("Failed to initialize database, continuing without it", "error", err)
		db = nil
	}

	factory := func(sink func(line string)) (shrink.Engine, error) {
		instance, err := engine.NewInstance(cfg.GhostscriptPath, cfg.WorkingDir, engine.LineSink(sink), cfg.Logger)
		if err != nil {
			return nil, err
		}
		return instance, nil
	}

	runner := shrink.NewRunner(factory, cfg.Logger)
	queue := shrink.NewQueue(runner, cfg.QueueCapacity, cfg.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)

	server := transport.NewServer(cfg, queue, db)

	cfg.Logger.Info("pdfshrink initialized",
		"working_directory", cfg.WorkingDir,
		"database_path", cfg.DatabasePath,
		"ghostscript_available", cfg.IsGhostscriptAvailable())

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			cfg.Logger.Error("Server stopped", "error", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case <-ctx.Done():
	}

	cfg.Logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		cfg.Logger.Warn("Server shutdown incomplete", "error", err)
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		cfg.Logger.Warn("Queue shutdown incomplete", "error", err)
	}
}
