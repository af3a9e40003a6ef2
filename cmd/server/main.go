package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MuhammadJuraij/OrderEase/internal/config"
	"github.com/MuhammadJuraij/OrderEase/internal/core"
	"github.com/MuhammadJuraij/OrderEase/internal/logging"
	"github.com/MuhammadJuraij/OrderEase/internal/sheet"
	"github.com/MuhammadJuraij/OrderEase/internal/store"
	"github.com/MuhammadJuraij/OrderEase/internal/web"
)

func main() {
	// Load .env file if it exists; variables already set take precedence
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_driver", cfg.Store.Driver,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	service := core.NewService(st, sheet.Parser{MaxRows: cfg.Upload.MaxRows}, core.Options{
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
		ParseTimeout:         cfg.Upload.Timeout,
	})

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartJanitor(jobCtx, core.JanitorConfig{
		IdleTimeout:   cfg.Session.IdleTimeout,
		CheckInterval: cfg.Session.CheckInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		drainUploads(shutdownCtx, service)

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// drainUploads waits for every started upload, including ones still queued
// for a parse slot or writing their rows, so no listed file is left without
// its rows.
func drainUploads(ctx context.Context, service *core.Service) {
	slog.Info("waiting for uploads to complete", "active", service.UploadLimiterStatus().Active)
	if err := service.WaitForUploads(ctx); err != nil {
		slog.Warn("uploads did not complete in time", "error", err)
		return
	}
	slog.Info("all uploads completed")
}
