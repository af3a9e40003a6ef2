package core

// scheduler.go runs the background janitor.
//
// Pending orders live only in memory, one per browser session, so sessions
// that stop making requests are dropped after an idle timeout. Finished upload
// statuses are forgotten after the same period.

import (
	"context"
	"log/slog"
	"time"
)

// JanitorConfig holds settings for the session janitor.
type JanitorConfig struct {
	IdleTimeout   time.Duration // drop sessions idle this long (default: 2h)
	CheckInterval time.Duration // how often to sweep (default: 10m)
}

func (c JanitorConfig) withDefaults() JanitorConfig {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 2 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 10 * time.Minute
	}
	return c
}

// StartJanitor sweeps idle sessions and finished uploads every CheckInterval
// until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context, cfg JanitorConfig) {
	cfg = cfg.withDefaults()
	slog.Info("session janitor started",
		"idle_timeout", cfg.IdleTimeout,
		"check_interval", cfg.CheckInterval,
	)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			s.sweep(cfg)
		}
	}
}

func (s *Service) sweep(cfg JanitorConfig) {
	sessions := s.expireSessions(cfg.IdleTimeout)
	uploads := s.pruneUploads(cfg.IdleTimeout)
	if sessions > 0 || uploads > 0 {
		slog.Debug("janitor sweep", "sessions_expired", sessions, "uploads_pruned", uploads)
	}
}
