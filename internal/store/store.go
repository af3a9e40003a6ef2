// Package store provides the key-value backends behind core.Store.
//
// Every backend keeps whole JSON documents under plain string keys. Values are
// never patched in place; Set overwrites, Delete removes.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MuhammadJuraij/OrderEase/internal/config"
	"github.com/MuhammadJuraij/OrderEase/internal/core"
)

// Store is a core.Store that holds external resources.
type Store interface {
	core.Store
	Ping(ctx context.Context) error
	Close() error
}

// Open creates the backend selected by cfg.Driver and verifies it responds.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		st = NewMemory()
	case config.DriverSQLite:
		st, err = OpenSQLite(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		st, err = OpenPostgres(ctx, cfg)
	case config.DriverRedis:
		st, err = OpenRedis(cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	pingCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := st.Ping(pingCtx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("%s store: ping: %w", cfg.Driver, err)
	}

	slog.Info("store opened", "driver", cfg.Driver)
	return WithTimeout(st, cfg.Timeout), nil
}

// WithTimeout bounds every operation on st by d.
func WithTimeout(st Store, d time.Duration) Store {
	if d <= 0 {
		return st
	}
	return &timeoutStore{Store: st, timeout: d}
}

type timeoutStore struct {
	Store
	timeout time.Duration
}

func (s *timeoutStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.Store.Get(ctx, key)
}

func (s *timeoutStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.Store.Set(ctx, key, value)
}

func (s *timeoutStore) Delete(ctx context.Context, keys ...string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.Store.Delete(ctx, keys...)
}
