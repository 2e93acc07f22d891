// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/docstore/lib/clock"
	"github.com/bureau-foundation/docstore/lib/config"
)

// Open constructs the backend named by cfg.Backend. This is the only
// place the choice of backend is made. The clock stamps
// database rows; nil means clock.Real(). A nil logger discards.
func Open(ctx context.Context, cfg config.StorageConfig, clk clock.Clock, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	switch cfg.Backend {
	case config.BackendDatabase:
		busyTimeout, err := cfg.Database.BusyTimeoutDuration()
		if err != nil {
			return nil, fmt.Errorf("storage: database busy_timeout: %w", err)
		}
		backend, err := OpenDatabase(DatabaseConfig{
			Path:        cfg.Database.Path,
			PoolSize:    cfg.Database.PoolSize,
			BusyTimeout: busyTimeout,
			Clock:       clk,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil

	case config.BackendPostgres:
		backend, err := OpenPostgres(ctx, PostgresConfig{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			Clock:    clk,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil

	case config.BackendS3:
		backend, err := OpenObjectStore(ctx, ObjectStoreConfig{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil

	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
