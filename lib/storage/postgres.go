// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bureau-foundation/docstore/lib/clock"
)

// PostgresSchema creates the PostgreSQL files table. Same shape as
// DatabaseSchema with native types.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	mime         TEXT NOT NULL,
	content      BYTEA NOT NULL,
	compression  SMALLINT,
	size         BIGINT NOT NULL,
	content_hash TEXT NOT NULL,
	date_updated TIMESTAMPTZ NOT NULL
)
`

const postgresUpsert = `
INSERT INTO files (path, mime, content, compression, size, content_hash, date_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (path) DO UPDATE SET
	mime         = EXCLUDED.mime,
	content      = EXCLUDED.content,
	compression  = EXCLUDED.compression,
	size         = EXCLUDED.size,
	content_hash = EXCLUDED.content_hash,
	date_updated = EXCLUDED.date_updated
`

// PostgresExecutor is the subset of *pgxpool.Pool the backend uses.
type PostgresExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Postgres stores objects in a PostgreSQL files table.
type Postgres struct {
	db     PostgresExecutor
	close  func()
	clock  clock.Clock
	logger *slog.Logger
}

// PostgresConfig holds the parameters for [OpenPostgres].
type PostgresConfig struct {
	// DSN is a libpq connection string or postgres:// URL.
	DSN string

	// MaxConns caps the pool. Zero keeps the pgx default.
	MaxConns int32

	Clock  clock.Clock
	Logger *slog.Logger
}

// OpenPostgres connects, verifies the connection, and ensures the
// files table exists. The returned backend owns the pool.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	backend := NewPostgres(pool, cfg.Clock, cfg.Logger)
	backend.close = pool.Close
	if err := backend.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	backend.logger.Info("postgres backend opened",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return backend, nil
}

// NewPostgres returns a backend over db. The caller keeps ownership
// of db; Close does not close it. A nil clock means clock.Real(); a
// nil logger discards.
func NewPostgres(db PostgresExecutor, clk clock.Clock, logger *slog.Logger) *Postgres {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Postgres{db: db, clock: clk, logger: logger}
}

// EnsureSchema creates the files table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("postgres: creating files table: %w", err)
	}
	return nil
}

// Put upserts object into the files table.
func (p *Postgres) Put(ctx context.Context, object Object) error {
	if err := object.validate(); err != nil {
		return err
	}

	content := object.Data
	if content == nil {
		content = []byte{}
	}

	_, err := p.db.Exec(ctx, postgresUpsert,
		object.Key,
		object.MimeType,
		content,
		compressionColumn(object.Compression),
		object.Size,
		object.Hash.String(),
		p.clock.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres put %s: %w", object.Key, err)
	}

	p.logger.Debug("object stored",
		"backend", KindPostgres,
		"key", object.Key,
		"bytes", len(object.Data),
	)
	return nil
}

// Kind returns KindPostgres.
func (p *Postgres) Kind() Kind { return KindPostgres }

// Close closes the pool if the backend opened it.
func (p *Postgres) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
