// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/docstore/lib/clock"
	"github.com/bureau-foundation/docstore/lib/sqlitepool"
)

// DatabaseSchema creates the SQLite files table. compression is NULL
// for uncompressed objects and otherwise holds a compression.Tag.
// date_updated is RFC 3339 UTC with nanoseconds.
//
// Empty files bind as NULL blobs; the upsert coalesces them to X''.
const DatabaseSchema = `
CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	mime         TEXT NOT NULL,
	content      BLOB NOT NULL,
	compression  INTEGER,
	size         INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	date_updated TEXT NOT NULL
);
`

const databaseUpsert = `
INSERT INTO files (path, mime, content, compression, size, content_hash, date_updated)
VALUES (?, ?, coalesce(?, X''), ?, ?, ?, ?)
ON CONFLICT (path) DO UPDATE SET
	mime         = excluded.mime,
	content      = excluded.content,
	compression  = excluded.compression,
	size         = excluded.size,
	content_hash = excluded.content_hash,
	date_updated = excluded.date_updated
`

// Database stores objects in a SQLite files table.
type Database struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// DatabaseConfig holds the parameters for [OpenDatabase].
type DatabaseConfig struct {
	Path        string
	PoolSize    int
	BusyTimeout time.Duration
	Clock       clock.Clock
	Logger      *slog.Logger
}

// OpenDatabase opens (creating if needed) a SQLite database with the
// files schema and returns a backend that owns the pool.
func OpenDatabase(cfg DatabaseConfig) (*Database, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:        cfg.Path,
		PoolSize:    cfg.PoolSize,
		BusyTimeout: cfg.BusyTimeout,
		Schema:      DatabaseSchema,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return NewDatabase(pool, cfg.Clock, cfg.Logger), nil
}

// NewDatabase returns a backend over an existing pool whose
// connections have DatabaseSchema applied. The backend takes
// ownership of the pool: Close closes it. A nil clock means
// clock.Real(); a nil logger discards.
func NewDatabase(pool *sqlitepool.Pool, clk clock.Clock, logger *slog.Logger) *Database {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Database{pool: pool, clock: clk, logger: logger}
}

// Put upserts object into the files table.
func (d *Database) Put(ctx context.Context, object Object) error {
	if err := object.validate(); err != nil {
		return err
	}

	conn, err := d.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("database put %s: %w", object.Key, err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn, databaseUpsert, &sqlitex.ExecOptions{
		Args: []any{
			object.Key,
			object.MimeType,
			object.Data,
			compressionColumn(object.Compression),
			object.Size,
			object.Hash.String(),
			d.clock.Now().UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("database put %s: %w", object.Key, err)
	}

	d.logger.Debug("object stored",
		"backend", KindDatabase,
		"path", d.pool.Path(),
		"key", object.Key,
		"bytes", len(object.Data),
	)
	return nil
}

// Kind returns KindDatabase.
func (d *Database) Kind() Kind { return KindDatabase }

// Close closes the underlying pool.
func (d *Database) Close() error {
	return d.pool.Close()
}
