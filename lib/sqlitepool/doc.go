// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the SQLite connection pool behind the
// database storage backend.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers [Pool.Take]
// a connection, run statements, and [Pool.Put] it back. Connections
// are not safe for concurrent use; each goroutine holds its own for
// the duration of its work. SQLite serializes writers regardless of
// pool size, so parallel uploads contend on the write lock and rely on
// busy_timeout to wait rather than fail.
//
// # Pragmas
//
// The database is the only copy of the files written to it, so the
// pragmas favour durability over write throughput:
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=FULL: a committed upsert survives OS crash and power
//     loss, not just process crash.
//   - busy_timeout: wait for the write lock (default 10 seconds).
//   - foreign_keys=ON: the files table has none today; enabled so any
//     future references are enforced.
//   - temp_store=MEMORY.
//
// # Schema
//
// [Config].Schema is executed on every new connection after the
// pragmas. It must be idempotent (CREATE TABLE IF NOT EXISTS ...).
// [Config].OnConnect runs after it for anything else a caller needs.
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/docstore/files.db",
//	    Schema: storage.DatabaseSchema,
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
package sqlitepool
