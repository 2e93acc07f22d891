// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage persists uploaded objects.
//
// [Backend] is the capability every storage medium implements: accept
// one [Object] under a key and make it durable. Four implementations
// exist:
//
//   - [Database]: a "files" table in a local SQLite database, through
//     lib/sqlitepool. Intended for development and tests.
//   - [Postgres]: the same table in PostgreSQL, through pgx.
//   - [ObjectStore]: an S3 (or S3-compatible) bucket, through the AWS
//     SDK. The recommended production backend: the number of files
//     published is large and object storage scales with it.
//   - [Memory]: a map, for tests that need to inspect what was stored.
//
// The backend is chosen once, from configuration, by [Open]. Nothing
// above this package branches on which one is active.
//
// Every Put is an upsert: writing a key that already exists replaces
// its content and metadata. No versions are kept. All backends are
// safe for concurrent Put calls.
package storage
