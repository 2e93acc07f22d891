// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads docstore configuration.
//
// Configuration comes from a single file named by the DOCSTORE_CONFIG
// environment variable ([Load]) or a --config flag ([LoadFile]). There
// is no discovery and no fallback search. Files ending in .jsonc or
// .json are read as JSON with comments (stripped via tidwall/jsonc);
// everything else is YAML.
//
// The file selects one storage backend ("database" for SQLite,
// "postgres", or "s3") and tunes the uploader. A development or
// production section overrides base values when [Config].Environment
// matches. Production refuses the local SQLite backend: its files live
// on one machine's disk.
//
// ${VAR} and ${VAR:-default} patterns are expanded in the SQLite path,
// the PostgreSQL DSN, and the S3 endpoint after loading. No other
// environment variables override config values.
//
// This package depends only on lib/compression, for validating the
// configured text algorithm.
package config
