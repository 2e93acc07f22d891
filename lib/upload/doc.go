// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package upload stores every regular file under a directory tree into
// a [storage.Backend] beneath a key prefix.
//
// [Uploader.StoreAll] walks the tree in lexical order, detects each
// file's media type, compresses it according to a
// [compression.Policy], and writes it to the backend. Writes run in
// parallel up to a configured limit. A batch either succeeds as a
// whole or returns a single error: there is no partial [Result].
//
// Objects written before a failure are not removed. Backends upsert by
// key, so rerunning the same batch converges.
package upload
