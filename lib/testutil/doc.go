// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for docstore packages.
//
// [WriteTree] lays out a directory tree of files on any afero.Fs, so
// the same fixture can back an in-memory test and one that needs the
// real filesystem (symlinks, permissions).
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
