// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// docstore-add stores a directory tree under a prefix in the
// configured backend and prints the batch record.
//
// Usage:
//
//	docstore-add [--config PATH] [--format json|cbor|cbor-diag] [--concurrency N] PREFIX DIR
//
// Configuration comes from --config or, if that is not given, the file
// named by DOCSTORE_CONFIG. The record written to stdout holds the
// prefix, the manifest of [mimetype, path] pairs, and the compression
// algorithms used. Logs go to stderr as JSON.
package main
