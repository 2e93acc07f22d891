// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest turns the output of a storage batch into the
// manifest consumers read.
//
// A [Manifest] is an ordered list of [mimetype, path] pairs, one per
// stored file, in the order the uploader discovered them. Its JSON
// form is the compatibility surface:
//
//	[["text/html","index.html"],["application/javascript","search-index.js"]]
//
// [AddPath] is the entry point: it stores a directory tree through an
// upload.Uploader and returns the manifest together with the set of
// compression algorithms used. [Record] bundles both with the prefix
// for callers that persist or print a batch.
package manifest
