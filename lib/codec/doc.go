// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides docstore's CBOR encoding configuration.
//
// Batch records have two encodings with a clear boundary:
//
//   - JSON is the compatibility surface. The manifest embedded in a
//     release row is a JSON array of [mimetype, path] pairs and
//     existing consumers parse exactly that.
//   - CBOR is the compact form for pipelines that keep batch records
//     in binary stores. It uses Core Deterministic Encoding (RFC 8949
//     §4.2) so the same record always produces the same bytes and
//     records can be compared or hashed directly.
//
// Types shared by both encodings carry `json` struct tags only;
// fxamacker/cbor falls back to them when `cbor` tags are absent.
// Custom JSON marshalers are not consulted by CBOR: a type such as
// compression.Set that renders as names in JSON encodes as its
// underlying integer in CBOR.
//
//	data, err := codec.Marshal(record)
//	err = codec.Unmarshal(data, &record)
package codec
