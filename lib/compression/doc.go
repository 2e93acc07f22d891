// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compression decides how each stored object is compressed
// and implements the codecs.
//
// Every object written by docstore carries a [Tag] naming the
// algorithm applied to its bytes. Tags are small integers persisted
// in database rows and object metadata, so their values are protocol
// constants. All codecs produce self-describing frames (zstd frame,
// LZ4 frame, gzip member): the retrieval path needs only the tag, not
// the original size, to decompress.
//
// Selection is per file and keyed by mimetype ([Policy.Select]).
// Textual content gets the policy's text algorithm, media that is
// already compressed is stored as-is, and anything else is chosen
// by a trial compression ratio.
// [Policy.Apply] falls back to [None] when compression does not make
// the payload smaller.
//
// A batch of uploads reports the algorithms it used as a [Set], a
// bitset that downstream retrieval code inspects to know which
// decompressors it needs without per-object lookups.
package compression
