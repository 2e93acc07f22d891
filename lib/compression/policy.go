// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"errors"
	"fmt"
	"strings"
)

// Policy decides which algorithm to apply to a file based on its
// mimetype. The zero value is not useful; start from [DefaultPolicy].
type Policy struct {
	// Text is the algorithm applied to textual content (HTML,
	// JavaScript, CSS, JSON, SVG, source code). Must be Zstd, Gzip,
	// LZ4, or None.
	Text Tag
}

// DefaultPolicy returns the policy used when none is configured:
// zstd for text.
func DefaultPolicy() Policy {
	return Policy{Text: Zstd}
}

// Validate reports whether the policy names a known algorithm.
func (p Policy) Validate() error {
	if p.Text > maxTag {
		return fmt.Errorf("compression policy: unsupported text algorithm %s", p.Text)
	}
	return nil
}

// precompressed lists media types whose payload is already
// compressed. Recompressing them costs CPU and saves nothing.
var precompressed = map[string]bool{
	"image/png":                   true,
	"image/jpeg":                  true,
	"image/gif":                   true,
	"image/webp":                  true,
	"image/avif":                  true,
	"font/woff":                   true,
	"font/woff2":                  true,
	"application/zip":             true,
	"application/gzip":            true,
	"application/x-gzip":          true,
	"application/zstd":            true,
	"application/x-bzip2":         true,
	"application/x-xz":            true,
	"application/x-7z-compressed": true,
}

// textual lists non-text/* media types that compress like text.
var textual = map[string]bool{
	"application/javascript": true,
	"application/json":       true,
	"application/xml":        true,
	"application/wasm":       true,
	"image/svg+xml":          true,
	"application/x-ndjson":   true,
	"application/sql":        true,
}

// Select returns the algorithm for a file with the given mimetype
// and contents. Mimetype parameters (";charset=...") are ignored.
func (p Policy) Select(mimetype string, data []byte) Tag {
	if len(data) == 0 {
		return None
	}

	mediaType := mimetype
	if index := strings.IndexByte(mediaType, ';'); index >= 0 {
		mediaType = mediaType[:index]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case precompressed[mediaType],
		strings.HasPrefix(mediaType, "video/"),
		strings.HasPrefix(mediaType, "audio/"):
		return None
	case strings.HasPrefix(mediaType, "text/"), textual[mediaType]:
		return p.Text
	}

	return byRatio(data)
}

// byRatio compresses data with zstd and picks an algorithm from the
// ratio: at least 1.5x selects zstd, at least 1.1x selects LZ4 (faster
// for a modest gain), anything less is stored uncompressed.
func byRatio(data []byte) Tag {
	compressed := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(compressed))

	switch {
	case ratio >= 1.5:
		return Zstd
	case ratio >= 1.1:
		return LZ4
	default:
		return None
	}
}

// Apply selects an algorithm for data and compresses it. Returns the
// bytes to store and the tag that was actually applied: if the
// selected algorithm does not shrink the data, the original slice is
// returned with None.
func (p Policy) Apply(mimetype string, data []byte) ([]byte, Tag, error) {
	tag := p.Select(mimetype, data)

	compressed, err := Compress(data, tag)
	if err != nil {
		if errors.Is(err, ErrIncompressible) {
			return data, None, nil
		}
		return nil, 0, err
	}
	return compressed, tag, nil
}
