// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/bureau-foundation/docstore/lib/compression"
	"github.com/bureau-foundation/docstore/lib/upload"
)

// Entry is one manifest element: the media type first, then the path
// relative to the prefix.
type Entry [2]string

// MimeType returns the entry's media type.
func (e Entry) MimeType() string { return e[0] }

// Path returns the entry's path relative to the prefix.
func (e Entry) Path() string { return e[1] }

// UnmarshalJSON accepts exactly a two-element array of strings.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var fields []string
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("manifest entry: %w", err)
	}
	if len(fields) != 2 {
		return fmt.Errorf("manifest entry: want [mimetype, path], got %d elements", len(fields))
	}
	*e = Entry{fields[0], fields[1]}
	return nil
}

// Manifest lists stored files in discovery order. It is never sorted
// or deduplicated.
type Manifest []Entry

// MarshalJSON encodes a nil Manifest as [] rather than null.
func (m Manifest) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Entry(m))
}

// Parse decodes the JSON form of a manifest.
func Parse(data []byte) (Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if manifest == nil {
		// JSON null.
		return nil, fmt.Errorf("parsing manifest: want an array, got null")
	}
	return manifest, nil
}

// PathEncodingError reports a stored file whose path is not valid
// UTF-8 and therefore cannot appear in a manifest.
type PathEncodingError struct {
	// Index is the position of the file in the uploader's output.
	Index int

	// Path holds the raw path bytes.
	Path string
}

func (e *PathEncodingError) Error() string {
	return fmt.Sprintf("manifest: path %d is not valid UTF-8: %q", e.Index, e.Path)
}

// Assemble converts uploader file records into a manifest, preserving
// their order. If any path is not valid UTF-8 it returns nil and a
// *PathEncodingError; no partial manifest is produced.
func Assemble(files []upload.FileRecord) (Manifest, error) {
	manifest := make(Manifest, 0, len(files))
	for index, file := range files {
		if !utf8.ValidString(file.Path) {
			return nil, &PathEncodingError{Index: index, Path: file.Path}
		}
		manifest = append(manifest, Entry{file.MimeType, file.Path})
	}
	return manifest, nil
}

// Storer stores a directory tree under a prefix. *upload.Uploader
// implements it.
type Storer interface {
	StoreAll(ctx context.Context, prefix, root string) (upload.Result, error)
}

// AddPath stores every regular file beneath root under prefix and
// returns the manifest of stored files and the compression algorithms
// applied to them. Errors from the store and from assembly are
// returned unchanged, with a nil manifest and an empty set.
func AddPath(ctx context.Context, storer Storer, prefix, root string) (Manifest, compression.Set, error) {
	result, err := storer.StoreAll(ctx, prefix, root)
	if err != nil {
		return nil, 0, err
	}
	manifest, err := Assemble(result.Files)
	if err != nil {
		return nil, 0, err
	}
	return manifest, result.Algorithms, nil
}
