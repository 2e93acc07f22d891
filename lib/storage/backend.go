// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/bureau-foundation/docstore/lib/compression"
)

// Kind identifies a backend implementation.
type Kind string

const (
	KindDatabase    Kind = "database"
	KindPostgres    Kind = "postgres"
	KindObjectStore Kind = "s3"
	KindMemory      Kind = "memory"
)

// Backend persists objects. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Put stores object under object.Key, replacing any existing
	// object at that key.
	Put(ctx context.Context, object Object) error

	// Kind reports which implementation this is, for logging.
	Kind() Kind

	// Close releases connections held by the backend.
	Close() error
}

// Hash is a BLAKE3-256 digest of an object's uncompressed content.
type Hash [32]byte

// String returns the lowercase hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Object is one stored file.
type Object struct {
	// Key is the full storage key: batch prefix plus the file's
	// slash-separated relative path.
	Key string

	// Data is the stored payload, compressed with Compression.
	Data []byte

	// MimeType is the media type of the uncompressed content.
	MimeType string

	// Compression is the algorithm applied to Data.
	Compression compression.Tag

	// Size is the length of the uncompressed content.
	Size int64

	// Hash is the BLAKE3 digest of the uncompressed content.
	Hash Hash
}

// ErrInvalidObject is wrapped by Put when an object fails validation
// before any write is attempted.
var ErrInvalidObject = errors.New("invalid object")

// validate checks the fields every backend relies on.
func (o Object) validate() error {
	if o.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidObject)
	}
	if o.MimeType == "" {
		return fmt.Errorf("%w: %s: empty mimetype", ErrInvalidObject, o.Key)
	}
	if o.Size < 0 {
		return fmt.Errorf("%w: %s: negative size", ErrInvalidObject, o.Key)
	}
	return nil
}

// compressionColumn maps a tag to the nullable integer stored in the
// files table: NULL for uncompressed objects.
func compressionColumn(tag compression.Tag) any {
	if tag == compression.None {
		return nil
	}
	return int64(tag)
}
