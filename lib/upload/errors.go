// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"errors"
	"fmt"
)

// ErrFileTooLarge is wrapped in a [SourceReadError] when a file
// exceeds Config.MaxFileSize.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// SourceReadError reports that the scan root or a file beneath it
// could not be read.
type SourceReadError struct {
	// Path is the filesystem path that failed.
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("upload: reading %s: %v", e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// BackendWriteError reports that the backend rejected an object.
type BackendWriteError struct {
	// Key is the storage key of the rejected object.
	Key string
	Err error
}

func (e *BackendWriteError) Error() string {
	return fmt.Sprintf("upload: storing %s: %v", e.Key, e.Err)
}

func (e *BackendWriteError) Unwrap() error { return e.Err }
