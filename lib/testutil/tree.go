// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteTree creates root and every file in files beneath it. Keys are
// slash-separated paths relative to root; parent directories are
// created as needed.
//
//	testutil.WriteTree(t, fs, "/doc", map[string]string{
//		"index.html":      "<html>",
//		"static/main.css": "body{}",
//	})
func WriteTree(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	if err := fs.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("creating %s: %v", root, err)
	}
	for name, contents := range files {
		filePath := filepath.Join(root, filepath.FromSlash(name))
		if err := fs.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			t.Fatalf("creating parent of %s: %v", name, err)
		}
		if err := afero.WriteFile(fs, filePath, []byte(contents), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}
