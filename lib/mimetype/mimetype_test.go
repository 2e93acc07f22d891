// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mimetype

import (
	"strings"
	"testing"
)

func TestDetectByExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"index.html", "text/html"},
		{"search-index.js", "application/javascript"},
		{"static.files/rustdoc.css", "text/css"},
		{"src/lib.rs", "text/rust"},
		{"Cargo.toml", "text/toml"},
		{"README.md", "text/markdown"},
		{"FiraSans-Regular.woff2", "font/woff2"},
		{"rust-logo.SVG", "image/svg+xml"},
		{"crates.json", "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Content deliberately disagrees with the extension; the
			// table wins.
			if got := Detect(tt.name, []byte("\x89PNG\r\n\x1a\n")); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestDetectSniffsContent(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	if got := Detect("logo", png); got != "image/png" {
		t.Errorf("Detect(png bytes) = %q, want image/png", got)
	}

	if got := Detect("LICENSE-MIT", []byte("Permission is hereby granted, free of charge\n")); got != "text/plain" {
		t.Errorf("Detect(plain text) = %q, want text/plain without parameters", got)
	}
}

func TestDetectEmptyFile(t *testing.T) {
	if got := Detect(".nojekyll", nil); got != Default {
		t.Errorf("Detect(empty) = %q, want %q", got, Default)
	}
	if got := Detect("empty.js", nil); got != "application/javascript" {
		t.Errorf("Detect(empty.js) = %q, want application/javascript", got)
	}
}

func TestDetectUnknownBinary(t *testing.T) {
	data := []byte{0x00, 0x01, 0xfe, 0xff, 0x00, 0x13, 0x37, 0x00}
	if got := Detect("blob.bin", data); got != "application/octet-stream" {
		t.Errorf("Detect(unknown binary) = %q, want application/octet-stream", got)
	}
}

func TestForExtension(t *testing.T) {
	if got := ForExtension(".JS"); got != "application/javascript" {
		t.Errorf("ForExtension(.JS) = %q", got)
	}
	if got := ForExtension(".unknown"); got != "" {
		t.Errorf("ForExtension(.unknown) = %q, want empty", got)
	}
}

func TestDetectUsesExtensionTable(t *testing.T) {
	for extension, want := range byExtension {
		name := "static.files/asset" + strings.ToUpper(extension)
		if got := Detect(name, []byte("\x00\x01binary")); got != want {
			t.Errorf("Detect(%q) = %q, want %q", name, got, want)
		}
		if got := ForExtension(extension); got != want {
			t.Errorf("ForExtension(%q) = %q, want %q", extension, got, want)
		}
	}
}
