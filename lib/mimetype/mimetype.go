// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mimetype detects the media type of files being stored.
//
// Documentation output is dominated by a handful of extensions whose
// correct media type matters to browsers (a JavaScript file served as
// text/plain will not execute), so [Detect] consults a fixed extension
// table first. Everything else is sniffed from the file contents with
// github.com/gabriel-vasile/mimetype. Detection never fails: the worst
// case is application/octet-stream.
package mimetype

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// byExtension maps lowercase file extensions (with the leading dot)
// to media types. These take precedence over content sniffing.
var byExtension = map[string]string{
	".html":     "text/html",
	".htm":      "text/html",
	".js":       "application/javascript",
	".mjs":      "application/javascript",
	".css":      "text/css",
	".json":     "application/json",
	".svg":      "image/svg+xml",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".rs":       "text/rust",
	".toml":     "text/toml",
	".txt":      "text/plain",
	".lock":     "text/plain",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".xml":      "application/xml",
	".woff":     "font/woff",
	".woff2":    "font/woff2",
	".ttf":      "font/ttf",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".gif":      "image/gif",
	".ico":      "image/x-icon",
	".webp":     "image/webp",
	".wasm":     "application/wasm",
	".gz":       "application/gzip",
	".zip":      "application/zip",
}

// Default is returned for empty files whose extension is not in the
// table. Empty content sniffs as text, so label it as such.
const Default = "text/plain"

// Detect returns the media type for a file with the given name and
// contents. The name may be a bare filename or a slash-separated
// path; only its extension is consulted. The returned value never
// carries parameters such as charset.
func Detect(name string, data []byte) string {
	if mediaType := ForExtension(path.Ext(name)); mediaType != "" {
		return mediaType
	}

	if len(data) == 0 {
		return Default
	}

	return stripParameters(mimetype.Detect(data).String())
}

// ForExtension returns the table entry for an extension such as
// ".js", or "" if the extension is not in the table.
func ForExtension(extension string) string {
	return byExtension[strings.ToLower(extension)]
}

func stripParameters(mediaType string) string {
	if index := strings.IndexByte(mediaType, ';'); index >= 0 {
		mediaType = mediaType[:index]
	}
	return strings.TrimSpace(mediaType)
}
