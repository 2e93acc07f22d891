// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/docstore/lib/compression"
	"github.com/bureau-foundation/docstore/lib/storage"
	"github.com/bureau-foundation/docstore/lib/testutil"
	"github.com/bureau-foundation/docstore/lib/upload"
)

var indexHTML = strings.Repeat("<li><a href=\"fn.parse.html\">parse</a></li>\n", 100)

func newUploader(t *testing.T, cfg upload.Config) *upload.Uploader {
	t.Helper()
	uploader, err := upload.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return uploader
}

func paths(files []upload.FileRecord) []string {
	var result []string
	for _, file := range files {
		result = append(result, file.Path)
	}
	return result
}

func TestStoreAllScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, "/build/doc", map[string]string{
		"index.html":      indexHTML,
		"search-index.js": strings.Repeat("searchIndex[\"crate\"] = {};\n", 50),
	})
	backend := storage.NewMemory()
	uploader := newUploader(t, upload.Config{Backend: backend, Fs: fs})

	result, err := uploader.StoreAll(context.Background(), "crate-1.0.0", "/build/doc")
	if err != nil {
		t.Fatalf("StoreAll: %v", err)
	}

	want := []upload.FileRecord{
		{Path: "index.html", MimeType: "text/html"},
		{Path: "search-index.js", MimeType: "application/javascript"},
	}
	if !slices.Equal(result.Files, want) {
		t.Errorf("Files = %v, want %v", result.Files, want)
	}
	if result.Algorithms != compression.Set(0).Add(compression.Zstd) {
		t.Errorf("Algorithms = %s, want zstd", result.Algorithms)
	}

	wantKeys := []string{"crate-1.0.0/index.html", "crate-1.0.0/search-index.js"}
	if got := backend.Keys(); !slices.Equal(got, wantKeys) {
		t.Errorf("stored keys = %v, want %v", got, wantKeys)
	}

	object, _ := backend.Get("crate-1.0.0/index.html")
	if object.Compression != compression.Zstd {
		t.Errorf("index.html compression = %s, want zstd", object.Compression)
	}
	if object.Size != int64(len(indexHTML)) {
		t.Errorf("Size = %d, want %d", object.Size, len(indexHTML))
	}
	if object.Hash != storage.Hash(blake3.Sum256([]byte(indexHTML))) {
		t.Error("Hash is not the BLAKE3 digest of the uncompressed bytes")
	}
	restored, err := compression.Decompress(object.Data, object.Compression, 0)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(restored) != indexHTML {
		t.Error("stored object does not decompress to the source file")
	}
}

func TestStoreAllWalkOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, "/root", map[string]string{
		"z.html":               "z",
		"a.html":               "a",
		"static/b.css":         "b",
		"static/fonts/c.woff2": "c",
		"src/lib.rs":           "d",
		"A.txt":                "e",
	})

	uploader := newUploader(t, upload.Config{Backend: storage.NewMemory(), Fs: fs, Concurrency: 3})
	result, err := uploader.StoreAll(context.Background(), "p", "/root")
	if err != nil {
		t.Fatalf("StoreAll: %v", err)
	}

	want := []string{"A.txt", "a.html", "src/lib.rs", "static/b.css", "static/fonts/c.woff2", "z.html"}
	if got := paths(result.Files); !slices.Equal(got, want) {
		t.Errorf("walk order = %v, want %v", got, want)
	}
}

func TestStoreAllIsRepeatable(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{}
	for _, name := range []string{"index.html", "all.html", "settings.html", "static/main.js", "static/noscript.css"} {
		files[name] = indexHTML
	}
	testutil.WriteTree(t, fs, "/doc", files)

	backend := storage.NewMemory()
	uploader := newUploader(t, upload.Config{Backend: backend, Fs: fs, Concurrency: 2})

	first, err := uploader.StoreAll(context.Background(), "crate/2.0.0", "/doc")
	if err != nil {
		t.Fatalf("first StoreAll: %v", err)
	}
	second, err := uploader.StoreAll(context.Background(), "crate/2.0.0", "/doc")
	if err != nil {
		t.Fatalf("second StoreAll: %v", err)
	}

	if !slices.Equal(first.Files, second.Files) || first.Algorithms != second.Algorithms {
		t.Errorf("repeated batch differs: %v / %v", first, second)
	}
	if len(backend.Keys()) != len(files) {
		t.Errorf("stored %d keys, want %d", len(backend.Keys()), len(files))
	}
	if backend.Puts() != 2*len(files) {
		t.Errorf("Puts() = %d, want %d", backend.Puts(), 2*len(files))
	}
}

func TestStoreAllEmptyDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/empty/nested", 0o755); err != nil {
		t.Fatal(err)
	}

	backend := storage.NewMemory()
	uploader := newUploader(t, upload.Config{Backend: backend, Fs: fs})
	result, err := uploader.StoreAll(context.Background(), "p", "/empty")
	if err != nil {
		t.Fatalf("StoreAll(empty): %v", err)
	}
	if len(result.Files) != 0 || result.Algorithms.Len() != 0 {
		t.Errorf("empty directory produced %+v", result)
	}
	if backend.Puts() != 0 {
		t.Errorf("empty directory wrote %d objects", backend.Puts())
	}
}

func TestStoreAllPrefixTrimming(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"crate/1.0.0", "crate/1.0.0/index.html"},
		{"/crate/1.0.0/", "crate/1.0.0/index.html"},
		{"", "index.html"},
		{"/", "index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			if got := upload.Key(tt.prefix, "index.html"); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestStoreAllMissingRoot(t *testing.T) {
	uploader := newUploader(t, upload.Config{Backend: storage.NewMemory(), Fs: afero.NewMemMapFs()})

	_, err := uploader.StoreAll(context.Background(), "p", "/does/not/exist")
	var sourceErr *upload.SourceReadError
	if !errors.As(err, &sourceErr) {
		t.Fatalf("StoreAll error = %v, want *SourceReadError", err)
	}
	if sourceErr.Path != "/does/not/exist" {
		t.Errorf("SourceReadError.Path = %q", sourceErr.Path)
	}
}

func TestStoreAllRootIsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, "/", map[string]string{"file.html": "x"})
	uploader := newUploader(t, upload.Config{Backend: storage.NewMemory(), Fs: fs})

	_, err := uploader.StoreAll(context.Background(), "p", "/file.html")
	var sourceErr *upload.SourceReadError
	if !errors.As(err, &sourceErr) {
		t.Fatalf("StoreAll error = %v, want *SourceReadError", err)
	}
}

func TestStoreAllMaxFileSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, "/doc", map[string]string{
		"small.html": "ok",
		"large.html": strings.Repeat("x", 1025),
	})
	uploader := newUploader(t, upload.Config{Backend: storage.NewMemory(), Fs: fs, MaxFileSize: 1024})

	result, err := uploader.StoreAll(context.Background(), "p", "/doc")
	if !errors.Is(err, upload.ErrFileTooLarge) {
		t.Fatalf("StoreAll error = %v, want ErrFileTooLarge", err)
	}
	var sourceErr *upload.SourceReadError
	if !errors.As(err, &sourceErr) || !strings.HasSuffix(sourceErr.Path, "large.html") {
		t.Errorf("error %v should be a SourceReadError naming large.html", err)
	}
	if result.Files != nil {
		t.Errorf("failed batch returned files %v", result.Files)
	}
}

// failingBackend rejects one key and stores everything else.
type failingBackend struct {
	*storage.Memory
	failKey string
	err     error
}

func (f *failingBackend) Put(ctx context.Context, object storage.Object) error {
	if object.Key == f.failKey {
		return f.err
	}
	return f.Memory.Put(ctx, object)
}

func TestStoreAllBackendFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, "/doc", map[string]string{
		"1.html": indexHTML,
		"2.html": indexHTML,
		"3.html": indexHTML,
		"4.html": indexHTML,
		"5.html": indexHTML,
	})

	failure := errors.New("disk quota exceeded")
	backend := &failingBackend{Memory: storage.NewMemory(), failKey: "p/3.html", err: failure}
	uploader := newUploader(t, upload.Config{Backend: backend, Fs: fs, Concurrency: 1})

	result, err := uploader.StoreAll(context.Background(), "p", "/doc")
	var writeErr *upload.BackendWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("StoreAll error = %v, want *BackendWriteError", err)
	}
	if writeErr.Key != "p/3.html" {
		t.Errorf("BackendWriteError.Key = %q, want p/3.html", writeErr.Key)
	}
	if !errors.Is(err, failure) {
		t.Errorf("error %v should wrap the backend failure", err)
	}
	if result.Files != nil || result.Algorithms != 0 {
		t.Errorf("failed batch returned %+v", result)
	}

	// With one worker the files after the failure are never attempted.
	if got := backend.Keys(); !slices.Equal(got, []string{"p/1.html", "p/2.html"}) {
		t.Errorf("stored keys = %v, want the two files before the failure", got)
	}
}

// countingBackend tracks the peak number of concurrent Put calls.
type countingBackend struct {
	*storage.Memory
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingBackend) Put(ctx context.Context, object storage.Object) error {
	current := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.peak.Load()
		if current <= peak || c.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	return c.Memory.Put(ctx, object)
}

func TestStoreAllConcurrencyLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		files[name+".html"] = name
	}
	testutil.WriteTree(t, fs, "/doc", files)

	backend := &countingBackend{Memory: storage.NewMemory()}
	uploader := newUploader(t, upload.Config{Backend: backend, Fs: fs, Concurrency: 3})

	result, err := uploader.StoreAll(context.Background(), "p", "/doc")
	if err != nil {
		t.Fatalf("StoreAll: %v", err)
	}
	if len(result.Files) != len(files) {
		t.Errorf("stored %d files, want %d", len(result.Files), len(files))
	}
	if peak := backend.peak.Load(); peak > 3 {
		t.Errorf("peak concurrent puts = %d, want at most 3", peak)
	}
}

func TestStoreAllCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, "/doc", map[string]string{"index.html": indexHTML})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uploader := newUploader(t, upload.Config{Backend: storage.NewMemory(), Fs: fs})
	if _, err := uploader.StoreAll(ctx, "p", "/doc"); !errors.Is(err, context.Canceled) {
		t.Errorf("StoreAll error = %v, want context.Canceled", err)
	}
}

func TestStoreAllSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	testutil.WriteTree(t, afero.NewOsFs(), root, map[string]string{"index.html": indexHTML})
	testutil.WriteTree(t, afero.NewOsFs(), outside, map[string]string{"secret.txt": "secret"})
	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "linked-dir")); err != nil {
		t.Fatal(err)
	}

	backend := storage.NewMemory()
	uploader := newUploader(t, upload.Config{Backend: backend})
	result, err := uploader.StoreAll(context.Background(), "p", root)
	if err != nil {
		t.Fatalf("StoreAll: %v", err)
	}

	if got := paths(result.Files); !slices.Equal(got, []string{"index.html"}) {
		t.Errorf("stored files = %v, want only index.html", got)
	}
	if got := backend.Keys(); !slices.Equal(got, []string{"p/index.html"}) {
		t.Errorf("stored keys = %v", got)
	}
}

func TestStoreAllSymlinkedRoot(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "target", "doc")
	testutil.WriteTree(t, afero.NewOsFs(), target, map[string]string{
		"index.html":      indexHTML,
		"search-index.js": strings.Repeat("searchIndex[\"crate\"] = {};\n", 50),
	})

	// doc -> latest -> target/doc, with a relative second hop.
	latest := filepath.Join(directory, "latest")
	if err := os.Symlink(filepath.Join("target", "doc"), latest); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	link := filepath.Join(directory, "doc")
	if err := os.Symlink(latest, link); err != nil {
		t.Fatal(err)
	}

	backend := storage.NewMemory()
	uploader := newUploader(t, upload.Config{Backend: backend})
	result, err := uploader.StoreAll(context.Background(), "crate-1.0.0", link)
	if err != nil {
		t.Fatalf("StoreAll: %v", err)
	}

	want := []upload.FileRecord{
		{Path: "index.html", MimeType: "text/html"},
		{Path: "search-index.js", MimeType: "application/javascript"},
	}
	if !slices.Equal(result.Files, want) {
		t.Errorf("Files = %v, want %v", result.Files, want)
	}
	wantKeys := []string{"crate-1.0.0/index.html", "crate-1.0.0/search-index.js"}
	if got := backend.Keys(); !slices.Equal(got, wantKeys) {
		t.Errorf("stored keys = %v, want %v", got, wantKeys)
	}
}

func TestStoreAllDanglingRootLink(t *testing.T) {
	directory := t.TempDir()
	link := filepath.Join(directory, "doc")
	if err := os.Symlink(filepath.Join(directory, "missing"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	uploader := newUploader(t, upload.Config{Backend: storage.NewMemory()})
	_, err := uploader.StoreAll(context.Background(), "p", link)
	var sourceErr *upload.SourceReadError
	if !errors.As(err, &sourceErr) {
		t.Fatalf("StoreAll error = %v, want *SourceReadError", err)
	}
	if sourceErr.Path != link {
		t.Errorf("SourceReadError.Path = %q, want %q", sourceErr.Path, link)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := upload.New(upload.Config{}); err == nil {
		t.Error("New without a backend should fail")
	}
	if _, err := upload.New(upload.Config{Backend: storage.NewMemory(), MaxFileSize: -1}); err == nil {
		t.Error("New with a negative max file size should fail")
	}
	bad := compression.Policy{Text: compression.Tag(200)}
	if _, err := upload.New(upload.Config{Backend: storage.NewMemory(), Policy: &bad}); err == nil {
		t.Error("New with an invalid policy should fail")
	}
}

func TestUncompressedPolicy(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteTree(t, fs, "/doc", map[string]string{"index.html": indexHTML})

	policy := compression.Policy{Text: compression.None}
	backend := storage.NewMemory()
	uploader := newUploader(t, upload.Config{Backend: backend, Fs: fs, Policy: &policy})

	result, err := uploader.StoreAll(context.Background(), "p", "/doc")
	if err != nil {
		t.Fatalf("StoreAll: %v", err)
	}
	if result.Algorithms.Len() != 0 {
		t.Errorf("Algorithms = %s, want none", result.Algorithms)
	}
	object, _ := backend.Get("p/index.html")
	if string(object.Data) != indexHTML {
		t.Error("uncompressed policy should store the file bytes unchanged")
	}
}
