// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/docstore/lib/compression"
	"github.com/bureau-foundation/docstore/lib/mimetype"
	"github.com/bureau-foundation/docstore/lib/storage"
)

// DefaultConcurrency is the number of in-flight writes when
// Config.Concurrency is zero.
const DefaultConcurrency = 8

// Config configures an [Uploader].
type Config struct {
	// Backend receives every object. Required.
	Backend storage.Backend

	// Fs is the filesystem the scan root is read from. Nil uses the
	// operating system filesystem.
	Fs afero.Fs

	// Policy chooses the compression algorithm per file. Nil uses
	// compression.DefaultPolicy().
	Policy *compression.Policy

	// Concurrency bounds the number of files read, compressed, and
	// written at once. Zero or negative uses DefaultConcurrency.
	Concurrency int

	// MaxFileSize rejects any file larger than this many bytes with
	// a SourceReadError. Zero means unlimited.
	MaxFileSize int64

	// Logger receives one Info record per batch and one Debug record
	// per object. Nil discards.
	Logger *slog.Logger
}

// FileRecord describes one stored file.
type FileRecord struct {
	// Path is slash-separated and relative to the scan root. It is
	// taken from the filesystem unmodified, so it is not guaranteed
	// to be valid UTF-8.
	Path string

	MimeType string
}

// Result is the outcome of a successful batch.
type Result struct {
	// Files lists every stored file in walk order.
	Files []FileRecord

	// Algorithms is the set of compression algorithms applied to at
	// least one object. Uncompressed objects contribute nothing.
	Algorithms compression.Set
}

// Uploader stores directory trees into a backend. It is safe for
// concurrent use; each StoreAll call is an independent batch.
type Uploader struct {
	backend     storage.Backend
	fs          afero.Fs
	policy      compression.Policy
	concurrency int
	maxFileSize int64
	logger      *slog.Logger
}

// New validates cfg and returns an Uploader.
func New(cfg Config) (*Uploader, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("upload: backend is required")
	}
	if cfg.MaxFileSize < 0 {
		return nil, fmt.Errorf("upload: max file size must not be negative, got %d", cfg.MaxFileSize)
	}

	policy := compression.DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	uploader := &Uploader{
		backend:     cfg.Backend,
		fs:          cfg.Fs,
		policy:      policy,
		concurrency: cfg.Concurrency,
		maxFileSize: cfg.MaxFileSize,
		logger:      cfg.Logger,
	}
	if uploader.fs == nil {
		uploader.fs = afero.NewOsFs()
	}
	if uploader.concurrency <= 0 {
		uploader.concurrency = DefaultConcurrency
	}
	if uploader.logger == nil {
		uploader.logger = slog.New(slog.DiscardHandler)
	}
	return uploader, nil
}

// Key returns the storage key for a file at relativePath under prefix.
// Leading and trailing slashes on prefix are ignored; an empty prefix
// yields the relative path itself.
func Key(prefix, relativePath string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return relativePath
	}
	return prefix + "/" + relativePath
}

// source is a regular file discovered by the walk.
type source struct {
	path     string
	relative string
	size     int64
}

// StoreAll stores every regular file beneath root under prefix.
//
// The root must be an existing directory. If root is itself a
// symbolic link it is resolved first. Beneath the root, symbolic
// links, devices, sockets, and other non-regular entries are skipped,
// including links to directories. The first failure cancels the remaining writes and
// is returned as a *SourceReadError or *BackendWriteError.
func (u *Uploader) StoreAll(ctx context.Context, prefix, root string) (Result, error) {
	sources, err := u.walk(root)
	if err != nil {
		return Result{}, err
	}

	files := make([]FileRecord, len(sources))
	tags := make([]compression.Tag, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(u.concurrency)
	for index, src := range sources {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			record, tag, err := u.store(groupCtx, prefix, src)
			if err != nil {
				return err
			}
			files[index] = record
			tags[index] = tag
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	var algorithms compression.Set
	for _, tag := range tags {
		algorithms = algorithms.Add(tag)
	}

	u.logger.Info("batch stored",
		"prefix", prefix,
		"root", root,
		"files", len(files),
		"compression", algorithms.String(),
		"backend", u.backend.Kind(),
	)
	return Result{Files: files, Algorithms: algorithms}, nil
}

// walk lists the regular files beneath root. afero.Walk visits
// entries in lexical order and does not follow symbolic links, so the
// root is resolved before walking.
func (u *Uploader) walk(requested string) ([]source, error) {
	root, err := resolveRoot(u.fs, requested)
	if err != nil {
		return nil, &SourceReadError{Path: requested, Err: err}
	}
	info, err := u.fs.Stat(root)
	if err != nil {
		return nil, &SourceReadError{Path: requested, Err: err}
	}
	if !info.IsDir() {
		return nil, &SourceReadError{Path: requested, Err: fmt.Errorf("not a directory")}
	}

	var sources []source
	err = afero.Walk(u.fs, root, func(filePath string, info fs.FileInfo, err error) error {
		if err != nil {
			return &SourceReadError{Path: filePath, Err: err}
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		relative, err := filepath.Rel(root, filePath)
		if err != nil {
			return &SourceReadError{Path: filePath, Err: err}
		}
		sources = append(sources, source{
			path:     filePath,
			relative: filepath.ToSlash(relative),
			size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// maxSymlinkHops matches the Linux ELOOP limit.
const maxSymlinkHops = 40

// resolveRoot follows symbolic links at root until it names a
// non-link. On the OS filesystem every link in the path is resolved.
// Filesystems without link support return root unchanged.
func resolveRoot(fsys afero.Fs, root string) (string, error) {
	if _, ok := fsys.(*afero.OsFs); ok {
		return filepath.EvalSymlinks(root)
	}

	lstater, canLstat := fsys.(afero.Lstater)
	reader, canReadLink := fsys.(afero.LinkReader)
	if !canLstat || !canReadLink {
		return root, nil
	}

	current := root
	for range maxSymlinkHops {
		info, _, err := lstater.LstatIfPossible(current)
		if err != nil {
			return "", err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			return current, nil
		}
		target, err := reader.ReadlinkIfPossible(current)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = target
	}
	return "", fmt.Errorf("too many levels of symbolic links")
}

// store reads, compresses, and writes one file.
func (u *Uploader) store(ctx context.Context, prefix string, src source) (FileRecord, compression.Tag, error) {
	if u.maxFileSize > 0 && src.size > u.maxFileSize {
		return FileRecord{}, 0, &SourceReadError{Path: src.path, Err: ErrFileTooLarge}
	}

	data, err := u.read(src.path)
	if err != nil {
		return FileRecord{}, 0, err
	}

	mediaType := mimetype.Detect(src.relative, data)
	stored, tag, err := u.policy.Apply(mediaType, data)
	if err != nil {
		return FileRecord{}, 0, fmt.Errorf("upload: compressing %s: %w", src.path, err)
	}

	key := Key(prefix, src.relative)
	object := storage.Object{
		Key:         key,
		Data:        stored,
		MimeType:    mediaType,
		Compression: tag,
		Size:        int64(len(data)),
		Hash:        storage.Hash(blake3.Sum256(data)),
	}
	if err := u.backend.Put(ctx, object); err != nil {
		return FileRecord{}, 0, &BackendWriteError{Key: key, Err: err}
	}

	u.logger.Debug("file stored",
		"key", key,
		"mimetype", mediaType,
		"compression", tag,
		"size", len(data),
		"stored_size", len(stored),
	)
	return FileRecord{Path: src.relative, MimeType: mediaType}, tag, nil
}

// read returns the contents of a file, enforcing MaxFileSize against
// the bytes actually read in case the file grew after the walk.
func (u *Uploader) read(filePath string) ([]byte, error) {
	file, err := u.fs.Open(filePath)
	if err != nil {
		return nil, &SourceReadError{Path: filePath, Err: err}
	}
	defer file.Close()

	var reader io.Reader = file
	if u.maxFileSize > 0 {
		reader = io.LimitReader(file, u.maxFileSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &SourceReadError{Path: filePath, Err: err}
	}
	if u.maxFileSize > 0 && int64(len(data)) > u.maxFileSize {
		return nil, &SourceReadError{Path: filePath, Err: ErrFileTooLarge}
	}
	return data, nil
}
