// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/docstore/lib/clock"
	"github.com/bureau-foundation/docstore/lib/config"
	"github.com/bureau-foundation/docstore/lib/manifest"
	"github.com/bureau-foundation/docstore/lib/storage"
	"github.com/bureau-foundation/docstore/lib/upload"
	"github.com/bureau-foundation/docstore/lib/version"
)

const binaryName = "docstore-add"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		configPath  string
		formatName  string
		concurrency int
		showVersion bool
	)
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "config file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&formatName, "format", string(manifest.FormatJSON), "record output format: json, cbor, or cbor-diag")
	flagSet.IntVar(&concurrency, "concurrency", 0, "maximum parallel writes (overrides upload.concurrency)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  %s [flags] PREFIX DIR\n\nFlags:\n%s", binaryName, flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		version.Fprint(stdout, binaryName)
		return nil
	}

	if flagSet.NArg() != 2 {
		flagSet.Usage()
		return fmt.Errorf("expected PREFIX and DIR, got %d arguments", flagSet.NArg())
	}
	prefix, root := flagSet.Arg(0), flagSet.Arg(1)

	format, err := manifest.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("concurrency") {
		cfg.Upload.Concurrency = concurrency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := cfg.CompressionPolicy()
	if err != nil {
		return err
	}

	logger := newLogger(stderr)

	if cfg.Storage.Backend == config.BackendDatabase {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Database.Path), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	backend, err := storage.Open(ctx, cfg.Storage, clock.Real(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("closing backend", "error", err)
		}
	}()

	uploader, err := upload.New(upload.Config{
		Backend:     backend,
		Policy:      &policy,
		Concurrency: cfg.Upload.Concurrency,
		MaxFileSize: cfg.Upload.MaxFileSize,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	files, algorithms, err := manifest.AddPath(ctx, uploader, prefix, root)
	if err != nil {
		return err
	}

	record := manifest.Record{
		Prefix:      prefix,
		Files:       files,
		Compression: algorithms,
	}
	return record.Encode(stdout, format)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// newLogger writes JSON records at Info level, as every docstore
// binary does.
func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
