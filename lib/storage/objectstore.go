// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bureau-foundation/docstore/lib/compression"
)

// Object metadata keys written alongside every S3 object. S3 returns
// them lowercased with an x-amz-meta- prefix.
const (
	MetadataHash        = "blake3"
	MetadataSize        = "uncompressed-size"
	MetadataCompression = "compression"
)

// PutObjectAPI is the subset of *s3.Client the backend uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore stores objects in an S3 bucket.
type ObjectStore struct {
	client PutObjectAPI
	bucket string
	logger *slog.Logger
}

// ObjectStoreConfig holds the parameters for [OpenObjectStore].
type ObjectStoreConfig struct {
	Bucket string
	Region string

	// Endpoint overrides the AWS endpoint for S3-compatible stores.
	Endpoint string

	// PathStyle selects endpoint/bucket/key addressing.
	PathStyle bool

	Logger *slog.Logger
}

// OpenObjectStore builds an S3 client from the SDK default credential
// chain and returns a backend writing to cfg.Bucket. The bucket must
// already exist.
func OpenObjectStore(ctx context.Context, cfg ObjectStoreConfig) (*ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(options *s3.Options) {
		if cfg.Endpoint != "" {
			options.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		options.UsePathStyle = cfg.PathStyle
	})

	backend := NewObjectStore(client, cfg.Bucket, cfg.Logger)
	backend.logger.Info("s3 backend opened",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
	)
	return backend, nil
}

// NewObjectStore returns a backend writing to bucket through client.
// A nil logger discards.
func NewObjectStore(client PutObjectAPI, bucket string, logger *slog.Logger) *ObjectStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ObjectStore{client: client, bucket: bucket, logger: logger}
}

// Put writes object to the bucket. The algorithm name is always
// recorded under MetadataCompression. Content-Encoding is set only
// for codings HTTP clients can decode themselves.
func (o *ObjectStore) Put(ctx context.Context, object Object) error {
	if err := object.validate(); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(o.bucket),
		Key:           aws.String(object.Key),
		Body:          bytes.NewReader(object.Data),
		ContentLength: aws.Int64(int64(len(object.Data))),
		ContentType:   aws.String(object.MimeType),
		Metadata: map[string]string{
			MetadataHash:        object.Hash.String(),
			MetadataSize:        strconv.FormatInt(object.Size, 10),
			MetadataCompression: object.Compression.String(),
		},
	}
	if encoding, ok := contentEncoding(object.Compression); ok {
		input.ContentEncoding = aws.String(encoding)
	}

	if _, err := o.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put %s: %w", object.Key, err)
	}

	o.logger.Debug("object stored",
		"backend", KindObjectStore,
		"bucket", o.bucket,
		"key", object.Key,
		"bytes", len(object.Data),
	)
	return nil
}

// contentEncoding maps a tag to its registered HTTP content-coding.
// LZ4 has none, so it is carried in metadata only.
func contentEncoding(tag compression.Tag) (string, bool) {
	switch tag {
	case compression.Gzip, compression.Zstd:
		return tag.String(), true
	default:
		return "", false
	}
}

// Kind returns KindObjectStore.
func (o *ObjectStore) Kind() Kind { return KindObjectStore }

// Close is a no-op; the S3 client holds no resources that need
// releasing.
func (o *ObjectStore) Close() error { return nil }
