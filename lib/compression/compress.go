// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Tag identifies the compression algorithm applied to a stored
// object. Tags are persisted (database column, object metadata) and
// index bits in [Set]; changing the values breaks existing data.
type Tag uint8

const (
	// None indicates the object is stored uncompressed.
	None Tag = 0

	// LZ4 indicates an LZ4 frame. Fast, modest ratio; used for
	// binary content that compresses only slightly.
	LZ4 Tag = 1

	// Zstd indicates a zstd frame at the default level. The usual
	// choice for HTML, JavaScript, CSS, and source text.
	Zstd Tag = 2

	// Gzip indicates a gzip member. Offered for deployments whose
	// retrieval path hands bytes straight to HTTP clients with
	// Content-Encoding: gzip.
	Gzip Tag = 3

	// maxTag is the highest assigned tag. Used to bound [Set].
	maxTag = Gzip
)

// String returns the human-readable name of a tag.
func (tag Tag) String() string {
	switch tag {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	case Gzip:
		return "gzip"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseTag parses a tag from its string representation.
func ParseTag(name string) (Tag, error) {
	switch name {
	case "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	case "gzip":
		return Gzip, nil
	default:
		return 0, fmt.Errorf("unknown compression algorithm: %q", name)
	}
}

// ErrIncompressible is returned by [Compress] when the compressed
// output is not smaller than the input. Callers store the original
// bytes with [None] instead.
var ErrIncompressible = errors.New("data is incompressible")

// ErrSizeLimit is returned by [Decompress] when the decompressed
// output would exceed the caller's limit.
var ErrSizeLimit = errors.New("decompressed size exceeds limit")

// Compress compresses data with the given algorithm. For None the
// input slice is returned unchanged (no copy).
func Compress(data []byte, tag Tag) ([]byte, error) {
	var (
		compressed []byte
		err        error
	)
	switch tag {
	case None:
		return data, nil
	case LZ4:
		compressed, err = compressLZ4(data)
	case Zstd:
		compressed = zstdEncoder.EncodeAll(data, nil)
	case Gzip:
		compressed, err = compressGzip(data)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
	if err != nil {
		return nil, err
	}
	if len(compressed) >= len(data) {
		return nil, ErrIncompressible
	}
	return compressed, nil
}

// Decompress reverses [Compress]. If limit is positive and the output
// would be larger than limit bytes, decompression stops and
// [ErrSizeLimit] is returned.
func Decompress(compressed []byte, tag Tag, limit int64) ([]byte, error) {
	var reader io.Reader
	switch tag {
	case None:
		if limit > 0 && int64(len(compressed)) > limit {
			return nil, ErrSizeLimit
		}
		return compressed, nil

	case LZ4:
		reader = lz4.NewReader(bytes.NewReader(compressed))

	case Zstd:
		decoder, err := zstd.NewReader(bytes.NewReader(compressed), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		defer decoder.Close()
		reader = decoder

	case Gzip:
		gzipReader, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader

	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}

	if limit > 0 {
		reader = io.LimitReader(reader, limit+1)
	}
	output, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", tag, err)
	}
	if limit > 0 && int64(len(output)) > limit {
		return nil, ErrSizeLimit
	}
	return output, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer := lz4.NewWriter(&buffer)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buffer.Bytes(), nil
}

func compressGzip(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buffer, gzip.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	return buffer.Bytes(), nil
}

// zstdEncoder is shared across calls; zstd.Encoder.EncodeAll is safe
// for concurrent use.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("compression: zstd encoder initialization failed: " + err.Error())
	}
}
