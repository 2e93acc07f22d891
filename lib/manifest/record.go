// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bureau-foundation/docstore/lib/codec"
	"github.com/bureau-foundation/docstore/lib/compression"
)

// Record is the result of one batch.
type Record struct {
	Prefix      string          `json:"prefix"`
	Files       Manifest        `json:"files"`
	Compression compression.Set `json:"compression"`
}

// Format selects a Record encoding.
type Format string

const (
	// FormatJSON encodes compression as an array of algorithm names.
	FormatJSON Format = "json"

	// FormatCBOR uses Core Deterministic Encoding. Compression is the
	// raw bitset integer.
	FormatCBOR Format = "cbor"

	// FormatDiagnostic is the CBOR encoding rendered in RFC 8949
	// diagnostic notation, for reading binary records by eye.
	// Encode-only.
	FormatDiagnostic Format = "cbor-diag"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatCBOR, FormatDiagnostic:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown record format %q (want json, cbor, or cbor-diag)", name)
	}
}

// Encode writes the record to w. JSON output is indented and ends
// with a newline.
func (r Record) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("encoding record as json: %w", err)
		}
		return nil
	case FormatCBOR:
		if err := codec.NewEncoder(w).Encode(r); err != nil {
			return fmt.Errorf("encoding record as cbor: %w", err)
		}
		return nil
	case FormatDiagnostic:
		data, err := codec.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding record as cbor: %w", err)
		}
		diagnostic, err := codec.Diagnose(data)
		if err != nil {
			return fmt.Errorf("rendering cbor diagnostic: %w", err)
		}
		if _, err := fmt.Fprintln(w, diagnostic); err != nil {
			return fmt.Errorf("writing cbor diagnostic: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown record format %q", format)
	}
}

// DecodeRecord parses a record written by [Record.Encode].
func DecodeRecord(data []byte, format Format) (Record, error) {
	var record Record
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &record); err != nil {
			return Record{}, fmt.Errorf("decoding json record: %w", err)
		}
	case FormatCBOR:
		if err := codec.Unmarshal(data, &record); err != nil {
			return Record{}, fmt.Errorf("decoding cbor record: %w", err)
		}
	default:
		return Record{}, fmt.Errorf("unknown record format %q", format)
	}
	return record, nil
}
