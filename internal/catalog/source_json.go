// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// maxLineBytes bounds a single JSON-lines record (384 floats fit comfortably).
const maxLineBytes = 4 << 20

// jsonRow mirrors Row but accepts the embedding and categories in either
// their native JSON form or as JSON-encoded strings, as exported by the
// warehouse.
type jsonRow struct {
	ID             string          `json:"business_id"`
	Name           string          `json:"name"`
	Categories     json.RawMessage `json:"categories"`
	City           string          `json:"city"`
	State          string          `json:"state"`
	Latitude       *float64        `json:"latitude"`
	Longitude      *float64        `json:"longitude"`
	Stars          *float64        `json:"stars"`
	Embedding      json.RawMessage `json:"embedding"`
	AttributesText string          `json:"attributes_text"`
}

func (jr *jsonRow) toRow() (Row, error) {
	emb, err := ParseEmbedding(jr.Embedding)
	if err != nil {
		return Row{}, fmt.Errorf("row %q: embedding: %w", jr.ID, err)
	}
	cats, err := parseCategoriesJSON(jr.Categories)
	if err != nil {
		return Row{}, fmt.Errorf("row %q: categories: %w", jr.ID, err)
	}
	return Row{
		ID:             jr.ID,
		Name:           jr.Name,
		Categories:     cats,
		City:           jr.City,
		State:          jr.State,
		Latitude:       jr.Latitude,
		Longitude:      jr.Longitude,
		Stars:          jr.Stars,
		Embedding:      emb,
		AttributesText: jr.AttributesText,
	}, nil
}

// ParseEmbedding decodes an embedding given as a JSON array of numbers or as
// a JSON string containing such an array.
func ParseEmbedding(raw []byte) ([]float32, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		raw = []byte(s)
	}
	var out []float32
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// parseCategoriesJSON accepts "a, b" or ["a", "b"] and returns "a, b".
func parseCategoriesJSON(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '[' {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return "", err
		}
		return strings.Join(list, ","), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

// JSONSource reads records from a JSON array file or a JSON-lines file.
type JSONSource struct {
	path   string
	logger zerolog.Logger
}

// NewJSONSource creates a source for path. Files whose first non-space byte
// is '[' are read as an array; anything else is read as JSON lines.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewJSONSource(path string, logger zerolog.Logger) *JSONSource {
	return &JSONSource{path: path, logger: logger.With().Str("component", "catalog_json").Logger()}
}

// Name implements Source.
func (s *JSONSource) Name() string {
	return "json:" + s.path
}

// Load implements Source. Rows that fail decoding or validation are skipped
// and logged.
func (s *JSONSource) Load(ctx context.Context) ([]BusinessRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []jsonRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.path, err)
		}
		return s.convert(ctx, rows)
	}

	var rows []jsonRow
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		var jr jsonRow
		if err := json.Unmarshal(b, &jr); err != nil {
			s.logger.Warn().Err(err).Int("line", line).Msg("Skipping undecodable catalog line")
			recordSkip(SkipInvalid)
			continue
		}
		rows = append(rows, jr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.path, err)
	}

	return s.convert(ctx, rows)
}

func (s *JSONSource) convert(ctx context.Context, rows []jsonRow) ([]BusinessRecord, error) {
	records := make([]BusinessRecord, 0, len(rows))
	for i := range rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := rows[i].toRow()
		if err == nil {
			var rec BusinessRecord
			rec, err = row.ToRecord()
			if err == nil {
				records = append(records, rec)
				continue
			}
		}
		s.logger.Warn().Err(err).Str("business_id", rows[i].ID).Msg("Skipping invalid catalog row")
		recordSkip(SkipInvalid)
	}
	return records, nil
}
