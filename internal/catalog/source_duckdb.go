// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/rs/zerolog"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// OpenDuckDB opens a DuckDB database for catalog reads. An empty path or
// ":memory:" opens an in-memory database.
func OpenDuckDB(path string) (*sql.DB, error) {
	var connStr string
	if path != "" && path != ":memory:" {
		connStr = path + "?access_mode=read_only&autoinstall_known_extensions=false&autoload_known_extensions=false"
	}

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to duckdb catalog: %w", err)
	}
	return db, nil
}

// DuckDBSource reads business rows from a DuckDB table with the columns
// business_id, name, categories, city, state, latitude, longitude, stars,
// embedding and attributes_text. The embedding column may be a FLOAT list or
// a VARCHAR holding a JSON array.
type DuckDBSource struct {
	db     *sql.DB
	table  string
	logger zerolog.Logger
}

// NewDuckDBSource creates a source over table. The table name may be
// schema-qualified.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewDuckDBSource(db *sql.DB, table string, logger zerolog.Logger) (*DuckDBSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}
	return &DuckDBSource{
		db:     db,
		table:  table,
		logger: logger.With().Str("component", "catalog_duckdb").Logger(),
	}, nil
}

// Name implements Source.
func (s *DuckDBSource) Name() string {
	return "duckdb:" + s.table
}

// Load implements Source. Rows that fail decoding or validation are skipped
// and logged.
func (s *DuckDBSource) Load(ctx context.Context) ([]BusinessRecord, error) {
	//nolint:gosec // table name is validated against tableNamePattern
	query := fmt.Sprintf(`SELECT
		CAST(business_id AS VARCHAR),
		COALESCE(name, ''),
		COALESCE(categories, ''),
		COALESCE(city, ''),
		COALESCE(state, ''),
		CAST(latitude AS DOUBLE),
		CAST(longitude AS DOUBLE),
		CAST(stars AS DOUBLE),
		embedding,
		COALESCE(attributes_text, '')
	FROM %s
	ORDER BY business_id`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	var records []BusinessRecord
	for rows.Next() {
		var (
			row            Row
			lat, lon, star sql.NullFloat64
			embedding      any
		)
		if err := rows.Scan(&row.ID, &row.Name, &row.Categories, &row.City, &row.State,
			&lat, &lon, &star, &embedding, &row.AttributesText); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}

		row.Latitude = nullableFloat(lat)
		row.Longitude = nullableFloat(lon)
		row.Stars = nullableFloat(star)

		row.Embedding, err = embeddingFromColumn(embedding)
		if err != nil {
			s.logger.Warn().Err(err).Str("business_id", row.ID).Msg("Skipping row with undecodable embedding")
			recordSkip(SkipInvalid)
			continue
		}

		rec, err := row.ToRecord()
		if err != nil {
			s.logger.Warn().Err(err).Str("business_id", row.ID).Msg("Skipping invalid catalog row")
			recordSkip(SkipInvalid)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}

	return records, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// embeddingFromColumn converts a scanned DuckDB value to a float vector.
func embeddingFromColumn(v any) ([]float32, error) {
	switch e := v.(type) {
	case nil:
		return nil, nil
	case string:
		return ParseEmbedding([]byte(e))
	case []byte:
		return ParseEmbedding(e)
	case []float32:
		return e, nil
	case []float64:
		out := make([]float32, len(e))
		for i, x := range e {
			out[i] = float32(x)
		}
		return out, nil
	case []any:
		out := make([]float32, len(e))
		for i, x := range e {
			switch f := x.(type) {
			case float32:
				out[i] = f
			case float64:
				out[i] = float32(f)
			default:
				return nil, fmt.Errorf("embedding element %d has type %T", i, x)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported embedding column type %T", v)
	}
}
