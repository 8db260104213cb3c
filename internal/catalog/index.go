// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/geo"
	"github.com/tomtom215/wayfinder/internal/vector"
)

// DefaultGridCellKm is the spatial grid cell size used when BuildOptions leaves it unset.
const DefaultGridCellKm = 5.0

// Skip reasons reported in BuildStats and metrics.
const (
	SkipDegenerate = "degenerate_embedding"
	SkipDimension  = "dimension_mismatch"
	SkipDuplicate  = "duplicate_id"
	SkipInvalid    = "invalid_row"
)

// BuildOptions configures Build.
type BuildOptions struct {
	// Dimension fixes the embedding dimension. Zero takes the dimension of
	// the first usable record.
	Dimension int

	// GridCellKm is the spatial grid cell size.
	GridCellKm float64
}

// BuildStats summarizes a build.
type BuildStats struct {
	Input   int
	Indexed int
	Skipped map[string]int
}

// Hit is one nearest-neighbor result.
type Hit struct {
	BusinessID string
	Similarity float64

	// DistanceKm is set by QueryWithin; Query leaves it at zero.
	DistanceKm float64

	pos int
}

// Index is an exact nearest-neighbor index over normalized business
// embeddings. It is immutable after Build and safe for concurrent readers.
type Index struct {
	records []BusinessRecord
	vectors []vector.Normalized
	byID    map[string]int
	grid    *geo.Grid
	dim     int
	builtAt time.Time
}

// Build normalizes every record's embedding and indexes the usable ones.
// Records with degenerate or wrong-dimension embeddings and repeated IDs are
// skipped and counted; a build never fails.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Build(records []BusinessRecord, opts BuildOptions, logger zerolog.Logger) (*Index, BuildStats) {
	stats := BuildStats{Input: len(records), Skipped: make(map[string]int)}

	idx := &Index{
		records: make([]BusinessRecord, 0, len(records)),
		vectors: make([]vector.Normalized, 0, len(records)),
		byID:    make(map[string]int, len(records)),
		dim:     opts.Dimension,
		builtAt: time.Now(),
	}

	for i := range records {
		rec := records[i]

		if _, dup := idx.byID[rec.ID]; dup {
			stats.Skipped[SkipDuplicate]++
			logger.Debug().Str("business_id", rec.ID).Msg("Skipping duplicate catalog record")
			continue
		}

		if idx.dim != 0 && len(rec.Embedding) != idx.dim {
			stats.Skipped[SkipDimension]++
			logger.Debug().
				Str("business_id", rec.ID).
				Int("dimension", len(rec.Embedding)).
				Int("want", idx.dim).
				Msg("Skipping catalog record with wrong embedding dimension")
			continue
		}

		nv, err := vector.Normalize(rec.Embedding)
		if err != nil {
			stats.Skipped[SkipDegenerate]++
			logger.Debug().Err(err).Str("business_id", rec.ID).Msg("Skipping catalog record with degenerate embedding")
			continue
		}

		if idx.dim == 0 {
			idx.dim = nv.Dim()
		}
		idx.byID[rec.ID] = len(idx.records)
		idx.records = append(idx.records, rec)
		idx.vectors = append(idx.vectors, nv)
	}

	cellKm := opts.GridCellKm
	if cellKm <= 0 {
		cellKm = DefaultGridCellKm
	}
	points := make([]geo.Point, len(idx.records))
	for i := range idx.records {
		points[i] = idx.records[i].Location
	}
	idx.grid = geo.NewGrid(points, cellKm)

	stats.Indexed = len(idx.records)
	return idx, stats
}

// Len returns the number of indexed records.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.records)
}

// Dimension returns the embedding dimension, or zero for an empty index.
func (idx *Index) Dimension() int {
	if idx == nil {
		return 0
	}
	return idx.dim
}

// BuiltAt returns when the index was built.
func (idx *Index) BuiltAt() time.Time {
	return idx.builtAt
}

// Record returns the record with the given ID.
func (idx *Index) Record(id string) (*BusinessRecord, bool) {
	if idx == nil {
		return nil, false
	}
	pos, ok := idx.byID[id]
	if !ok {
		return nil, false
	}
	return &idx.records[pos], true
}

// RecordFor returns the record behind a hit produced by this index.
func (idx *Index) RecordFor(h Hit) *BusinessRecord {
	if h.pos >= 0 && h.pos < len(idx.records) && idx.records[h.pos].ID == h.BusinessID {
		return &idx.records[h.pos]
	}
	rec, _ := idx.Record(h.BusinessID)
	return rec
}

// Records calls fn for every indexed record in index order until fn returns false.
func (idx *Index) Records(fn func(*BusinessRecord) bool) {
	if idx == nil {
		return
	}
	for i := range idx.records {
		if !fn(&idx.records[i]) {
			return
		}
	}
}

// ErrQueryDimension is returned when a query vector's dimension differs from the index.
var ErrQueryDimension = errors.New("query dimension does not match catalog")

func (idx *Index) checkQuery(q vector.Normalized) error {
	if q.IsZero() {
		return fmt.Errorf("%w: zero query vector", vector.ErrDegenerateVector)
	}
	if idx.Len() > 0 && q.Dim() != idx.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrQueryDimension, q.Dim(), idx.dim)
	}
	return nil
}

// Query returns the k records most similar to q, ordered by similarity
// descending and business ID ascending. k is clamped to the catalog size;
// k <= 0 yields no hits.
func (idx *Index) Query(q vector.Normalized, k int) ([]Hit, error) {
	if err := idx.checkQuery(q); err != nil {
		return nil, err
	}
	n := idx.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	top := newTopK(k)
	for pos := range idx.vectors {
		top.offer(Hit{
			BusinessID: idx.records[pos].ID,
			Similarity: vector.CosineSimilarity(q, idx.vectors[pos]),
			pos:        pos,
		})
	}
	return top.sorted(), nil
}

// QueryWithin is Query restricted to records within radiusKm of center.
// Each hit carries its distance from center. Records without coordinates
// never match. The second return value is the number of records that
// passed the radius filter before the top-k cut.
func (idx *Index) QueryWithin(q vector.Normalized, k int, center geo.Point, radiusKm float64) ([]Hit, int, error) {
	if err := idx.checkQuery(q); err != nil {
		return nil, 0, err
	}
	if idx.Len() == 0 {
		return []Hit{}, 0, nil
	}

	nearby := idx.grid.WithinRadius(center, radiusKm)
	if k > len(nearby) {
		k = len(nearby)
	}
	if k <= 0 {
		return []Hit{}, len(nearby), nil
	}

	top := newTopK(k)
	for _, nb := range nearby {
		top.offer(Hit{
			BusinessID: idx.records[nb.Pos].ID,
			Similarity: vector.CosineSimilarity(q, idx.vectors[nb.Pos]),
			DistanceKm: nb.DistanceKm,
			pos:        nb.Pos,
		})
	}
	return top.sorted(), len(nearby), nil
}
