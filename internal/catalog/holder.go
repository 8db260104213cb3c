// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/metrics"
)

// Source reads the full set of catalog records. Sources are read-only.
type Source interface {
	Load(ctx context.Context) ([]BusinessRecord, error)
	Name() string
}

// Holder publishes the live Index. Readers call Current once per request and
// keep that snapshot; a concurrent Swap never affects a snapshot in use.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder returns a Holder serving an empty index until the first Swap.
func NewHolder() *Holder {
	h := &Holder{}
	empty, _ := Build(nil, BuildOptions{}, zerolog.Nop())
	h.current.Store(empty)
	return h
}

// Current returns the live snapshot. It is never nil.
func (h *Holder) Current() *Index {
	return h.current.Load()
}

// Swap replaces the live snapshot and returns the previous one.
func (h *Holder) Swap(idx *Index) *Index {
	if idx == nil {
		return h.current.Load()
	}
	return h.current.Swap(idx)
}

// ErrEmptyCatalog is returned by Refresh when a source yields no usable record
// and the Holder already serves a non-empty catalog.
var ErrEmptyCatalog = errors.New("catalog source produced no usable records")

// Refresher rebuilds the Holder's index from a Source.
type Refresher struct {
	source Source
	holder *Holder
	opts   BuildOptions
	logger zerolog.Logger

	mu sync.Mutex // serializes refreshes
}

// NewRefresher creates a Refresher.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRefresher(source Source, holder *Holder, opts BuildOptions, logger zerolog.Logger) *Refresher {
	return &Refresher{
		source: source,
		holder: holder,
		opts:   opts,
		logger: logger.With().Str("component", "catalog").Str("source", source.Name()).Logger(),
	}
}

// recordSkip counts a row rejected by a source before it reaches Build.
func recordSkip(reason string) {
	metrics.CatalogSkipped.WithLabelValues(reason).Inc()
}

// Refresh loads the source, builds a new index and swaps it in. On failure
// the previous snapshot stays live.
func (r *Refresher) Refresh(ctx context.Context) (BuildStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()

	records, err := r.source.Load(ctx)
	if err != nil {
		metrics.RecordCatalogRefresh(0, nil, time.Since(start), err)
		return BuildStats{}, fmt.Errorf("load catalog from %s: %w", r.source.Name(), err)
	}

	opts := r.opts
	if opts.Dimension == 0 {
		opts.Dimension = r.holder.Current().Dimension()
	}

	idx, stats := Build(records, opts, r.logger)
	if idx.Len() == 0 && r.holder.Current().Len() > 0 {
		metrics.RecordCatalogRefresh(0, nil, time.Since(start), ErrEmptyCatalog)
		return stats, ErrEmptyCatalog
	}

	previous := r.holder.Swap(idx)
	metrics.RecordCatalogRefresh(idx.Len(), stats.Skipped, time.Since(start), nil)

	r.logger.Info().
		Int("records", stats.Indexed).
		Int("input", stats.Input).
		Interface("skipped", stats.Skipped).
		Int("previous", previous.Len()).
		Int("dimension", idx.Dimension()).
		Dur("duration", time.Since(start)).
		Msg("Catalog rebuilt")

	return stats, nil
}
