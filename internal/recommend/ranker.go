// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/catalog"
	"github.com/tomtom215/wayfinder/internal/preference"
)

// Ranker orders catalog businesses for a query. It reads whichever catalog
// snapshot is live when Rank starts and uses it for the whole call.
type Ranker struct {
	holder *catalog.Holder
	config *Config
	logger zerolog.Logger
}

// NewRanker creates a Ranker over holder.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRanker(holder *catalog.Holder, cfg *Config, logger zerolog.Logger) (*Ranker, error) {
	if holder == nil {
		return nil, fmt.Errorf("catalog holder is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Ranker{
		holder: holder,
		config: cfg.Clone(),
		logger: logger.With().Str("component", "ranker").Logger(),
	}, nil
}

// Config returns a copy of the ranker configuration.
func (r *Ranker) Config() *Config {
	return r.config.Clone()
}

// PreferenceBias returns the score adjustment for a business with the given
// categories: +epsilon per liked category, -epsilon per disliked category.
// A category present in both sets contributes zero.
func PreferenceBias(categories []string, prefs preference.Set, epsilon float64) float64 {
	bias := 0.0
	for _, c := range categories {
		if prefs.Liked.Has(c) {
			bias += epsilon
		}
		if prefs.Disliked.Has(c) {
			bias -= epsilon
		}
	}
	return bias
}

// Rank returns candidates within the radius, biased by prefs and sorted by
// score, distance and business ID.
//
// It fails with *LocationUnresolvedError when req.Center is not a usable
// coordinate and with *EmptyResultError when the catalog has businesses but
// none inside the radius. A query whose candidates all fall below the
// similarity cutoff, or an empty catalog, yields an empty slice and no error.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (r *Ranker) Rank(ctx context.Context, req RankRequest, prefs preference.Set) ([]RankedCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Center.Valid() {
		return nil, &LocationUnresolvedError{}
	}

	radius := req.RadiusKm
	if radius <= 0 {
		radius = r.config.RadiusKm
	}
	k := req.K
	if k <= 0 {
		k = r.config.TopK
	}

	idx := r.holder.Current()
	if idx.Len() == 0 {
		r.logger.Warn().Msg("Ranking against an empty catalog")
		return []RankedCandidate{}, nil
	}

	hits, nearby, err := idx.QueryWithin(req.Vector, k, req.Center, radius)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	if nearby == 0 {
		return nil, &EmptyResultError{Center: req.Center, RadiusKm: radius}
	}

	out := make([]RankedCandidate, 0, len(hits))
	for _, h := range hits {
		if r.config.minSimilarityEnabled() && h.Similarity < r.config.MinSimilarity {
			continue
		}
		rec := idx.RecordFor(h)
		var categories []string
		if rec != nil {
			categories = rec.Categories
		}
		out = append(out, RankedCandidate{
			BusinessID: h.BusinessID,
			Similarity: h.Similarity,
			Score:      h.Similarity + PreferenceBias(categories, prefs, r.config.PreferenceEpsilon),
			DistanceKm: h.DistanceKm,
			Record:     rec,
		})
	}

	SortCandidates(out)

	r.logger.Debug().
		Int("nearby", nearby).
		Int("hits", len(hits)).
		Int("ranked", len(out)).
		Float64("radius_km", radius).
		Msg("Ranked candidates")

	return out, nil
}

// SortCandidates orders candidates by score descending, distance ascending,
// then business ID ascending.
func SortCandidates(c []RankedCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Score != c[j].Score {
			return c[i].Score > c[j].Score
		}
		if c[i].DistanceKm != c[j].DistanceKm {
			return c[i].DistanceKm < c[j].DistanceKm
		}
		return c[i].BusinessID < c[j].BusinessID
	})
}
