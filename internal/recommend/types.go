// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"github.com/tomtom215/wayfinder/internal/catalog"
	"github.com/tomtom215/wayfinder/internal/geo"
	"github.com/tomtom215/wayfinder/internal/vector"
)

// RankedCandidate is one ranked business for a query.
type RankedCandidate struct {
	BusinessID string `json:"business_id"`

	// Similarity is the raw cosine similarity in [-1, 1].
	Similarity float64 `json:"similarity"`

	// Score is Similarity plus the preference bias. Candidates are ordered by it.
	Score float64 `json:"score"`

	DistanceKm float64 `json:"distance_km"`

	// Record is the catalog entry from the snapshot that produced the ranking.
	Record *catalog.BusinessRecord `json:"-"`
}

// Categories returns the candidate's category tags.
func (c *RankedCandidate) Categories() []string {
	if c == nil || c.Record == nil {
		return nil
	}
	return c.Record.Categories
}

// RankRequest is the input to Ranker.Rank.
type RankRequest struct {
	Vector   vector.Normalized
	Center   geo.Point
	RadiusKm float64 // zero uses Config.RadiusKm
	K        int     // zero uses Config.TopK
}

// Query starts a new search in a Session.
type Query struct {
	Text string

	// Vector is the embedding of Text. It is normalized by Search.
	Vector []float32

	Center geo.Point

	// RadiusKm overrides the configured radius when positive.
	RadiusKm float64
}

// Step is the outcome of serving the next candidate.
type Step struct {
	// Candidate is nil when Exhausted is set.
	Candidate *RankedCandidate

	// Exhausted reports that the queue was empty; the caller must search again.
	Exhausted bool
}

// FeedbackResult describes a Like or Dislike.
type FeedbackResult struct {
	// Categories are the categories the feedback applied to, sorted.
	Categories []string

	// Persisted is false when the preference store rejected the write.
	Persisted bool
}

// State is the session state.
type State int

const (
	// AwaitingQuery is the initial state and the state after a Like.
	AwaitingQuery State = iota

	// AwaitingFeedback means a candidate has been served and the session
	// waits for like, dislike or next.
	AwaitingFeedback
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case AwaitingQuery:
		return "awaiting_query"
	case AwaitingFeedback:
		return "awaiting_feedback"
	default:
		return "unknown"
	}
}
