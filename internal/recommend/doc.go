// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package recommend ranks catalog businesses for a query and runs the
// per-conversation recommendation session.
//
// # Ranking
//
// The Ranker restricts the live catalog snapshot to businesses inside the
// search radius, takes the top-k by cosine similarity, drops weak matches,
// applies the user's preference bias and sorts the result:
//
//	score = similarity + ε·|categories ∩ liked| − ε·|categories ∩ disliked|
//
// Candidates are ordered by score descending, then distance ascending, then
// business ID ascending, so identical inputs always produce identical output.
//
// # Sessions
//
// A Session is a small state machine with two states, AwaitingQuery and
// AwaitingFeedback. Search replaces the whole queue; Next, Like and Dislike
// consume it. Feedback is folded into the session's preference set at once
// and written to the preference store; a failed write is logged and the
// conversation carries on with the in-memory preferences.
//
// # Thread Safety
//
// The Ranker is safe for concurrent use and never blocks. A Session belongs
// to one conversation and must not be used from several goroutines at once.
//
// # Usage
//
//	ranker, err := recommend.NewRanker(holder, recommend.DefaultConfig(), logger)
//	session := recommend.NewSession("user-1", ranker, store, logger)
//
//	step, err := session.Search(ctx, recommend.Query{
//	    Text:   "quiet coffee shop",
//	    Vector: embedding,
//	    Center: center,
//	})
//	if step.Exhausted {
//	    // no matches for this query
//	}
//
//	result, err := session.Like(ctx)
package recommend
