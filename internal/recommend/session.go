// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/preference"
	"github.com/tomtom215/wayfinder/internal/vector"
)

// Session is one user's recommendation conversation.
//
// The queue is always sorted the way Rank sorts, and the last served
// candidate is never also in the queue. A Session is not safe for
// concurrent use.
type Session struct {
	id     string
	userID string

	ranker *Ranker
	store  preference.Store
	logger zerolog.Logger

	prefs       preference.Set
	prefsLoaded bool

	state      State
	lastQuery  Query
	queue      []RankedCandidate
	lastServed *RankedCandidate

	// shown holds every candidate served since the last Search.
	shown []RankedCandidate

	// batch is set once NextBatch served candidates alongside the current
	// one, so they were presented together.
	batch bool
}

// NewSession creates a session for userID. store may be nil, in which case
// feedback only lives in memory.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSession(userID string, ranker *Ranker, store preference.Store, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		userID: userID,
		ranker: ranker,
		store:  store,
		prefs:  preference.NewSet(),
		state:  AwaitingQuery,
		logger: logger.With().
			Str("component", "session").
			Str("session_id", id).
			Str("user_id", userID).
			Logger(),
	}
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// UserID returns the user the session belongs to.
func (s *Session) UserID() string { return s.userID }

// State returns the current state.
func (s *Session) State() State { return s.state }

// LastQuery returns the most recent query passed to Search.
func (s *Session) LastQuery() Query { return s.lastQuery }

// LastServed returns a copy of the last served candidate, or nil.
func (s *Session) LastServed() *RankedCandidate {
	if s.lastServed == nil {
		return nil
	}
	c := *s.lastServed
	return &c
}

// Queue returns a copy of the remaining queue.
func (s *Session) Queue() []RankedCandidate {
	out := make([]RankedCandidate, len(s.queue))
	copy(out, s.queue)
	return out
}

// Shown returns a copy of the candidates served since the last Search.
func (s *Session) Shown() []RankedCandidate {
	out := make([]RankedCandidate, len(s.shown))
	copy(out, s.shown)
	return out
}

// BatchSize returns the configured number of candidates served per turn.
func (s *Session) BatchSize() int { return s.ranker.config.BatchSize }

// Exhausted reports whether the queue is empty.
func (s *Session) Exhausted() bool { return len(s.queue) == 0 }

// Preferences returns a copy of the session's preference set.
func (s *Session) Preferences() preference.Set { return s.prefs.Clone() }

// LoadPreferences merges the stored preferences into the session. A load
// failure is logged and the session continues with what it already has.
func (s *Session) LoadPreferences(ctx context.Context) {
	s.prefsLoaded = true
	if s.store == nil {
		return
	}
	stored, err := s.store.Load(ctx, s.userID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load preferences, continuing with session preferences")
		return
	}
	s.prefs.Union(stored)
}

func (s *Session) reset() {
	s.queue = nil
	s.lastServed = nil
	s.shown = nil
	s.batch = false
	s.state = AwaitingQuery
}

// Search ranks q and serves its first result. Any previous queue and served
// candidate are discarded first, also when ranking fails. With no matching
// candidate the returned step is exhausted and the session stays in
// AwaitingQuery.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (s *Session) Search(ctx context.Context, q Query) (Step, error) {
	start := time.Now()
	s.reset()
	s.lastQuery = q

	if !s.prefsLoaded {
		s.LoadPreferences(ctx)
	}

	nv, err := vector.Normalize(q.Vector)
	if err != nil {
		metrics.RecordSearch(metrics.OutcomeError, 0, time.Since(start))
		return Step{}, err
	}

	ranked, err := s.ranker.Rank(ctx, RankRequest{
		Vector:   nv,
		Center:   q.Center,
		RadiusKm: q.RadiusKm,
	}, s.prefs)
	if err != nil {
		metrics.RecordSearch(searchOutcome(err), 0, time.Since(start))
		s.logger.Info().Err(err).Str("query", q.Text).Msg("Search produced no candidates")
		return Step{}, err
	}

	s.queue = ranked
	if len(ranked) == 0 {
		metrics.RecordSearch(metrics.OutcomeNoMatches, 0, time.Since(start))
		s.logger.Info().Str("query", q.Text).Msg("Search matched nothing")
		return Step{Exhausted: true}, nil
	}

	metrics.RecordSearch(metrics.OutcomeServed, len(ranked), time.Since(start))
	s.logger.Debug().
		Str("query", q.Text).
		Int("candidates", len(ranked)).
		Dur("duration", time.Since(start)).
		Msg("Search ranked candidates")

	return s.advance(), nil
}

func searchOutcome(err error) string {
	switch {
	case errors.Is(err, ErrLocationUnresolved):
		return metrics.OutcomeNoLocation
	case errors.Is(err, ErrEmptyResult):
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeError
	}
}

// advance pops the queue head into last served.
func (s *Session) advance() Step {
	if len(s.queue) == 0 {
		metrics.QueueExhausted.Inc()
		return Step{Exhausted: true}
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.lastServed = &next
	s.shown = append(s.shown, next)
	s.state = AwaitingFeedback

	c := next
	return Step{Candidate: &c}
}

// Next serves the next queued candidate. On an empty queue it returns an
// exhausted step and leaves the last served candidate and state unchanged.
func (s *Session) Next() Step {
	metrics.RecordFeedback(metrics.FeedbackNext)
	return s.advance()
}

// NextBatch serves up to n candidates. The last one becomes the last served
// candidate. It returns nil when the queue is empty. Once NextBatch has
// served anything, Like covers every candidate shown since the last Search.
func (s *Session) NextBatch(n int) []RankedCandidate {
	var out []RankedCandidate
	for i := 0; i < n && len(s.queue) > 0; i++ {
		out = append(out, *s.advance().Candidate)
	}
	if len(out) == 0 {
		metrics.QueueExhausted.Inc()
		return nil
	}
	s.batch = true
	return out
}

// Like adds the categories of the last served candidate to the liked set,
// or in batch mode the categories of every candidate shown since the last
// Search, and moves to AwaitingQuery. The session is in batch mode when the
// configured batch size is above 1 or NextBatch served candidates. Liking the
// same candidate again leaves the preferences unchanged.
func (s *Session) Like(ctx context.Context) (FeedbackResult, error) {
	if s.lastServed == nil {
		return FeedbackResult{}, ErrNothingServed
	}

	delta := preference.NewSet()
	if s.batch || s.ranker.config.BatchSize > 1 {
		for i := range s.shown {
			delta.Like(s.shown[i].Categories()...)
		}
	} else {
		delta.Like(s.lastServed.Categories()...)
	}

	s.prefs.Union(delta)
	persisted := s.persist(ctx, delta)
	s.state = AwaitingQuery
	metrics.RecordFeedback(metrics.FeedbackLike)

	s.logger.Info().
		Str("business_id", s.lastServed.BusinessID).
		Strs("categories", delta.Liked.Sorted()).
		Bool("persisted", persisted).
		Msg("Recorded like")

	return FeedbackResult{Categories: delta.Liked.Sorted(), Persisted: persisted}, nil
}

// Dislike adds the last served candidate's categories to the disliked set
// and then serves the next candidate as Next does.
func (s *Session) Dislike(ctx context.Context) (FeedbackResult, Step, error) {
	if s.lastServed == nil {
		return FeedbackResult{}, Step{}, ErrNothingServed
	}

	delta := preference.NewSet()
	delta.Dislike(s.lastServed.Categories()...)

	s.prefs.Union(delta)
	persisted := s.persist(ctx, delta)
	metrics.RecordFeedback(metrics.FeedbackDislike)

	s.logger.Info().
		Str("business_id", s.lastServed.BusinessID).
		Strs("categories", delta.Disliked.Sorted()).
		Bool("persisted", persisted).
		Msg("Recorded dislike")

	result := FeedbackResult{Categories: delta.Disliked.Sorted(), Persisted: persisted}
	return result, s.advance(), nil
}

// persist writes delta to the store. Failures are logged, never returned.
func (s *Session) persist(ctx context.Context, delta preference.Set) bool {
	if s.store == nil {
		return false
	}
	if err := s.store.Save(ctx, s.userID, delta); err != nil {
		perr := &PersistenceWriteError{UserID: s.userID, Err: err}
		metrics.PreferenceSaveFailures.Inc()
		s.logger.Warn().Err(perr).Msg("Keeping feedback in memory only")
		return false
	}
	return true
}
