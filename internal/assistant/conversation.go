// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/geo"
	"github.com/tomtom215/wayfinder/internal/logging"
	"github.com/tomtom215/wayfinder/internal/provider"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/validation"
)

// Fixed replies.
const (
	ReplyExhausted       = "No more suggestions for this query! Try something new?"
	ReplyLiked           = "Glad you liked it! I'll remember that for next time."
	ReplyClarifyLocation = "I couldn't work out where you are. Could you tell me the city and state, like \"coffee in Austin, TX\"?"
	ReplyNothingNearby   = "I couldn't find anything nearby. Try a different search or another area."
	ReplyNoMatches       = "No results found. Try asking differently."
	ReplyFeedbackHint    = "What did you think? You can say \"I liked it\", \"Not for me\" or \"Next\"."
	ReplyPlanningHint    = "Say \"let's go to\" and a name to add a place to your day."
	ReplyPlanningStarted = "Let's plan your day! Tell me the first kind of place you'd like to visit."
	ReplyAlreadyChosen   = "%s is already part of your day. Where would you like to go next?"
	ReplyStopAdded       = "Added %s to your day (%d/%d). Where would you like to go next?"
	ReplySuggestionLead  = "Based on places you liked before, you might enjoy this:"
)

// planningBatch is the number of candidates offered per planning turn.
const planningBatch = 3

// ErrNoStops is returned by Itinerary before any stop has been chosen.
var ErrNoStops = errors.New("no stops have been chosen")

// Collaborators are the external services a conversation calls.
type Collaborators struct {
	Embedder  provider.Embedder
	Geocoder  provider.Geocoder
	Generator provider.TextGenerator
}

// Options tune a conversation.
type Options struct {
	NearbyRadiusKm   float64
	PlanningRadiusKm float64
	MaxStops         int
}

// OptionsFromConfig derives Options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		NearbyRadiusKm:   cfg.Search.NearbyRadiusKm,
		PlanningRadiusKm: cfg.Search.PlanningRadiusKm(),
		MaxStops:         cfg.Planner.MaxStops,
	}
}

// Stop is a business the user picked for their day plan.
type Stop struct {
	Candidate recommend.RankedCandidate
}

// Name returns the business name, or its ID when the record is missing.
func (s *Stop) Name() string {
	return candidateName(&s.Candidate)
}

// Reply is the assistant's answer to one message.
type Reply struct {
	Intent Intent
	Text   string

	// Candidates are the businesses presented in this reply.
	Candidates []recommend.RankedCandidate

	// Exhausted is set when there was nothing left to serve.
	Exhausted bool

	// Feedback is set for like and dislike turns.
	Feedback *recommend.FeedbackResult

	// Itinerary is set when Text is a generated day plan.
	Itinerary bool
}

// inboundMessage is validated before a message is handled.
type inboundMessage struct {
	Text string `validate:"notblank,max=1000"`
}

// Conversation drives a recommendation session from free-text chat
// messages. Like Session, it is not safe for concurrent use.
type Conversation struct {
	session *recommend.Session
	deps    Collaborators
	opts    Options
	logger  zerolog.Logger

	place  string
	center geo.Point

	planning bool
	area     string
	stops    []Stop
}

// New creates a conversation around session.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(session *recommend.Session, deps Collaborators, opts Options, logger zerolog.Logger) *Conversation {
	if opts.MaxStops <= 0 {
		opts.MaxStops = 5
	}
	return &Conversation{
		session: session,
		deps:    deps,
		opts:    opts,
		center:  geo.Missing(),
		logger:  logger.With().Str("component", "assistant").Logger(),
	}
}

// Session returns the underlying recommendation session.
func (c *Conversation) Session() *recommend.Session { return c.session }

// Location returns the current place name and center.
func (c *Conversation) Location() (string, geo.Point) { return c.place, c.center }

// SetLocation sets the center used when a message names no place.
func (c *Conversation) SetLocation(place string, p geo.Point) {
	c.place = place
	c.center = p
}

// Locate geocodes place and makes it the current location.
func (c *Conversation) Locate(ctx context.Context, place string) error {
	_, err := c.resolveCenter(ctx, place)
	return err
}

// Planning reports whether the conversation is in day-planning mode.
func (c *Conversation) Planning() bool { return c.planning }

// Stops returns a copy of the chosen itinerary stops.
func (c *Conversation) Stops() []Stop {
	out := make([]Stop, len(c.stops))
	copy(out, c.stops)
	return out
}

// Handle processes one chat message.
//
// User-facing outcomes such as an unknown place or an empty neighborhood are
// replies, not errors. Errors are collaborator or persistence failures the
// caller should report. When the text generator fails, Handle returns both
// the error and a reply listing the candidates in plain text.
func (c *Conversation) Handle(ctx context.Context, message string) (*Reply, error) {
	msg := inboundMessage{Text: strings.TrimSpace(message)}
	if verr := validation.ValidateStruct(&msg); verr != nil {
		return nil, fmt.Errorf("invalid message: %w", verr)
	}

	ctx = logging.ContextWithSession(logging.ContextWithNewCorrelationID(ctx), c.session.ID(), c.session.UserID())
	logger := logging.Enrich(ctx, c.logger)

	intent := ClassifyIntent(msg.Text)
	logger.Debug().Str("intent", intent.String()).Str("state", c.session.State().String()).Msg("Handling message")

	served := c.session.LastServed() != nil
	switch intent {
	case IntentLike:
		if served {
			return c.handleLike(ctx)
		}
	case IntentDislike:
		if served {
			return c.handleDislike(ctx)
		}
	case IntentNext:
		if served {
			return c.handleNext(ctx)
		}
	case IntentPlan:
		return c.handlePlan(ctx, msg.Text)
	case IntentChoose:
		if c.planning {
			if cand, ok := c.findShown(chooseTarget(msg.Text)); ok {
				return c.handleChoose(ctx, cand)
			}
		}
	case IntentSearch:
	}

	// Feedback with nothing to react to is read as a new query.
	return c.handleSearch(ctx, msg.Text)
}

func (c *Conversation) handleLike(ctx context.Context) (*Reply, error) {
	res, err := c.session.Like(ctx)
	if err != nil {
		return nil, err
	}
	return &Reply{Intent: IntentLike, Text: ReplyLiked, Feedback: &res}, nil
}

func (c *Conversation) handleDislike(ctx context.Context) (*Reply, error) {
	res, step, err := c.session.Dislike(ctx)
	if err != nil {
		return nil, err
	}
	reply, err := c.alternative(ctx, IntentDislike, step)
	if reply != nil {
		reply.Feedback = &res
	}
	return reply, err
}

func (c *Conversation) handleNext(ctx context.Context) (*Reply, error) {
	return c.alternative(ctx, IntentNext, c.session.Next())
}

// alternative presents the candidate after a next or dislike.
func (c *Conversation) alternative(ctx context.Context, intent Intent, step recommend.Step) (*Reply, error) {
	if step.Exhausted {
		return &Reply{Intent: intent, Text: ReplyExhausted, Exhausted: true}, nil
	}

	candidates := []recommend.RankedCandidate{*step.Candidate}
	if n := c.batchSize(); n > 1 {
		candidates = append(candidates, c.session.NextBatch(n-1)...)
	}

	prompt := AlternativePrompt(step.Candidate)
	if len(candidates) > 1 {
		prompt = RecommendationPrompt(c.session.LastQuery().Text, candidates)
	}
	return c.present(ctx, &Reply{Intent: intent, Candidates: candidates}, prompt)
}

func (c *Conversation) handleSearch(ctx context.Context, text string) (*Reply, error) {
	query, place := splitLocation(text)
	if query == "" {
		query = text
	}

	center, err := c.resolveCenter(ctx, place)
	if err != nil {
		if errors.Is(err, recommend.ErrLocationUnresolved) {
			c.logger.Info().Err(err).Msg("Asking the user to clarify the location")
			return &Reply{Intent: IntentSearch, Text: ReplyClarifyLocation}, nil
		}
		return nil, err
	}

	vec, err := c.deps.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	step, err := c.session.Search(ctx, recommend.Query{
		Text:     query,
		Vector:   vec,
		Center:   center,
		RadiusKm: c.radius(),
	})
	switch {
	case errors.Is(err, recommend.ErrLocationUnresolved):
		return &Reply{Intent: IntentSearch, Text: ReplyClarifyLocation}, nil
	case errors.Is(err, recommend.ErrEmptyResult):
		return &Reply{Intent: IntentSearch, Text: ReplyNothingNearby, Exhausted: true}, nil
	case err != nil:
		return nil, err
	}

	if step.Exhausted {
		return &Reply{Intent: IntentSearch, Text: ReplyNoMatches, Exhausted: true}, nil
	}

	candidates := []recommend.RankedCandidate{*step.Candidate}
	if n := c.batchSize(); n > 1 {
		candidates = append(candidates, c.session.NextBatch(n-1)...)
	}

	return c.present(ctx, &Reply{Intent: IntentSearch, Candidates: candidates}, RecommendationPrompt(text, candidates))
}

// Suggest recommends the best place near the current location for the
// categories the user liked before. The suggestion is served like a search
// result, so the user can react to it. Suggest returns a nil reply when there
// is no location, no liked category or nothing nearby matches.
func (c *Conversation) Suggest(ctx context.Context) (*Reply, error) {
	if !c.center.Valid() {
		return nil, nil
	}

	ctx = logging.ContextWithSession(logging.ContextWithNewCorrelationID(ctx), c.session.ID(), c.session.UserID())
	logger := logging.Enrich(ctx, c.logger)

	c.session.LoadPreferences(ctx)
	liked := c.session.Preferences().Liked.Sorted()
	if len(liked) == 0 {
		logger.Debug().Msg("No liked categories, skipping suggestion")
		return nil, nil
	}

	query := strings.Join(liked, ", ")
	vec, err := c.deps.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed preferences: %w", err)
	}

	step, err := c.session.Search(ctx, recommend.Query{
		Text:     query,
		Vector:   vec,
		Center:   c.center,
		RadiusKm: c.opts.NearbyRadiusKm,
	})
	switch {
	case errors.Is(err, recommend.ErrEmptyResult), errors.Is(err, recommend.ErrLocationUnresolved):
		logger.Info().Err(err).Msg("Nothing to suggest near the current location")
		return nil, nil
	case err != nil:
		return nil, err
	}
	if step.Exhausted {
		return nil, nil
	}

	logger.Info().Str("business_id", step.Candidate.BusinessID).Strs("liked", liked).Msg("Suggesting from stored preferences")

	reply, err := c.present(ctx, &Reply{
		Intent:     IntentSuggest,
		Candidates: []recommend.RankedCandidate{*step.Candidate},
	}, SuggestionPrompt(liked, step.Candidate))
	reply.Text = ReplySuggestionLead + "\n\n" + reply.Text
	return reply, err
}

// resolveCenter geocodes place, or falls back to the current location when
// place is empty. A resolved place becomes the current location.
func (c *Conversation) resolveCenter(ctx context.Context, place string) (geo.Point, error) {
	if place == "" {
		if !c.center.Valid() {
			return geo.Missing(), &recommend.LocationUnresolvedError{}
		}
		return c.center, nil
	}

	p, err := c.deps.Geocoder.Geocode(ctx, place)
	switch {
	case errors.Is(err, provider.ErrPlaceNotFound):
		return geo.Missing(), &recommend.LocationUnresolvedError{Place: place, Err: err}
	case err != nil:
		return geo.Missing(), fmt.Errorf("geocode %q: %w", place, err)
	}

	c.place = place
	c.center = p
	return p, nil
}

// present fills reply.Text from the generator.
func (c *Conversation) present(ctx context.Context, reply *Reply, prompt string) (*Reply, error) {
	text, err := c.deps.Generator.Complete(ctx, prompt)
	if err != nil {
		reply.Text = renderCandidates(reply.Candidates)
		return reply, fmt.Errorf("generate reply: %w", err)
	}

	hint := ReplyFeedbackHint
	if c.planning {
		hint = ReplyPlanningHint
	}
	reply.Text = text + "\n\n" + hint
	return reply, nil
}

func (c *Conversation) handlePlan(ctx context.Context, text string) (*Reply, error) {
	if c.planning && len(c.stops) > 0 {
		return c.deliverItinerary(ctx)
	}

	if _, place := splitLocation(text); place != "" {
		if _, err := c.resolveCenter(ctx, place); err != nil {
			if errors.Is(err, recommend.ErrLocationUnresolved) {
				return &Reply{Intent: IntentPlan, Text: ReplyClarifyLocation}, nil
			}
			return nil, err
		}
	}

	c.planning = true
	c.stops = nil
	c.area = c.place

	msg := ReplyPlanningStarted
	if c.area != "" {
		msg = fmt.Sprintf("We're building your day in %s. %s", c.area, ReplyPlanningStarted)
	}
	c.logger.Info().Str("area", c.area).Msg("Planning mode started")
	return &Reply{Intent: IntentPlan, Text: msg}, nil
}

func (c *Conversation) handleChoose(ctx context.Context, cand recommend.RankedCandidate) (*Reply, error) {
	name := candidateName(&cand)
	for i := range c.stops {
		if c.stops[i].Candidate.BusinessID == cand.BusinessID {
			return &Reply{Intent: IntentChoose, Text: fmt.Sprintf(ReplyAlreadyChosen, name)}, nil
		}
	}

	c.stops = append(c.stops, Stop{Candidate: cand})
	if cand.Record != nil && cand.Record.Location.Valid() {
		c.center = cand.Record.Location
		c.place = name
	}
	c.logger.Info().Str("business_id", cand.BusinessID).Int("stops", len(c.stops)).Msg("Added itinerary stop")

	if len(c.stops) >= c.opts.MaxStops {
		return c.deliverItinerary(ctx)
	}
	return &Reply{
		Intent:     IntentChoose,
		Text:       fmt.Sprintf(ReplyStopAdded, name, len(c.stops), c.opts.MaxStops),
		Candidates: []recommend.RankedCandidate{cand},
	}, nil
}

func (c *Conversation) deliverItinerary(ctx context.Context) (*Reply, error) {
	plan, err := c.Itinerary(ctx)
	if err != nil {
		return nil, err
	}
	c.planning = false
	return &Reply{Intent: IntentPlan, Text: plan, Itinerary: true}, nil
}

// Itinerary generates a day plan from the chosen stops only.
func (c *Conversation) Itinerary(ctx context.Context) (string, error) {
	if len(c.stops) == 0 {
		return "", ErrNoStops
	}
	plan, err := c.deps.Generator.Complete(ctx, ItineraryPrompt(c.area, c.stops))
	if err != nil {
		return "", fmt.Errorf("generate itinerary: %w", err)
	}
	return plan, nil
}

// findShown finds a candidate shown since the last search by name. An exact
// match wins over a partial one.
func (c *Conversation) findShown(target string) (recommend.RankedCandidate, bool) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return recommend.RankedCandidate{}, false
	}

	shown := c.session.Shown()
	for i := range shown {
		if strings.ToLower(candidateName(&shown[i])) == target {
			return shown[i], true
		}
	}
	for i := range shown {
		name := strings.ToLower(candidateName(&shown[i]))
		if strings.Contains(name, target) || strings.Contains(target, name) {
			return shown[i], true
		}
	}
	return recommend.RankedCandidate{}, false
}

func (c *Conversation) radius() float64 {
	if c.planning {
		return c.opts.PlanningRadiusKm
	}
	return c.opts.NearbyRadiusKm
}

// batchSize is the number of candidates served per turn. Outside planning
// it follows the ranker's batch_size.
func (c *Conversation) batchSize() int {
	if c.planning {
		return planningBatch
	}
	return max(c.session.BatchSize(), 1)
}

func candidateName(c *recommend.RankedCandidate) string {
	if c.Record != nil && c.Record.Name != "" {
		return c.Record.Name
	}
	return c.BusinessID
}
