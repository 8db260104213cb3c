// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package assistant

import (
	"regexp"
	"strings"
)

// Intent is what a chat message asks the assistant to do.
type Intent int

const (
	// IntentSearch starts a new query. It is the fallback for any message
	// that matches no other intent.
	IntentSearch Intent = iota
	IntentLike
	IntentDislike
	IntentNext
	IntentPlan
	IntentChoose

	// IntentSuggest marks replies from Conversation.Suggest. No message
	// classifies as it.
	IntentSuggest
)

// String returns the intent name used in logs.
func (i Intent) String() string {
	switch i {
	case IntentSearch:
		return "search"
	case IntentLike:
		return "like"
	case IntentDislike:
		return "dislike"
	case IntentNext:
		return "next"
	case IntentPlan:
		return "plan"
	case IntentChoose:
		return "choose"
	case IntentSuggest:
		return "suggest"
	default:
		return "unknown"
	}
}

// Phrase lists are matched on word boundaries, case-insensitively. The
// order of intentMatchers matters: "don't like" must be seen as a dislike
// before the like matcher sees "like".
//
// Reactions only count as a like when they are the whole message, so
// "great tacos in Austin, TX" stays a search.
var (
	dislikePhrases  = []string{"not a fan", "dislike", "don't like", "dont like", "do not like", "not for me"}
	likePhrases     = []string{"i like", "i liked", "liked it"}
	reactionPhrases = []string{"great", "perfect", "this works", "love it", "sounds good", "looks good"}
	reactionLeads   = []string{"that's", "thats", "that is", "this is", "sounds", "looks"}
	nextPhrases    = []string{"something else", "another", "next", "show me more", "one more"}
	planPhrases    = []string{"plan my day", "plan a day", "itinerary", "day plan"}
	choosePhrases  = []string{"let's go to", "lets go to", "let us go to", "go with", "add"}
)

type intentMatcher struct {
	intent Intent
	re     *regexp.Regexp
}

var intentMatchers = []intentMatcher{
	{IntentDislike, phraseRegexp(dislikePhrases)},
	{IntentPlan, phraseRegexp(planPhrases)},
	{IntentChoose, regexp.MustCompile(`(?i)^\s*(?:` + alternation(choosePhrases) + `)\b`)},
	{IntentLike, phraseRegexp(likePhrases)},
	{IntentLike, reactionRegexp(reactionLeads, reactionPhrases)},
	{IntentNext, phraseRegexp(nextPhrases)},
}

func alternation(phrases []string) string {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(quoted, "|")
}

func phraseRegexp(phrases []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + alternation(phrases) + `)\b`)
}

// reactionRegexp matches a message made of a reaction phrase, optionally led
// by one of leads and followed by punctuation and a thank you.
func reactionRegexp(leads, phrases []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^\s*(?:(?:` + alternation(leads) + `)\s+)?(?:` + alternation(phrases) +
		`)\b[\s!.,]*(?:(?:thanks|thank you)\b[\s!.,]*)?$`)
}

// normalizeApostrophes maps typographic apostrophes to ASCII so "don’t like"
// matches "don't like".
func normalizeApostrophes(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}

// ClassifyIntent maps a chat message to an intent. A choose intent only
// matches at the start of a message ("let's go to Blue Bottle").
func ClassifyIntent(message string) Intent {
	message = normalizeApostrophes(message)
	for _, m := range intentMatchers {
		if m.re.MatchString(message) {
			return m.intent
		}
	}
	return IntentSearch
}

// chooseTarget returns the text after a leading choose phrase.
func chooseTarget(message string) string {
	message = normalizeApostrophes(strings.TrimSpace(message))
	lower := strings.ToLower(message)
	for _, p := range choosePhrases {
		if strings.HasPrefix(lower, p) {
			return strings.Trim(strings.TrimSpace(message[len(p):]), ".!?")
		}
	}
	return ""
}
