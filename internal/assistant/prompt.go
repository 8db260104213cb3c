// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package assistant

import (
	"fmt"
	"strings"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

// describeCandidate renders one candidate as a prompt bullet. Unknown
// values are spelled out as unknown.
func describeCandidate(c *recommend.RankedCandidate) string {
	r := c.Record
	if r == nil {
		return fmt.Sprintf("- %s (%.1f km away)", c.BusinessID, c.DistanceKm)
	}

	place := strings.Trim(strings.Join([]string{r.City, r.State}, ", "), ", ")
	if place == "" {
		place = "location unknown"
	}
	categories := "no categories"
	if len(r.Categories) > 0 {
		categories = strings.Join(r.Categories, ", ")
	}

	return fmt.Sprintf("- %s (%s; %s) - %s, %.1f km away",
		r.Name, categories, place, r.RatingLabel(), c.DistanceKm)
}

func describeCandidates(candidates []recommend.RankedCandidate) string {
	lines := make([]string, len(candidates))
	for i := range candidates {
		lines[i] = describeCandidate(&candidates[i])
	}
	return strings.Join(lines, "\n")
}

// RecommendationPrompt asks the generator to present the candidates found
// for the user's message.
func RecommendationPrompt(userMessage string, candidates []recommend.RankedCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user asked: %q\n\n", userMessage)
	if len(candidates) == 1 {
		b.WriteString("Here is the business we found:\n")
	} else {
		b.WriteString("Here are the businesses we found, best match first:\n")
	}
	b.WriteString(describeCandidates(candidates))
	b.WriteString("\n\nDescribe what makes each one special. Mention the name and location. ")
	b.WriteString("Use a friendly tone. Do not invent anything that is not listed above.")
	return b.String()
}

// AlternativePrompt asks the generator to present the next candidate after
// the user passed on the previous one.
func AlternativePrompt(c *recommend.RankedCandidate) string {
	var b strings.Builder
	b.WriteString("Here is another nearby business:\n")
	b.WriteString(describeCandidate(c))
	b.WriteString("\n\nDescribe what makes it special. Use a friendly tone. ")
	b.WriteString("Do not invent anything that is not listed above.")
	return b.String()
}

// SuggestionPrompt asks the generator to present a business picked from the
// categories the user liked in earlier conversations.
func SuggestionPrompt(liked []string, c *recommend.RankedCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user enjoyed places in these categories before: %s\n\n", strings.Join(liked, ", "))
	b.WriteString("Here is a nearby business that matches them:\n")
	b.WriteString(describeCandidate(c))
	b.WriteString("\n\nTell the user why they might like it, based on what they enjoyed before. ")
	b.WriteString("Use a friendly tone. Do not invent anything that is not listed above.")
	return b.String()
}

// ItineraryPrompt asks the generator to plan a day visiting stops in order.
func ItineraryPrompt(area string, stops []Stop) string {
	var b strings.Builder
	if area == "" {
		area = "the area"
	}
	fmt.Fprintf(&b, "I have selected these %d places in %s:\n", len(stops), area)
	for i := range stops {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimPrefix(describeCandidate(&stops[i].Candidate), "- "))
	}
	b.WriteString("\nPlease draft an hourly plan for a single day visiting each place in this order, ")
	b.WriteString("including travel between them and tips. Only use the places listed above.")
	return b.String()
}

// renderCandidates is the plain-text reply used when the generator is
// unavailable.
func renderCandidates(candidates []recommend.RankedCandidate) string {
	return describeCandidates(candidates)
}
