// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package assistant

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxPlaceWords bounds how much trailing text can be read as a place name.
const maxPlaceWords = 6

var locationMarker = regexp.MustCompile(`(?i)\b(?:in|near|around)\s+`)

// ExtractLocation returns the place named at the end of message, as in
// "vegan food in austin, tx" or "coffee near rittenhouse square". The city
// is title-cased and a two-letter state is uppercased.
func ExtractLocation(message string) (string, bool) {
	_, place := splitLocation(message)
	return place, place != ""
}

// splitLocation separates the query text from a trailing place name. The
// last location marker wins, so "interested in sushi in Austin" yields
// "Austin".
func splitLocation(message string) (query, place string) {
	message = strings.TrimSpace(message)
	matches := locationMarker.FindAllStringIndex(message, -1)
	if len(matches) == 0 {
		return message, ""
	}
	last := matches[len(matches)-1]

	raw := strings.TrimRight(strings.TrimSpace(message[last[1]:]), ".!?")
	if raw == "" || len(strings.Fields(raw)) > maxPlaceWords {
		return message, ""
	}

	place = formatPlace(raw)
	if place == "" {
		return message, ""
	}
	query = strings.TrimSpace(message[:last[0]])
	return query, place
}

// formatPlace normalizes "philadelphia,pa" to "Philadelphia, PA".
func formatPlace(raw string) string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i > 0 && utf8.RuneCountInString(part) == 2 && isLetters(part) {
			out = append(out, strings.ToUpper(part))
			continue
		}
		out = append(out, titleCase(part))
	}
	return strings.Join(out, ", ")
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// titleCase uppercases the first letter of every word and lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
