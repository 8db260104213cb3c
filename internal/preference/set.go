// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package preference stores each user's liked and disliked business
// categories. Both sets only ever grow: feedback is folded in by set union,
// and a category that was both liked and disliked at different times stays
// in both sets.
package preference

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Categories is a set of lowercase category tags.
type Categories map[string]struct{}

// NewCategories builds a set from tags, normalizing each one.
func NewCategories(tags ...string) Categories {
	c := make(Categories, len(tags))
	c.Add(tags...)
	return c
}

// Add inserts tags and returns how many were new. Empty tags are ignored.
func (c Categories) Add(tags ...string) int {
	added := 0
	for _, t := range tags {
		t = normalize(t)
		if t == "" {
			continue
		}
		if _, ok := c[t]; !ok {
			c[t] = struct{}{}
			added++
		}
	}
	return added
}

// Has reports whether tag is in the set (case-insensitive).
func (c Categories) Has(tag string) bool {
	_, ok := c[normalize(tag)]
	return ok
}

// Sorted returns the tags in ascending order.
func (c Categories) Sorted() []string {
	out := make([]string, 0, len(c))
	for t := range c {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Set is one user's accumulated feedback.
type Set struct {
	Liked    Categories
	Disliked Categories
}

// NewSet returns an empty, ready to use Set.
func NewSet() Set {
	return Set{Liked: Categories{}, Disliked: Categories{}}
}

// IsEmpty reports whether the set holds no feedback at all.
func (s Set) IsEmpty() bool {
	return len(s.Liked) == 0 && len(s.Disliked) == 0
}

// Clone returns a deep copy.
func (s Set) Clone() Set {
	out := NewSet()
	for t := range s.Liked {
		out.Liked[t] = struct{}{}
	}
	for t := range s.Disliked {
		out.Disliked[t] = struct{}{}
	}
	return out
}

// Union folds other into s and reports whether s changed. s must have been
// created with NewSet or decoded from JSON.
func (s *Set) Union(other Set) bool {
	s.ensure()
	changed := false
	for t := range other.Liked {
		if s.Liked.Add(t) > 0 {
			changed = true
		}
	}
	for t := range other.Disliked {
		if s.Disliked.Add(t) > 0 {
			changed = true
		}
	}
	return changed
}

// Like adds categories to the liked set and returns how many were new.
func (s *Set) Like(categories ...string) int {
	s.ensure()
	return s.Liked.Add(categories...)
}

// Dislike adds categories to the disliked set and returns how many were new.
func (s *Set) Dislike(categories ...string) int {
	s.ensure()
	return s.Disliked.Add(categories...)
}

// Conflicts returns the categories that are both liked and disliked.
func (s Set) Conflicts() []string {
	var out []string
	for t := range s.Liked {
		if _, ok := s.Disliked[t]; ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Set) ensure() {
	if s.Liked == nil {
		s.Liked = Categories{}
	}
	if s.Disliked == nil {
		s.Disliked = Categories{}
	}
}

type wireSet struct {
	Liked    []string `json:"liked"`
	Disliked []string `json:"disliked"`
}

// MarshalJSON encodes the set as sorted lists.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSet{Liked: s.Liked.Sorted(), Disliked: s.Disliked.Sorted()})
}

// UnmarshalJSON decodes sorted lists into a set.
func (s *Set) UnmarshalJSON(data []byte) error {
	var w wireSet
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Set{Liked: NewCategories(w.Liked...), Disliked: NewCategories(w.Disliked...)}
	return nil
}
