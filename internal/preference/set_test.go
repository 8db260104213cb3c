// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package preference

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

func TestCategories_Add(t *testing.T) {
	t.Parallel()

	c := NewCategories("Cafe", " bar ")
	if got := c.Add("cafe", "VEGAN", "", "  "); got != 1 {
		t.Errorf("Add() = %d new, want 1", got)
	}
	if want := []string{"bar", "cafe", "vegan"}; !reflect.DeepEqual(c.Sorted(), want) {
		t.Errorf("Sorted() = %v, want %v", c.Sorted(), want)
	}
	if !c.Has("BAR") || c.Has("pizza") {
		t.Error("Has() mismatch")
	}
}

func TestSet_UnionIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewSet()
	other := NewSet()
	other.Like("cafe", "vegan")
	other.Dislike("bar")

	if !s.Union(other) {
		t.Error("first Union() should change the set")
	}
	snapshot := s.Clone()
	if s.Union(other) {
		t.Error("second Union() should not change the set")
	}
	if !reflect.DeepEqual(s, snapshot) {
		t.Errorf("set after repeated union = %+v, want %+v", s, snapshot)
	}
}

func TestSet_LikedAndDislikedMayOverlap(t *testing.T) {
	t.Parallel()

	var s Set
	s.Like("bar")
	s.Dislike("bar")

	if !s.Liked.Has("bar") || !s.Disliked.Has("bar") {
		t.Fatalf("expected bar in both sets, got %+v", s)
	}
	if got := s.Conflicts(); !reflect.DeepEqual(got, []string{"bar"}) {
		t.Errorf("Conflicts() = %v, want [bar]", got)
	}
}

func TestSet_CloneIsDeep(t *testing.T) {
	t.Parallel()

	s := NewSet()
	s.Like("cafe")
	c := s.Clone()
	c.Like("pizza")

	if s.Liked.Has("pizza") {
		t.Error("mutating the clone changed the original")
	}
}

func TestSet_JSON(t *testing.T) {
	t.Parallel()

	s := NewSet()
	s.Like("vegan", "cafe")
	s.Dislike("bar")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"liked":["cafe","vegan"],"disliked":["bar"]}`; string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var decoded Set
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(decoded, s) {
		t.Errorf("Unmarshal() = %+v, want %+v", decoded, s)
	}
}
