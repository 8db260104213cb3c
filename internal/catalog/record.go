// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package catalog

import (
	"fmt"
	"strings"

	"github.com/tomtom215/wayfinder/internal/geo"
	"github.com/tomtom215/wayfinder/internal/validation"
)

// BusinessRecord is an immutable catalog entry. Records are created when the
// catalog is loaded and must not be modified afterwards.
type BusinessRecord struct {
	ID   string
	Name string

	// Categories are lowercased, trimmed and deduplicated, in source order.
	Categories []string

	City  string
	State string

	// Location is geo.Missing() when the source has no coordinates.
	Location geo.Point

	// Stars is the average rating; only meaningful when StarsKnown is set.
	Stars      float64
	StarsKnown bool

	Embedding      []float32
	AttributesText string
}

// HasCategory reports whether the record is tagged with category (case-insensitive).
func (r *BusinessRecord) HasCategory(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, c := range r.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// RatingLabel renders the rating for display, never inventing a value.
func (r *BusinessRecord) RatingLabel() string {
	if !r.StarsKnown {
		return "rating unknown"
	}
	return fmt.Sprintf("%.1f stars", r.Stars)
}

// Row is a raw catalog row as read from a source, before validation.
// Nullable columns are pointers.
type Row struct {
	ID             string    `json:"business_id" validate:"notblank"`
	Name           string    `json:"name" validate:"notblank"`
	Categories     string    `json:"categories"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Latitude       *float64  `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64  `json:"longitude" validate:"omitempty,longitude"`
	Stars          *float64  `json:"stars" validate:"omitempty,gte=0,lte=5"`
	Embedding      []float32 `json:"embedding" validate:"required,min=1,finite"`
	AttributesText string    `json:"attributes_text"`
}

// ToRecord validates the row and converts it to a BusinessRecord.
// A row with only one of latitude/longitude is treated as having no location.
func (row *Row) ToRecord() (BusinessRecord, error) {
	if verr := validation.ValidateStruct(row); verr != nil {
		return BusinessRecord{}, fmt.Errorf("row %q: %w", row.ID, verr)
	}

	loc := geo.Missing()
	if row.Latitude != nil && row.Longitude != nil {
		loc = geo.Point{Lat: *row.Latitude, Lon: *row.Longitude}
	}

	rec := BusinessRecord{
		ID:             strings.TrimSpace(row.ID),
		Name:           strings.TrimSpace(row.Name),
		Categories:     ParseCategories(row.Categories),
		City:           strings.TrimSpace(row.City),
		State:          strings.TrimSpace(row.State),
		Location:       loc,
		Embedding:      row.Embedding,
		AttributesText: row.AttributesText,
	}
	if row.Stars != nil {
		rec.Stars = *row.Stars
		rec.StarsKnown = true
	}
	return rec, nil
}

// ParseCategories splits a comma-separated category list into lowercased,
// trimmed, deduplicated tags.
func ParseCategories(s string) []string {
	return NormalizeCategories(strings.Split(s, ","))
}

// NormalizeCategories lowercases, trims and deduplicates tags, keeping the
// first occurrence order. Empty tags are dropped.
func NormalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
