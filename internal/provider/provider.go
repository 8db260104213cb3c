// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package provider contains clients for the external collaborators the
// recommender depends on: an embedding model, a geocoder and a text
// generator. Every client is synchronous, takes a context and surfaces
// failures to the caller without retrying.
package provider

import (
	"context"
	"errors"

	"github.com/tomtom215/wayfinder/internal/geo"
)

// Collaborator names used for metrics and circuit breaker labels.
const (
	NameEmbedder  = "embedder"
	NameGeocoder  = "geocoder"
	NameGenerator = "generator"
)

var (
	// ErrPlaceNotFound is returned by a Geocoder that has no match for a place.
	ErrPlaceNotFound = errors.New("place not found")

	// ErrEmptyInput is returned for blank text or place names.
	ErrEmptyInput = errors.New("input is empty")

	// ErrEmptyResponse is returned when a collaborator answers with no data.
	ErrEmptyResponse = errors.New("empty response from collaborator")
)

// Embedder turns text into an embedding vector. Identical text must produce
// identical vectors, and the dimension must match the catalog's.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (geo.Point, error)
}

// TextGenerator completes a prompt. Prompts describe the candidates to talk
// about; the generator must not be relied on for facts beyond them.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
