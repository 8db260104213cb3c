// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"fmt"
)

// Config contains ranking and session parameters.
type Config struct {
	// TopK is the number of nearest neighbors considered per query.
	// Default: 20.
	TopK int `json:"top_k"`

	// RadiusKm is used when a query does not set its own radius.
	// Default: 5.
	RadiusKm float64 `json:"radius_km"`

	// MinSimilarity drops hits whose raw similarity is below it.
	// Values <= -1 disable the cutoff.
	// Default: 0.1.
	MinSimilarity float64 `json:"min_similarity"`

	// PreferenceEpsilon is the bias per matching liked or disliked category.
	// It should stay below the typical spread of raw similarities.
	// Default: 0.05.
	PreferenceEpsilon float64 `json:"preference_epsilon"`

	// BatchSize above 1 makes Like apply to every candidate shown since the
	// last search instead of only the last one.
	// Default: 1.
	BatchSize int `json:"batch_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TopK:              20,
		RadiusKm:          5,
		MinSimilarity:     0.1,
		PreferenceEpsilon: 0.05,
		BatchSize:         1,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.RadiusKm <= 0 {
		return fmt.Errorf("radius_km must be positive, got %f", c.RadiusKm)
	}
	if c.MinSimilarity > 1 {
		return fmt.Errorf("min_similarity must be at most 1, got %f", c.MinSimilarity)
	}
	if c.PreferenceEpsilon < 0 || c.PreferenceEpsilon >= 1 {
		return fmt.Errorf("preference_epsilon must be in [0, 1), got %f", c.PreferenceEpsilon)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

func (c *Config) minSimilarityEnabled() bool {
	return c.MinSimilarity > -1
}
