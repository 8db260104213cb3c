// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package config

import (
	"fmt"
	"net/url"
)

var (
	validLogLevels = map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	validLogFormats = map[string]bool{
		"json": true, "console": true,
	}
	validCatalogSources = map[string]bool{
		"duckdb": true, "json": true,
	}
	validPreferenceBackends = map[string]bool{
		"memory": true, "badger": true, "redis": true,
	}
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validatePreferences(); err != nil {
		return err
	}
	if err := c.validateCollaborators(); err != nil {
		return err
	}
	return c.validateBreaker()
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateSearch validates ranking and session settings
func (c *Config) validateSearch() error {
	s := c.Search
	if s.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive, got %d", s.TopK)
	}
	if s.NearbyRadiusKm <= 0 {
		return fmt.Errorf("search.nearby_radius_km must be positive, got %v", s.NearbyRadiusKm)
	}
	if s.PlanningRadiusMiles <= 0 {
		return fmt.Errorf("search.planning_radius_miles must be positive, got %v", s.PlanningRadiusMiles)
	}
	if s.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be at most 1, got %v", s.MinSimilarity)
	}
	if s.PreferenceEpsilon < 0 || s.PreferenceEpsilon >= 1 {
		return fmt.Errorf("search.preference_epsilon must be in [0, 1), got %v", s.PreferenceEpsilon)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("search.batch_size must be positive, got %d", s.BatchSize)
	}
	if c.Planner.MaxStops <= 0 {
		return fmt.Errorf("planner.max_stops must be positive, got %d", c.Planner.MaxStops)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if !validCatalogSources[c.Catalog.Source] {
		return fmt.Errorf("CATALOG_SOURCE must be one of: duckdb, json")
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("CATALOG_PATH is required")
	}
	if c.Catalog.Source == "duckdb" && c.Catalog.Table == "" {
		return fmt.Errorf("CATALOG_TABLE is required when CATALOG_SOURCE=duckdb")
	}
	if c.Catalog.RefreshInterval < 0 {
		return fmt.Errorf("catalog.refresh_interval must not be negative, got %v", c.Catalog.RefreshInterval)
	}
	return nil
}

func (c *Config) validatePreferences() error {
	p := c.Preferences
	if !validPreferenceBackends[p.Backend] {
		return fmt.Errorf("PREFERENCES_BACKEND must be one of: memory, badger, redis")
	}
	switch p.Backend {
	case "badger":
		if p.BadgerPath == "" {
			return fmt.Errorf("PREFERENCES_PATH is required when PREFERENCES_BACKEND=badger")
		}
	case "redis":
		if p.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when PREFERENCES_BACKEND=redis")
		}
	}
	return nil
}

// validateCollaborators validates the endpoints of external collaborators
func (c *Config) validateCollaborators() error {
	if err := validateEndpoint("EMBEDDING_BASE_URL", c.Embedding.BaseURL); err != nil {
		return err
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("EMBEDDING_MODEL is required")
	}
	if err := validateEndpoint("GENERATION_BASE_URL", c.Generation.BaseURL); err != nil {
		return err
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("GENERATION_MODEL is required")
	}
	if err := validateEndpoint("GEOCODER_BASE_URL", c.Geocoder.BaseURL); err != nil {
		return err
	}
	if c.Geocoder.UserAgent == "" {
		return fmt.Errorf("GEOCODER_USER_AGENT is required by the Nominatim usage policy")
	}
	if c.Geocoder.RatePerSecond <= 0 {
		return fmt.Errorf("geocoder.rate_per_second must be positive, got %v", c.Geocoder.RatePerSecond)
	}
	return nil
}

func (c *Config) validateBreaker() error {
	b := c.Breaker
	if b.MaxRequests == 0 {
		return fmt.Errorf("breaker.max_requests must be positive")
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		return fmt.Errorf("breaker.failure_ratio must be in (0, 1], got %v", b.FailureRatio)
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("breaker.timeout must be positive, got %v", b.Timeout)
	}
	return nil
}

func validateEndpoint(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
