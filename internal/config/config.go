// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package config holds Wayfinder's runtime configuration.
//
// Configuration is organized into sections:
//
//  1. Core search behavior:
//     - Search: radius, neighbor count, preference bias, batch size
//     - Planner: day-planning rounds
//
//  2. Data sources:
//     - Catalog: business catalog source and refresh cadence
//     - Preferences: durable liked/disliked category storage
//
//  3. Collaborators:
//     - Embedding: OpenAI-compatible embeddings endpoint
//     - Generation: OpenAI-compatible chat completion endpoint
//     - Geocoder: Nominatim endpoint, rate limit and cache
//     - Breaker: circuit breaker settings shared by collaborators
//
//  4. Observability:
//     - Logging: log level and output format
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import "time"

// kmPerMile converts statute miles to kilometers.
const kmPerMile = 1.609344

// Config is the root configuration.
type Config struct {
	Logging     LoggingConfig     `koanf:"logging"`
	Search      SearchConfig      `koanf:"search"`
	Planner     PlannerConfig     `koanf:"planner"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	Preferences PreferencesConfig `koanf:"preferences"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	Generation  GenerationConfig  `koanf:"generation"`
	Geocoder    GeocoderConfig    `koanf:"geocoder"`
	Breaker     BreakerConfig     `koanf:"breaker"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

// LoggingConfig controls the global zerolog logger.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: console
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// SearchConfig controls ranking and session behavior.
type SearchConfig struct {
	// TopK is the number of nearest neighbors considered per query.
	// Default: 20
	TopK int `koanf:"top_k"`

	// NearbyRadiusKm is the radius used for "nearby now" searches.
	// Default: 5
	NearbyRadiusKm float64 `koanf:"nearby_radius_km"`

	// PlanningRadiusMiles is the radius used once the user is planning a day.
	// Default: 30
	PlanningRadiusMiles float64 `koanf:"planning_radius_miles"`

	// MinSimilarity drops hits whose raw cosine similarity is below it.
	// Values <= -1 disable the cutoff.
	// Default: 0.1
	MinSimilarity float64 `koanf:"min_similarity"`

	// PreferenceEpsilon is the score boost per liked category and the
	// penalty per disliked category.
	// Default: 0.05
	PreferenceEpsilon float64 `koanf:"preference_epsilon"`

	// BatchSize is the number of candidates served per turn. With a value
	// above 1 a like applies to every candidate shown since the last search.
	// Default: 1
	BatchSize int `koanf:"batch_size"`
}

// PlanningRadiusKm returns the planning radius in kilometers.
func (s SearchConfig) PlanningRadiusKm() float64 {
	return s.PlanningRadiusMiles * kmPerMile
}

// PlannerConfig controls day-planning mode.
type PlannerConfig struct {
	// MaxStops caps the number of stops on an itinerary.
	// Default: 5
	MaxStops int `koanf:"max_stops"`
}

// CatalogConfig describes where business records come from.
type CatalogConfig struct {
	// Source is the catalog backend: duckdb or json.
	// Default: json
	Source string `koanf:"source"`

	// Path is the DuckDB database file or the JSON/JSON-lines file.
	Path string `koanf:"path"`

	// Table is the DuckDB table holding business rows.
	// Default: business_embeddings
	Table string `koanf:"table"`

	// RefreshInterval is how often the catalog is rebuilt from the source.
	// Zero disables periodic refresh.
	// Default: 1h
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// PreferencesConfig selects the durable preference store.
type PreferencesConfig struct {
	// Backend is one of memory, badger, redis.
	// Default: badger
	Backend string `koanf:"backend"`

	// BadgerPath is the Badger data directory.
	// Default: /data/preferences
	BadgerPath string `koanf:"badger_path"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// RedisPrefix namespaces preference keys.
	// Default: wayfinder:prefs:
	RedisPrefix string `koanf:"redis_prefix"`
}

// EmbeddingConfig describes the embeddings endpoint.
type EmbeddingConfig struct {
	// BaseURL of an OpenAI-compatible API, e.g. http://localhost:11434/v1 for Ollama.
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`

	// Model must produce vectors with the catalog's dimension.
	// Default: all-minilm
	Model string `koanf:"model"`

	// CacheSize bounds the number of memoized query embeddings.
	// Default: 1024
	CacheSize int `koanf:"cache_size"`

	Timeout time.Duration `koanf:"timeout"`
}

// GenerationConfig describes the text generation endpoint.
type GenerationConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Temperature float32       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
}

// GeocoderConfig describes the Nominatim endpoint.
type GeocoderConfig struct {
	// BaseURL of a Nominatim instance.
	// Default: https://nominatim.openstreetmap.org
	BaseURL string `koanf:"base_url"`

	// UserAgent is required by the Nominatim usage policy.
	UserAgent string `koanf:"user_agent"`

	// RatePerSecond caps outgoing requests.
	// Default: 1
	RatePerSecond float64 `koanf:"rate_per_second"`

	// CacheTTL is how long resolved places are remembered.
	// Default: 24h
	CacheTTL time.Duration `koanf:"cache_ttl"`

	Timeout time.Duration `koanf:"timeout"`
}

// BreakerConfig is shared by every collaborator circuit breaker.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	FailureRatio float64       `koanf:"failure_ratio"`
	MinRequests  uint32        `koanf:"min_requests"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the endpoint.
	Addr string `koanf:"addr"`
}

// Load reads configuration from defaults, an optional YAML file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
