// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wayfinder/config.yaml",
	"/etc/wayfinder/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
		Search: SearchConfig{
			TopK:                20,
			NearbyRadiusKm:      5,
			PlanningRadiusMiles: 30,
			MinSimilarity:       0.1,
			PreferenceEpsilon:   0.05,
			BatchSize:           1,
		},
		Planner: PlannerConfig{
			MaxStops: 5,
		},
		Catalog: CatalogConfig{
			Source:          "json",
			Path:            "/data/catalog.jsonl",
			Table:           "business_embeddings",
			RefreshInterval: time.Hour,
		},
		Preferences: PreferencesConfig{
			Backend:     "badger",
			BadgerPath:  "/data/preferences",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "wayfinder:prefs:",
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "http://127.0.0.1:11434/v1",
			Model:     "all-minilm",
			CacheSize: 1024,
			Timeout:   30 * time.Second,
		},
		Generation: GenerationConfig{
			BaseURL:     "http://127.0.0.1:11434/v1",
			Model:       "llama3",
			Temperature: 0.4,
			MaxTokens:   400,
			Timeout:     60 * time.Second,
		},
		Geocoder: GeocoderConfig{
			BaseURL:       "https://nominatim.openstreetmap.org",
			UserAgent:     "wayfinder/1.0",
			RatePerSecond: 1,
			CacheTTL:      24 * time.Hour,
			Timeout:       10 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			FailureRatio: 0.6,
			MinRequests:  5,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

// LoadFile loads configuration with an explicit YAML file in place of the
// default search paths. Environment variables still take precedence.
func LoadFile(path string) (*Config, error) {
	return loadFrom(path)
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"search_top_k":                 "search.top_k",
	"search_radius_km":             "search.nearby_radius_km",
	"search_planning_radius_miles": "search.planning_radius_miles",
	"search_min_similarity":        "search.min_similarity",
	"search_preference_epsilon":    "search.preference_epsilon",
	"search_batch_size":            "search.batch_size",

	"planner_max_stops": "planner.max_stops",

	"catalog_source":           "catalog.source",
	"catalog_path":             "catalog.path",
	"catalog_table":            "catalog.table",
	"catalog_refresh_interval": "catalog.refresh_interval",

	"preferences_backend": "preferences.backend",
	"preferences_path":    "preferences.badger_path",
	"redis_addr":          "preferences.redis_addr",
	"redis_password":      "preferences.redis_password",
	"redis_db":            "preferences.redis_db",
	"redis_prefix":        "preferences.redis_prefix",

	"embedding_base_url":   "embedding.base_url",
	"embedding_api_key":    "embedding.api_key",
	"embedding_model":      "embedding.model",
	"embedding_cache_size": "embedding.cache_size",
	"embedding_timeout":    "embedding.timeout",

	"generation_base_url":    "generation.base_url",
	"generation_api_key":     "generation.api_key",
	"generation_model":       "generation.model",
	"generation_temperature": "generation.temperature",
	"generation_max_tokens":  "generation.max_tokens",
	"generation_timeout":     "generation.timeout",

	"geocoder_base_url":   "geocoder.base_url",
	"geocoder_user_agent": "geocoder.user_agent",
	"geocoder_rate":       "geocoder.rate_per_second",
	"geocoder_cache_ttl":  "geocoder.cache_ttl",
	"geocoder_timeout":    "geocoder.timeout",

	"breaker_max_requests":  "breaker.max_requests",
	"breaker_interval":      "breaker.interval",
	"breaker_timeout":       "breaker.timeout",
	"breaker_failure_ratio": "breaker.failure_ratio",
	"breaker_min_requests":  "breaker.min_requests",

	"metrics_addr": "metrics.addr",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - SEARCH_RADIUS_KM -> search.nearby_radius_km
//   - CATALOG_SOURCE -> catalog.source
//
// Unknown variables return an empty path, which koanf skips.
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
