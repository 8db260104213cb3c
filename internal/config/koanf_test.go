// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Search.NearbyRadiusKm != 5 {
		t.Errorf("Search.NearbyRadiusKm = %v, want 5", cfg.Search.NearbyRadiusKm)
	}
	if cfg.Search.PlanningRadiusMiles != 30 {
		t.Errorf("Search.PlanningRadiusMiles = %v, want 30", cfg.Search.PlanningRadiusMiles)
	}
	if cfg.Search.TopK != 20 {
		t.Errorf("Search.TopK = %d, want 20", cfg.Search.TopK)
	}
	if cfg.Search.PreferenceEpsilon != 0.05 {
		t.Errorf("Search.PreferenceEpsilon = %v, want 0.05", cfg.Search.PreferenceEpsilon)
	}
	if cfg.Search.BatchSize != 1 {
		t.Errorf("Search.BatchSize = %d, want 1", cfg.Search.BatchSize)
	}
	if cfg.Preferences.Backend != "badger" {
		t.Errorf("Preferences.Backend = %q, want badger", cfg.Preferences.Backend)
	}
	if cfg.Catalog.RefreshInterval != time.Hour {
		t.Errorf("Catalog.RefreshInterval = %v, want 1h", cfg.Catalog.RefreshInterval)
	}
	if cfg.Geocoder.RatePerSecond != 1 {
		t.Errorf("Geocoder.RatePerSecond = %v, want 1", cfg.Geocoder.RatePerSecond)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() = %v, want nil", err)
	}
}

func TestPlanningRadiusKm(t *testing.T) {
	t.Parallel()

	s := SearchConfig{PlanningRadiusMiles: 30}
	got := s.PlanningRadiusKm()
	if math.Abs(got-48.28032) > 1e-6 {
		t.Errorf("PlanningRadiusKm() = %v, want 48.28032", got)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FORMAT", "logging.format"},
		{"SEARCH_RADIUS_KM", "search.nearby_radius_km"},
		{"SEARCH_TOP_K", "search.top_k"},
		{"SEARCH_BATCH_SIZE", "search.batch_size"},
		{"CATALOG_SOURCE", "catalog.source"},
		{"CATALOG_PATH", "catalog.path"},
		{"PREFERENCES_BACKEND", "preferences.backend"},
		{"REDIS_ADDR", "preferences.redis_addr"},
		{"EMBEDDING_MODEL", "embedding.model"},
		{"GENERATION_MODEL", "generation.model"},
		{"GEOCODER_USER_AGENT", "geocoder.user_agent"},
		{"BREAKER_TIMEOUT", "breaker.timeout"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, configPath)
	if got := findConfigFile(); got != configPath {
		t.Errorf("findConfigFile() = %q, want %q", got, configPath)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(tmpDir, "missing.yaml"))
	if got := findConfigFile(); got == filepath.Join(tmpDir, "missing.yaml") {
		t.Errorf("findConfigFile() returned a path that does not exist: %q", got)
	}
}

func TestLoadFileConfig(t *testing.T) {
	configContent := `
logging:
  level: warn
search:
  nearby_radius_km: 3.5
  batch_size: 2
catalog:
  source: duckdb
  path: /tmp/catalog.duckdb
  refresh_interval: 15m
preferences:
  backend: memory
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Search.NearbyRadiusKm != 3.5 {
		t.Errorf("Search.NearbyRadiusKm = %v, want 3.5", cfg.Search.NearbyRadiusKm)
	}
	if cfg.Search.BatchSize != 2 {
		t.Errorf("Search.BatchSize = %d, want 2", cfg.Search.BatchSize)
	}
	if cfg.Catalog.Source != "duckdb" {
		t.Errorf("Catalog.Source = %q, want duckdb", cfg.Catalog.Source)
	}
	if cfg.Catalog.RefreshInterval != 15*time.Minute {
		t.Errorf("Catalog.RefreshInterval = %v, want 15m", cfg.Catalog.RefreshInterval)
	}

	// Unset values keep their defaults
	if cfg.Search.TopK != 20 {
		t.Errorf("Search.TopK = %d, want 20 (default)", cfg.Search.TopK)
	}
	if cfg.Catalog.Table != "business_embeddings" {
		t.Errorf("Catalog.Table = %q, want business_embeddings (default)", cfg.Catalog.Table)
	}
}

func TestLoadFileEnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("search:\n  nearby_radius_km: 3\n"), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	t.Setenv("SEARCH_RADIUS_KM", "8")
	t.Setenv("PREFERENCES_BACKEND", "memory")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Search.NearbyRadiusKm != 8 {
		t.Errorf("Search.NearbyRadiusKm = %v, want 8 (env override)", cfg.Search.NearbyRadiusKm)
	}
	if cfg.Preferences.Backend != "memory" {
		t.Errorf("Preferences.Backend = %q, want memory", cfg.Preferences.Backend)
	}
}

func TestLoadFileValidationFailure(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("search:\n  top_k: 0\n"), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	if _, err := LoadFile(configPath); err == nil {
		t.Error("LoadFile() expected validation error for top_k = 0")
	}
}
