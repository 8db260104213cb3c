// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package main is the entry point for the Wayfinder assistant.
//
// Wayfinder recommends nearby businesses in conversation. A user describes
// what they want ("coffee with wifi in Philadelphia, PA"); the assistant
// geocodes the place, embeds the request, ranks the catalog inside the
// search radius and asks a language model to present the best match.
// Feedback ("not a fan", "something else", "perfect!") steers the session.
//
// # Startup
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Catalog: load from DuckDB or JSON and build the in-memory index
//  3. Preferences: memory, BadgerDB or Redis
//  4. Collaborators: embeddings, chat completions and Nominatim, each behind a circuit breaker
//  5. Supervisor tree: periodic catalog refresh and the optional /metrics endpoint
//  6. Conversation loop on stdin/stdout, opening with a suggestion from the
//     user's liked categories when a starting location is known
//
// # Example Usage
//
//	export CATALOG_PATH=./businesses.jsonl
//	export EMBEDDING_BASE_URL=http://localhost:11434/v1
//	export GENERATION_BASE_URL=http://localhost:11434/v1
//	export GENERATION_MODEL=llama3.2
//	./wayfinder -user alice -location "Philadelphia, PA" -seed "cafes,bakeries"
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context: the conversation loop stops,
// the supervisor tree shuts down and stores are closed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/wayfinder/internal/assistant"
	"github.com/tomtom215/wayfinder/internal/catalog"
	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/logging"
	"github.com/tomtom215/wayfinder/internal/preference"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/supervisor"
	"github.com/tomtom215/wayfinder/internal/supervisor/services"
)

type flags struct {
	configPath string
	userID     string
	location   string
	seed       string
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("wayfinder", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file (default: search standard locations)")
	fs.StringVar(&f.userID, "user", "guest", "user id whose preferences are loaded and updated")
	fs.StringVar(&f.location, "location", "", "starting location, e.g. \"Philadelphia, PA\"")
	fs.StringVar(&f.seed, "seed", "", "comma-separated categories to add to the user's likes before starting")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	if f.userID == "" {
		return flags{}, errors.New("-user must not be empty")
	}
	return f, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logger := logging.Logger()

	logging.Info().
		Str("catalog_source", cfg.Catalog.Source).
		Str("preferences_backend", cfg.Preferences.Backend).
		Str("user", f.userID).
		Msg("Starting Wayfinder")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// === CATALOG ===

	source, closeSource, err := initCatalogSource(cfg, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open catalog source")
	}
	defer closeSource()

	holder := catalog.NewHolder()
	refresher := catalog.NewRefresher(source, holder, catalog.BuildOptions{}, logger)
	if _, err := refresher.Refresh(ctx); err != nil {
		closeSource()
		logging.Fatal().Err(err).Msg("Failed to load catalog")
	}

	// === PREFERENCES ===

	store, closeStore, err := initPreferenceStore(ctx, cfg, logger)
	if err != nil {
		closeSource()
		logging.Fatal().Err(err).Msg("Failed to open preference store")
	}
	defer closeStore()

	if f.seed != "" {
		if err := preference.Seed(ctx, store, f.userID, catalog.ParseCategories(f.seed)); err != nil {
			logging.Warn().Err(err).Msg("Failed to seed preferences")
		}
	}

	// === RECOMMENDATION ===

	ranker, err := recommend.NewRanker(holder, rankerConfig(cfg), logger)
	if err != nil {
		closeStore()
		closeSource()
		logging.Fatal().Err(err).Msg("Failed to create ranker")
	}

	session := recommend.NewSession(f.userID, ranker, store, logger)
	conv := assistant.New(session, initCollaborators(cfg, logger), assistant.OptionsFromConfig(cfg), logger)

	if f.location != "" {
		if err := conv.Locate(ctx, f.location); err != nil {
			logging.Warn().Err(err).Str("location", f.location).Msg("Starting location could not be resolved")
		}
	}

	// === SUPERVISOR TREE ===

	tree := supervisor.NewTree(logging.NewSlogLogger(logging.WithComponent("supervisor")), supervisor.DefaultTreeConfig())

	if cfg.Catalog.RefreshInterval > 0 {
		tree.AddDataService(services.NewCatalogRefreshService(refresher, services.CatalogRefreshConfig{
			Interval: cfg.Catalog.RefreshInterval,
		}, logger))
	}
	if cfg.Metrics.Addr != "" {
		tree.AddObservabilityService(services.NewMetricsServerService(services.NewMetricsServer(cfg.Metrics.Addr), 5*time.Second))
		logging.Info().Str("addr", cfg.Metrics.Addr).Msg("Metrics endpoint enabled")
	}

	errCh := tree.ServeBackground(ctx)

	// === CONVERSATION ===

	if err := runREPL(ctx, conv, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Conversation loop failed")
	}
	cancel()

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Wayfinder stopped")
}

func rankerConfig(cfg *config.Config) *recommend.Config {
	rc := recommend.DefaultConfig()
	rc.TopK = cfg.Search.TopK
	rc.RadiusKm = cfg.Search.NearbyRadiusKm
	rc.MinSimilarity = cfg.Search.MinSimilarity
	rc.PreferenceEpsilon = cfg.Search.PreferenceEpsilon
	rc.BatchSize = cfg.Search.BatchSize
	return rc
}
