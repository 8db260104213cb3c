// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/assistant"
	"github.com/tomtom215/wayfinder/internal/catalog"
	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/preference"
	"github.com/tomtom215/wayfinder/internal/provider"
)

// initCatalogSource opens the configured catalog source. The returned close
// function is safe to call more than once.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initCatalogSource(cfg *config.Config, logger zerolog.Logger) (catalog.Source, func(), error) {
	switch cfg.Catalog.Source {
	case "duckdb":
		db, err := catalog.OpenDuckDB(cfg.Catalog.Path)
		if err != nil {
			return nil, nil, err
		}
		src, err := catalog.NewDuckDBSource(db, cfg.Catalog.Table, logger)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return src, onceCloser(func() error { return db.Close() }, "duckdb", logger), nil

	case "json":
		return catalog.NewJSONSource(cfg.Catalog.Path, logger), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// initPreferenceStore opens the configured preference backend.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initPreferenceStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (preference.Store, func(), error) {
	p := cfg.Preferences
	switch p.Backend {
	case "memory":
		return preference.NewMemoryStore(), func() {}, nil

	case "badger":
		db, err := preference.OpenBadger(p.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return preference.NewBadgerStore(db), onceCloser(db.Close, "badger", logger), nil

	case "redis":
		rdb, err := preference.NewRedisClient(ctx, preference.RedisOptions{
			Addr:     p.RedisAddr,
			Password: p.RedisPassword,
			DB:       p.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return preference.NewRedisStore(rdb, p.RedisPrefix), onceCloser(rdb.Close, "redis", logger), nil

	default:
		return nil, nil, fmt.Errorf("unknown preferences backend %q", p.Backend)
	}
}

// initCollaborators builds the external collaborators, each behind its own
// circuit breaker.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initCollaborators(cfg *config.Config, logger zerolog.Logger) assistant.Collaborators {
	return assistant.Collaborators{
		Embedder: provider.NewBreakerEmbedder(
			provider.NewOpenAIEmbedder(&cfg.Embedding, logger),
			provider.NewBreaker(provider.NameEmbedder, &cfg.Breaker, logger),
		),
		Geocoder: provider.NewBreakerGeocoder(
			provider.NewNominatimGeocoder(&cfg.Geocoder, logger),
			provider.NewBreaker(provider.NameGeocoder, &cfg.Breaker, logger),
		),
		Generator: provider.NewBreakerGenerator(
			provider.NewOpenAIGenerator(&cfg.Generation, logger),
			provider.NewBreaker(provider.NameGenerator, &cfg.Breaker, logger),
		),
	}
}

//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func onceCloser(closeFn func() error, name string, logger zerolog.Logger) func() {
	closed := false
	return func() {
		if closed {
			return
		}
		closed = true
		if err := closeFn(); err != nil {
			logger.Error().Err(err).Str("store", name).Msg("Error closing")
		}
	}
}
