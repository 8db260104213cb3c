// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/geo"
	"github.com/tomtom215/wayfinder/internal/metrics"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimGeocoder resolves place names with the Nominatim search API.
//
// Requests are rate limited (the public instance allows one per second) and
// answers are cached, including "not found" answers.
type NominatimGeocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	cache     *gocache.Cache
	logger    zerolog.Logger
}

// nominatimPlace is one element of a jsonv2 search response. Nominatim
// encodes coordinates as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type cachedPlace struct {
	point geo.Point
	found bool
}

// NewNominatimGeocoder creates a geocoder from cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewNominatimGeocoder(cfg *config.GeocoderConfig, logger zerolog.Logger) *NominatimGeocoder {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}

	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &NominatimGeocoder{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		cache:     gocache.New(ttl, 10*time.Minute),
		logger:    logger.With().Str("component", "geocoder").Logger(),
	}
}

// Geocode implements Geocoder. Place names are matched case-insensitively
// against the cache.
func (g *NominatimGeocoder) Geocode(ctx context.Context, place string) (geo.Point, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return geo.Missing(), ErrEmptyInput
	}
	key := strings.ToLower(place)

	if cached, ok := g.cache.Get(key); ok {
		if entry, isPlace := cached.(cachedPlace); isPlace {
			metrics.CollaboratorCacheHits.WithLabelValues(NameGeocoder).Inc()
			if !entry.found {
				return geo.Missing(), fmt.Errorf("%q: %w", place, ErrPlaceNotFound)
			}
			return entry.point, nil
		}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return geo.Missing(), fmt.Errorf("geocoder rate limit wait: %w", err)
	}

	start := time.Now()
	p, err := g.search(ctx, place)
	metrics.RecordCollaboratorCall(NameGeocoder, time.Since(start), err)

	switch {
	case err == nil:
		g.cache.Set(key, cachedPlace{point: p, found: true}, gocache.DefaultExpiration)
		g.logger.Debug().Str("place", place).Str("point", p.String()).Msg("Resolved place")
		return p, nil
	case errors.Is(err, ErrPlaceNotFound):
		g.cache.Set(key, cachedPlace{found: false}, gocache.DefaultExpiration)
		g.logger.Info().Str("place", place).Msg("Place not found")
		return geo.Missing(), err
	default:
		g.logger.Warn().Err(err).Str("place", place).Msg("Geocoding request failed")
		return geo.Missing(), err
	}
}

func (g *NominatimGeocoder) search(ctx context.Context, place string) (geo.Point, error) {
	q := url.Values{}
	q.Set("q", place)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), http.NoBody)
	if err != nil {
		return geo.Missing(), fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return geo.Missing(), fmt.Errorf("failed to query nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Missing(), fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return geo.Missing(), fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(places) == 0 {
		return geo.Missing(), fmt.Errorf("%q: %w", place, ErrPlaceNotFound)
	}

	g.logger.Debug().Str("place", place).Str("match", places[0].DisplayName).Msg("Nominatim match")
	return parsePlace(places[0])
}

func parsePlace(p nominatimPlace) (geo.Point, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return geo.Missing(), fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return geo.Missing(), fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}
	return geo.NewPoint(lat, lon)
}
