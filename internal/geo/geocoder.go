// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package geo resolves free-text locations to coordinates and measures
// distances between them.
//
// Geocoding goes through three tiers: an in-process LRU, an optional
// persistent Store (BadgerDB or Redis), and finally the Nominatim search API.
// Upstream calls are rate limited and wrapped in a circuit breaker so that a
// slow or failing geocoder degrades reads instead of stalling them.
package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/eventhub/internal/cache"
	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

var (
	// ErrEmptyLocation is returned for blank input.
	ErrEmptyLocation = errors.New("geocode: empty location")
	// ErrNoResults is returned when the geocoder knows no such place.
	ErrNoResults = errors.New("geocode: no results")
	// ErrDisabled is returned by a Geocoder built with geocoding turned off.
	ErrDisabled = errors.New("geocode: disabled")
)

const breakerName = "nominatim"

// Store is a persistent cache tier shared across restarts or replicas.
type Store interface {
	Get(ctx context.Context, key string) (models.Coordinates, bool, error)
	Set(ctx context.Context, key string, c models.Coordinates, ttl time.Duration) error
	Close() error
}

type cachedResult struct {
	coords models.Coordinates
	found  bool
}

// Geocoder resolves location text to coordinates. It is safe for concurrent use.
type Geocoder struct {
	enabled   bool
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	cb        *gobreaker.CircuitBreaker[interface{}]

	memory   *cache.LRU[cachedResult]
	store    Store
	cacheTTL time.Duration
}

// NewGeocoder creates a geocoder from cfg. store may be nil.
func NewGeocoder(cfg *config.GeocoderConfig, store Store) *Geocoder {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	g := &Geocoder{
		enabled:   cfg.Enabled,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		memory:    cache.NewLRU[cachedResult](cfg.CacheSize, ttl),
		store:     store,
		cacheTTL:  ttl,
	}
	g.cb = newBreaker(cfg.BreakerFailures, cfg.BreakerTimeout)
	return g
}

// newBreaker opens after minFailures requests in a window when at least 60%
// of them failed. ErrNoResults is a successful call as far as the breaker
// is concerned.
func newBreaker(minFailures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[interface{}] {
	if minFailures == 0 {
		minFailures = 5
	}
	if timeout <= 0 {
		timeout = time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minFailures {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("Opening geocoder circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoResults) || errors.Is(err, context.Canceled)
		},
	})
}

// Geocode resolves text to coordinates. Results, including "no results",
// are cached, so repeated calls for the same text are answered locally.
func (g *Geocoder) Geocode(ctx context.Context, text string) (models.Coordinates, error) {
	key := cacheKey(text)
	if key == "" {
		return models.Coordinates{}, ErrEmptyLocation
	}
	if !g.enabled {
		return models.Coordinates{}, ErrDisabled
	}

	if r, ok := g.memory.Get(key); ok {
		metrics.GeocodeCacheHits.WithLabelValues("memory").Inc()
		if !r.found {
			return models.Coordinates{}, ErrNoResults
		}
		return r.coords, nil
	}

	if g.store != nil {
		c, ok, err := g.store.Get(ctx, key)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Persistent geocode cache read failed")
		} else if ok {
			metrics.GeocodeCacheHits.WithLabelValues(storeTier(g.store)).Inc()
			g.memory.Add(key, cachedResult{coords: c, found: true})
			return c, nil
		}
	}

	metrics.GeocodeCacheMisses.Inc()
	c, err := g.lookup(ctx, text)
	switch {
	case errors.Is(err, ErrNoResults):
		// Negative results expire sooner so a corrected map entry shows up.
		g.memory.AddWithTTL(key, cachedResult{}, g.cacheTTL/24)
		return models.Coordinates{}, err
	case err != nil:
		return models.Coordinates{}, err
	}

	g.memory.Add(key, cachedResult{coords: c, found: true})
	if g.store != nil {
		if err := g.store.Set(ctx, key, c, g.cacheTTL); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Persistent geocode cache write failed")
		}
	}
	return c, nil
}

// lookup performs one rate-limited, breaker-protected upstream request.
func (g *Geocoder) lookup(ctx context.Context, text string) (models.Coordinates, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return models.Coordinates{}, fmt.Errorf("geocode rate limit: %w", err)
	}

	start := time.Now()
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.search(ctx, text)
	})

	outcome := "found"
	switch {
	case errors.Is(err, ErrNoResults):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.GeocodeUpstreamDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return models.Coordinates{}, err
	}
	c, ok := result.(models.Coordinates)
	if !ok {
		return models.Coordinates{}, fmt.Errorf("geocode: unexpected result type %T", result)
	}
	return c, nil
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *Geocoder) search(ctx context.Context, text string) (models.Coordinates, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", strings.TrimSpace(text))
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), http.NoBody)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("create geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return models.Coordinates{}, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&places); err != nil {
		return models.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(places) == 0 {
		return models.Coordinates{}, ErrNoResults
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse longitude %q: %w", places[0].Lon, err)
	}
	c := models.Coordinates{Latitude: lat, Longitude: lon}
	if err := models.ValidateCoordinates(c); err != nil {
		return models.Coordinates{}, fmt.Errorf("geocode result: %w", err)
	}
	return c, nil
}

// Close releases the persistent tier.
func (g *Geocoder) Close() error {
	if g.store == nil {
		return nil
	}
	return g.store.Close()
}

// cacheKey folds case and whitespace so "Gates  Hall" and "gates hall" share an entry.
func cacheKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func storeTier(s Store) string {
	switch s.(type) {
	case *BadgerStore:
		return "badger"
	case *RedisStore:
		return "redis"
	}
	return "persistent"
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
