// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that configuration is complete and within bounds.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateMongo,
		c.validateGeocoder,
		c.validateAggregation,
		c.validateLedger,
		c.validateAPI,
		c.validateRateLimits,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	if c.Database.CheckpointInterval < 0 {
		return fmt.Errorf("DUCKDB_CHECKPOINT_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateMongo() error {
	if !c.Mongo.Enabled {
		return nil
	}
	if !strings.HasPrefix(c.Mongo.URI, "mongodb://") && !strings.HasPrefix(c.Mongo.URI, "mongodb+srv://") {
		return fmt.Errorf("MONGO_URI must start with mongodb:// or mongodb+srv://")
	}
	if c.Mongo.Database == "" || c.Mongo.Collection == "" {
		return fmt.Errorf("MONGO_DATABASE and MONGO_COLLECTION are required when MONGO_ENABLED=true")
	}
	return nil
}

var validPersistentCaches = map[string]bool{
	"none":   true,
	"badger": true,
	"redis":  true,
}

func (c *Config) validateGeocoder() error {
	g := c.Geocoder
	if !g.Enabled {
		return nil
	}
	if u, err := url.Parse(g.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("GEOCODER_BASE_URL must be an absolute URL")
	}
	if g.UserAgent == "" {
		return fmt.Errorf("GEOCODER_USER_AGENT is required by the Nominatim usage policy")
	}
	if g.RequestsPerSecond <= 0 {
		return fmt.Errorf("GEOCODER_RPS must be positive")
	}
	if !validPersistentCaches[g.PersistentCache] {
		return fmt.Errorf("GEOCODER_PERSISTENT_CACHE must be one of: none, badger, redis")
	}
	if g.PersistentCache == "badger" && g.BadgerPath == "" {
		return fmt.Errorf("GEOCODER_BADGER_PATH is required when GEOCODER_PERSISTENT_CACHE=badger")
	}
	if g.PersistentCache == "redis" && g.RedisURL == "" {
		return fmt.Errorf("GEOCODER_REDIS_URL is required when GEOCODER_PERSISTENT_CACHE=redis")
	}
	return nil
}

func (c *Config) validateAggregation() error {
	a := c.Aggregation
	if a.DefaultRadiusKm <= 0 || a.MaxRadiusKm <= 0 {
		return fmt.Errorf("near-me radius settings must be positive")
	}
	if a.DefaultRadiusKm > a.MaxRadiusKm {
		return fmt.Errorf("NEAR_ME_DEFAULT_RADIUS_KM (%.1f) exceeds NEAR_ME_MAX_RADIUS_KM (%.1f)", a.DefaultRadiusKm, a.MaxRadiusKm)
	}
	if a.CandidateWindow < 1 {
		return fmt.Errorf("NEAR_ME_CANDIDATE_WINDOW must be at least 1")
	}
	return nil
}

func (c *Config) validateLedger() error {
	switch c.Ledger.Backend {
	case "gochannel":
	case "nats":
		if c.NATS.URL == "" {
			return fmt.Errorf("NATS_URL is required when LEDGER_BACKEND=nats")
		}
	default:
		return fmt.Errorf("LEDGER_BACKEND must be one of: gochannel, nats")
	}
	if c.Ledger.Topic == "" {
		return fmt.Errorf("LEDGER_TOPIC is required")
	}
	if c.Ledger.MaxRetries < 0 {
		return fmt.Errorf("LEDGER_MAX_RETRIES must not be negative")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be >= API_DEFAULT_PAGE_SIZE")
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
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

// HasWildcardCORS reports whether any allowed origin is "*".
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
