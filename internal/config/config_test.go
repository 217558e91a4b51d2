// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return defaultConfig()
}

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Mongo.Collection != "externalEvents" {
		t.Errorf("Mongo.Collection = %q, want externalEvents", cfg.Mongo.Collection)
	}
	if cfg.Geocoder.RequestsPerSecond != 1 {
		t.Errorf("Geocoder.RequestsPerSecond = %v, want 1", cfg.Geocoder.RequestsPerSecond)
	}
	if cfg.Aggregation.DefaultRadiusKm != 20 {
		t.Errorf("Aggregation.DefaultRadiusKm = %v, want 20", cfg.Aggregation.DefaultRadiusKm)
	}
	if cfg.Ledger.Backend != "gochannel" {
		t.Errorf("Ledger.Backend = %q, want gochannel", cfg.Ledger.Backend)
	}
	if cfg.API.DefaultPageSize != 20 {
		t.Errorf("API.DefaultPageSize = %d, want 20", cfg.API.DefaultPageSize)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "bad mongo uri",
			mutate:  func(c *Config) { c.Mongo.URI = "http://localhost" },
			wantErr: "MONGO_URI",
		},
		{
			name: "mongo disabled skips uri check",
			mutate: func(c *Config) {
				c.Mongo.Enabled = false
				c.Mongo.URI = ""
			},
		},
		{
			name:    "unknown persistent cache",
			mutate:  func(c *Config) { c.Geocoder.PersistentCache = "memcached" },
			wantErr: "GEOCODER_PERSISTENT_CACHE",
		},
		{
			name: "redis cache without url",
			mutate: func(c *Config) {
				c.Geocoder.PersistentCache = "redis"
				c.Geocoder.RedisURL = ""
			},
			wantErr: "GEOCODER_REDIS_URL",
		},
		{
			name:    "zero rps",
			mutate:  func(c *Config) { c.Geocoder.RequestsPerSecond = 0 },
			wantErr: "GEOCODER_RPS",
		},
		{
			name:    "default radius above max",
			mutate:  func(c *Config) { c.Aggregation.DefaultRadiusKm = 1000 },
			wantErr: "exceeds",
		},
		{
			name:    "unknown ledger backend",
			mutate:  func(c *Config) { c.Ledger.Backend = "kafka" },
			wantErr: "LEDGER_BACKEND",
		},
		{
			name: "nats backend needs url",
			mutate: func(c *Config) {
				c.Ledger.Backend = "nats"
				c.NATS.URL = ""
			},
			wantErr: "NATS_URL",
		},
		{
			name:    "max page below default",
			mutate:  func(c *Config) { c.API.MaxPageSize = 5 },
			wantErr: "API_MAX_PAGE_SIZE",
		},
		{
			name:    "rate limit window too short",
			mutate:  func(c *Config) { c.Security.RateLimitWindow = time.Millisecond },
			wantErr: "RATE_LIMIT_WINDOW",
		},
		{
			name: "rate limit disabled skips bounds",
			mutate: func(c *Config) {
				c.Security.RateLimitDisabled = true
				c.Security.RateLimitReqs = 0
			},
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHasWildcardCORS(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if !cfg.HasWildcardCORS() {
		t.Error("default origins should contain the wildcard")
	}
	cfg.Security.CORSOrigins = []string{"https://events.example.edu"}
	if cfg.HasWildcardCORS() {
		t.Error("explicit origin list should not report a wildcard")
	}
}
