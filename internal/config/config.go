// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package config loads EventHub configuration with koanf.
//
// Sources are layered defaults < YAML file < environment. The YAML file is
// optional and located through CONFIG_PATH or DefaultConfigPaths.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Mongo       MongoConfig       `koanf:"mongo"`
	Geocoder    GeocoderConfig    `koanf:"geocoder"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	Ledger      LedgerConfig      `koanf:"ledger"`
	NATS        NATSConfig        `koanf:"nats"`
	API         APIConfig         `koanf:"api"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// DatabaseConfig holds settings for the relational store of native events (DuckDB).
type DatabaseConfig struct {
	Path         string `koanf:"path"` // ":memory:" for an ephemeral store
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"` // 0 = NumCPU
	MaxOpenConns int    `koanf:"max_open_conns"`

	// CheckpointInterval is how often the WAL is flushed; 0 disables the
	// periodic checkpoint.
	CheckpointInterval time.Duration `koanf:"checkpoint_interval"`
}

// MongoConfig holds settings for the document store of external events.
//
// Environment Variables:
//   - MONGO_ENABLED: when false the EXTERNAL origin is skipped by every query
//   - MONGO_URI: connection string (default: mongodb://localhost:27017)
//   - MONGO_DATABASE / MONGO_COLLECTION
type MongoConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URI            string        `koanf:"uri"`
	Database       string        `koanf:"database"`
	Collection     string        `koanf:"collection"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	EnsureIndexes  bool          `koanf:"ensure_indexes"`
}

// GeocoderConfig holds settings for the Nominatim geocoder and its caches.
type GeocoderConfig struct {
	Enabled           bool          `koanf:"enabled"`
	BaseURL           string        `koanf:"base_url"`
	UserAgent         string        `koanf:"user_agent"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`

	// CacheSize and CacheTTL bound the in-process LRU tier.
	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`

	// PersistentCache selects the second tier: none, badger or redis.
	PersistentCache string `koanf:"persistent_cache"`
	BadgerPath      string `koanf:"badger_path"`
	RedisURL        string `koanf:"redis_url"`

	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// AggregationConfig tunes the cross-origin query engine.
type AggregationConfig struct {
	DefaultRadiusKm float64 `koanf:"default_radius_km"`
	MaxRadiusKm     float64 `koanf:"max_radius_km"`

	// CandidateWindow caps how many upcoming native events a near-me query
	// scans before the haversine filter.
	CandidateWindow int `koanf:"candidate_window"`
}

// LedgerConfig configures the retry queue for failed secondary-ledger writes.
type LedgerConfig struct {
	Backend         string        `koanf:"backend"` // gochannel or nats
	Topic           string        `koanf:"topic"`
	PoisonTopic     string        `koanf:"poison_topic"`
	MaxRetries      int           `koanf:"max_retries"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
}

// NATSConfig holds NATS settings used when Ledger.Backend is "nats".
type NATSConfig struct {
	URL           string        `koanf:"url"`
	DurablePrefix string        `koanf:"durable_prefix"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// APIConfig holds API pagination settings
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds CORS and rate limiting settings. Authentication is
// performed upstream; the gateway forwards the acting user in X-User-ID.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
