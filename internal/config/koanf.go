// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

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

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/eventhub/config.yaml",
	"/etc/eventhub/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:               "/data/eventhub.duckdb",
			MaxMemory:          "1GB",
			MaxOpenConns:       8,
			CheckpointInterval: 5 * time.Minute,
		},
		Mongo: MongoConfig{
			Enabled:        true,
			URI:            "mongodb://localhost:27017",
			Database:       "eventhub",
			Collection:     "externalEvents",
			ConnectTimeout: 10 * time.Second,
			EnsureIndexes:  true,
		},
		Geocoder: GeocoderConfig{
			Enabled:           true,
			BaseURL:           "https://nominatim.openstreetmap.org",
			UserAgent:         "EventHub/1.0 (+https://github.com/tomtom215/eventhub)",
			Timeout:           5 * time.Second,
			RequestsPerSecond: 1,
			Burst:             1,
			CacheSize:         10000,
			CacheTTL:          24 * time.Hour,
			PersistentCache:   "none",
			BadgerPath:        "/data/geocode-cache",
			BreakerFailures:   5,
			BreakerTimeout:    60 * time.Second,
		},
		Aggregation: AggregationConfig{
			DefaultRadiusKm: 20,
			MaxRadiusKm:     500,
			CandidateWindow: 500,
		},
		Ledger: LedgerConfig{
			Backend:         "gochannel",
			Topic:           "ledger.retry",
			PoisonTopic:     "ledger.retry.poison",
			MaxRetries:      5,
			InitialInterval: time.Second,
			MaxInterval:     time.Minute,
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			DurablePrefix: "eventhub",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     500,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with this precedence: ENV > file > defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// MONGO_URI -> mongo.uri, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
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

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored so unrelated environment cannot leak in.
var envMappings = map[string]string{
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"duckdb_path":                "database.path",
	"duckdb_max_memory":          "database.max_memory",
	"duckdb_threads":             "database.threads",
	"duckdb_max_open_conns":      "database.max_open_conns",
	"duckdb_checkpoint_interval": "database.checkpoint_interval",

	"mongo_enabled":         "mongo.enabled",
	"mongo_uri":             "mongo.uri",
	"mongo_database":        "mongo.database",
	"mongo_collection":      "mongo.collection",
	"mongo_connect_timeout": "mongo.connect_timeout",
	"mongo_ensure_indexes":  "mongo.ensure_indexes",

	"geocoder_enabled":          "geocoder.enabled",
	"geocoder_base_url":         "geocoder.base_url",
	"geocoder_user_agent":       "geocoder.user_agent",
	"geocoder_timeout":          "geocoder.timeout",
	"geocoder_rps":              "geocoder.requests_per_second",
	"geocoder_burst":            "geocoder.burst",
	"geocoder_cache_size":       "geocoder.cache_size",
	"geocoder_cache_ttl":        "geocoder.cache_ttl",
	"geocoder_persistent_cache": "geocoder.persistent_cache",
	"geocoder_badger_path":      "geocoder.badger_path",
	"geocoder_redis_url":        "geocoder.redis_url",
	"geocoder_breaker_failures": "geocoder.breaker_failures",
	"geocoder_breaker_timeout":  "geocoder.breaker_timeout",

	"near_me_default_radius_km": "aggregation.default_radius_km",
	"near_me_max_radius_km":     "aggregation.max_radius_km",
	"near_me_candidate_window":  "aggregation.candidate_window",

	"ledger_backend":          "ledger.backend",
	"ledger_topic":            "ledger.topic",
	"ledger_poison_topic":     "ledger.poison_topic",
	"ledger_max_retries":      "ledger.max_retries",
	"ledger_initial_interval": "ledger.initial_interval",
	"ledger_max_interval":     "ledger.max_interval",

	"nats_url":            "nats.url",
	"nats_durable_prefix": "nats.durable_prefix",
	"nats_max_reconnects": "nats.max_reconnects",
	"nats_reconnect_wait": "nats.reconnect_wait",

	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	"cors_origins":        "security.cors_origins",
	"rate_limit_reqs":     "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"rate_limit_disabled": "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
