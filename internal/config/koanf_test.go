// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"MONGO_URI", "mongo.uri"},
		{"DUCKDB_PATH", "database.path"},
		{"HTTP_PORT", "server.port"},
		{"GEOCODER_PERSISTENT_CACHE", "geocoder.persistent_cache"},
		{"LEDGER_BACKEND", "ledger.backend"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"DISABLE_RATE_LIMIT", "security.rate_limit_disabled"},
		{"HOME", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("GEOCODER_CACHE_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example.edu, https://b.example.edu")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Mongo.URI != "mongodb://mongo:27017" {
		t.Errorf("Mongo.URI = %q", cfg.Mongo.URI)
	}
	if cfg.Geocoder.CacheTTL != 2*time.Hour {
		t.Errorf("Geocoder.CacheTTL = %v, want 2h", cfg.Geocoder.CacheTTL)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.edu" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// untouched defaults survive
	if cfg.Aggregation.CandidateWindow != 500 {
		t.Errorf("Aggregation.CandidateWindow = %d, want 500", cfg.Aggregation.CandidateWindow)
	}
}

func TestLoadWithKoanfFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
server:
  port: 7000
mongo:
  database: campus
aggregation:
  default_radius_km: 5
`)
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("env should override file: port = %d", cfg.Server.Port)
	}
	if cfg.Mongo.Database != "campus" {
		t.Errorf("Mongo.Database = %q, want campus", cfg.Mongo.Database)
	}
	if cfg.Aggregation.DefaultRadiusKm != 5 {
		t.Errorf("DefaultRadiusKm = %v, want 5", cfg.Aggregation.DefaultRadiusKm)
	}
}

func TestLoadWithKoanfRejectsInvalid(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("LEDGER_BACKEND", "kafka")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected validation error for unknown ledger backend")
	}
}
