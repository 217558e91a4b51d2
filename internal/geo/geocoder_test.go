// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package geo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/models"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 40.7128, -74.0060, 40.7128, -74.0060, 0, 1e-9},
		{"new york to los angeles", 40.7128, -74.0060, 34.0522, -118.2437, 3936, 10},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 344, 5},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.05},
		{"antimeridian", 0, 179.5, 0, -179.5, 111.19, 0.05},
	}
	for _, tt := range tests {
		got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
		if math.Abs(got-tt.want) > tt.tolerance {
			t.Errorf("%s: Distance = %.3f, want %.3f ± %.3f", tt.name, got, tt.want, tt.tolerance)
		}
	}
}

func TestWithinRadiusBoundary(t *testing.T) {
	t.Parallel()

	center := models.Coordinates{Latitude: 40.0, Longitude: -74.0}
	// 0.09 degrees of latitude is roughly 10.0075 km.
	p := models.Coordinates{Latitude: 40.09, Longitude: -74.0}
	d := DistanceBetween(center, p)

	if got, ok := Within(center, p, d); !ok || got != d {
		t.Errorf("a point exactly at the radius should be inside, got %v %v", got, ok)
	}
	if _, ok := Within(center, p, d+1e-6); !ok {
		t.Error("radius + epsilon should include the point")
	}
	if _, ok := Within(center, p, d-1e-6); ok {
		t.Error("radius - epsilon should exclude the point")
	}
}

func nominatimServer(t *testing.T, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "json" || r.URL.Query().Get("limit") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "eventhub-test" {
			t.Errorf("missing User-Agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testGeocoderConfig(baseURL string) *config.GeocoderConfig {
	return &config.GeocoderConfig{
		Enabled:           true,
		BaseURL:           baseURL,
		UserAgent:         "eventhub-test",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             10,
		CacheSize:         100,
		CacheTTL:          time.Hour,
	}
}

func TestGeocodeCachesResult(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := nominatimServer(t, `[{"lat":"40.7128","lon":"-74.0060","display_name":"New York"}]`, &calls)
	g := NewGeocoder(testGeocoderConfig(srv.URL), nil)

	for i := 0; i < 3; i++ {
		c, err := g.Geocode(context.Background(), "  New   York ")
		if err != nil {
			t.Fatalf("Geocode: %v", err)
		}
		if c.Latitude != 40.7128 || c.Longitude != -74.0060 {
			t.Fatalf("Geocode = %+v", c)
		}
	}
	if _, err := g.Geocode(context.Background(), "new york"); err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := nominatimServer(t, `[]`, &calls)
	g := NewGeocoder(testGeocoderConfig(srv.URL), nil)

	for i := 0; i < 2; i++ {
		_, err := g.Geocode(context.Background(), "Atlantis")
		if !errors.Is(err, ErrNoResults) {
			t.Fatalf("Geocode err = %v, want ErrNoResults", err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("negative result not cached: upstream calls = %d", n)
	}
}

func TestGeocodeEmptyAndDisabled(t *testing.T) {
	t.Parallel()

	g := NewGeocoder(testGeocoderConfig("http://127.0.0.1:1"), nil)
	if _, err := g.Geocode(context.Background(), "   "); !errors.Is(err, ErrEmptyLocation) {
		t.Errorf("blank text err = %v, want ErrEmptyLocation", err)
	}

	cfg := testGeocoderConfig("http://127.0.0.1:1")
	cfg.Enabled = false
	g = NewGeocoder(cfg, nil)
	if _, err := g.Geocode(context.Background(), "Paris"); !errors.Is(err, ErrDisabled) {
		t.Errorf("disabled err = %v, want ErrDisabled", err)
	}
}

func TestGeocodeUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGeocoder(testGeocoderConfig(srv.URL), nil)
	_, err := g.Geocode(context.Background(), "Paris")
	if err == nil || errors.Is(err, ErrNoResults) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestGeocodeRejectsOutOfRangeResult(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := nominatimServer(t, `[{"lat":"95.0","lon":"10.0"}]`, &calls)
	g := NewGeocoder(testGeocoderConfig(srv.URL), nil)
	if _, err := g.Geocode(context.Background(), "Nowhere"); err == nil {
		t.Fatal("expected validation error for latitude 95")
	}
}

func TestGeocodeCanceledContext(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := nominatimServer(t, `[]`, &calls)
	cfg := testGeocoderConfig(srv.URL)
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	g := NewGeocoder(cfg, nil)

	// Drain the single burst token.
	_, _ = g.Geocode(context.Background(), "first")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Geocode(ctx, "second"); err == nil {
		t.Fatal("expected the limiter wait to fail on an expiring context")
	}
}

func newBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	s := NewBadgerStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := newBadgerStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "gates hall"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v err %v", ok, err)
	}
	want := models.Coordinates{Latitude: 42.4440, Longitude: -76.4816}
	if err := s.Set(ctx, "gates hall", want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "gates hall")
	if err != nil || !ok || got != want {
		t.Fatalf("Get = %+v ok %v err %v", got, ok, err)
	}
}

func TestGeocodeFallsBackToPersistentTier(t *testing.T) {
	t.Parallel()

	s := newBadgerStore(t)
	want := models.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
	if err := s.Set(context.Background(), "paris", want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var calls int32
	srv := nominatimServer(t, `[]`, &calls)
	g := NewGeocoder(testGeocoderConfig(srv.URL), s)

	got, err := g.Geocode(context.Background(), "Paris")
	if err != nil || got != want {
		t.Fatalf("Geocode = %+v, %v", got, err)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("upstream called %d times despite a persistent hit", n)
	}
}

func TestGeocodeWritesThroughToPersistentTier(t *testing.T) {
	t.Parallel()

	s := newBadgerStore(t)
	var calls int32
	srv := nominatimServer(t, `[{"lat":"1.5","lon":"2.5"}]`, &calls)
	g := NewGeocoder(testGeocoderConfig(srv.URL), s)

	if _, err := g.Geocode(context.Background(), "Somewhere"); err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	got, ok, err := s.Get(context.Background(), "somewhere")
	if err != nil || !ok {
		t.Fatalf("persistent tier not written: ok %v err %v", ok, err)
	}
	if got.Latitude != 1.5 || got.Longitude != 2.5 {
		t.Errorf("persisted %+v", got)
	}
}

func TestOpenStoreNone(t *testing.T) {
	t.Parallel()

	s, err := OpenStore(context.Background(), &config.GeocoderConfig{PersistentCache: "none"})
	if err != nil || s != nil {
		t.Fatalf("OpenStore(none) = %v, %v", s, err)
	}
	if _, err := OpenStore(context.Background(), &config.GeocoderConfig{PersistentCache: "memcached"}); err == nil {
		t.Fatal("unknown backend should fail")
	}
}
