// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

//go:build integration

package geo

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/models"
	"github.com/tomtom215/eventhub/internal/testinfra"
)

func TestRedisStoreIntegration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	rc, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, rc)

	store, err := OpenStore(ctx, &config.GeocoderConfig{PersistentCache: "redis", RedisURL: rc.URL})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get(ctx, "ithaca"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v err %v", ok, err)
	}

	want := models.Coordinates{Latitude: 42.4430, Longitude: -76.5019}
	if err := store.Set(ctx, "ithaca", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := store.Get(ctx, "ithaca")
	if err != nil || !ok || got != want {
		t.Fatalf("Get = %+v ok %v err %v", got, ok, err)
	}
}
