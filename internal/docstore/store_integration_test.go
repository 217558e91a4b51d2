// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

//go:build integration

package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/filter"
	"github.com/tomtom215/eventhub/internal/models"
	"github.com/tomtom215/eventhub/internal/testinfra"
)

func setupStore(t *testing.T, ensureIndexes bool) *Store {
	t.Helper()
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	mc, err := testinfra.NewMongoContainer(ctx)
	require.NoError(t, err, "start mongo")
	t.Cleanup(func() { testinfra.CleanupContainer(t, context.Background(), mc) })

	s, err := Open(ctx, &config.MongoConfig{
		URI:           mc.URI,
		Database:      "eventhub_test_" + uuid.New().String()[:8],
		Collection:    "externalEvents",
		EnsureIndexes: ensureIndexes,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func seed(t *testing.T, s *Store, name string, c models.Coordinates, start time.Time, tags ...string) *Event {
	t.Helper()
	doc := &Event{
		Name:       name,
		Source:     "eventbrite",
		ExternalID: name,
		Category:   "music",
		Location:   PointFrom(c, name+" venue"),
		StartDate:  start,
		EndDate:    start.Add(time.Hour),
		Tags:       tags,
	}
	require.NoError(t, s.Insert(context.Background(), doc))
	return doc
}

func TestStoreIntegration(t *testing.T) {
	s := setupStore(t, true)
	ctx := context.Background()
	base := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Millisecond)

	// Times Square and two points roughly 5 km and 300 km away.
	near := seed(t, s, "Near", models.Coordinates{Latitude: 40.758, Longitude: -73.9855}, base, "jazz")
	mid := seed(t, s, "Mid", models.Coordinates{Latitude: 40.80, Longitude: -73.95}, base.Add(time.Hour), "rock")
	seed(t, s, "Far", models.Coordinates{Latitude: 42.65, Longitude: -73.75}, base.Add(2*time.Hour))

	t.Run("FindByID", func(t *testing.T) {
		got, err := s.FindByID(ctx, near.ID)
		require.NoError(t, err)
		assert.Equal(t, "Near", got.Name)
		assert.Equal(t, []float64{-73.9855, 40.758}, got.Location.Coordinates)

		_, err = s.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("Find", func(t *testing.T) {
		docs, err := s.Find(ctx, &filter.EventFilter{Tags: []string{"jazz", "rock"}}, filter.DefaultOrder(), 0, 10)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, near.ID, docs[0].ID)
		assert.Equal(t, mid.ID, docs[1].ID)

		docs, err = s.Find(ctx, &filter.EventFilter{Name: "FAR"}, filter.DefaultOrder(), 0, 10)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("FindNear", func(t *testing.T) {
		docs, degraded, err := s.FindNear(ctx, 40.758, -73.9855, 20, 10)
		require.NoError(t, err)
		assert.False(t, degraded)
		require.Len(t, docs, 2)
		assert.Equal(t, near.ID, docs[0].ID, "results are ordered by distance")
	})

	t.Run("interaction sets", func(t *testing.T) {
		doc, err := s.AddLike(ctx, near.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"u1"}, doc.LikedBy)

		doc, err = s.AddLike(ctx, near.ID, "u1")
		require.NoError(t, err)
		assert.Len(t, doc.LikedBy, 1, "repeated like is idempotent")

		has, err := s.HasInteraction(ctx, models.InteractionLike, near.ID, "u1")
		require.NoError(t, err)
		assert.True(t, has)
		has, err = s.HasInteraction(ctx, models.InteractionSave, near.ID, "u1")
		require.NoError(t, err)
		assert.False(t, has)
		has, err = s.HasInteraction(ctx, models.InteractionLike, "missing", "u1")
		require.NoError(t, err)
		assert.False(t, has)

		_, err = s.AddSave(ctx, mid.ID, "u1")
		require.NoError(t, err)

		liked, err := s.FindLikedBy(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, liked, 1)
		assert.Equal(t, near.ID, liked[0].ID)

		saved, err := s.FindSavedBy(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, saved, 1)

		doc, err = s.RemoveLike(ctx, near.ID, "u1")
		require.NoError(t, err)
		assert.Empty(t, doc.LikedBy)

		doc, err = s.RemoveSave(ctx, mid.ID, "u1")
		require.NoError(t, err)
		assert.Empty(t, doc.SavedBy)

		_, err = s.AddLike(ctx, "missing", "u1")
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestFindOrdersNamesCaseInsensitively(t *testing.T) {
	s := setupStore(t, false)
	ctx := context.Background()
	base := time.Now().UTC().Add(24 * time.Hour)
	point := models.Coordinates{Latitude: 1, Longitude: 1}

	seed(t, s, "banjo night", point, base)
	seed(t, s, "Cello Recital", point, base)
	seed(t, s, "Accordion Jam", point, base)

	docs, err := s.Find(ctx, &filter.EventFilter{}, filter.Order{Field: filter.SortName, Direction: filter.Asc}, 0, 10)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"Accordion Jam", "banjo night", "Cello Recital"},
		[]string{docs[0].Name, docs[1].Name, docs[2].Name})
}

func TestFindNearFallsBackWithoutIndex(t *testing.T) {
	s := setupStore(t, false)
	ctx := context.Background()
	base := time.Now().UTC().Add(24 * time.Hour)

	seed(t, s, "Early", models.Coordinates{Latitude: 10, Longitude: 10}, base)
	seed(t, s, "Late", models.Coordinates{Latitude: 11, Longitude: 11}, base.Add(time.Hour))

	docs, degraded, err := s.FindNear(ctx, 0, 0, 5, 10)
	require.NoError(t, err)
	assert.True(t, degraded, "$near without a 2dsphere index must degrade")
	require.Len(t, docs, 2)
	assert.Equal(t, "Late", docs[0].Name, "fallback is ordered by start date descending")
}
