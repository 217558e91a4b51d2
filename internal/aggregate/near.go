// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/filter"
	"github.com/tomtom215/eventhub/internal/geo"
	"github.com/tomtom215/eventhub/internal/models"
)

// NearQuery is an "events near me" search.
type NearQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Filter    filter.EventFilter
	Skip      int
	Take      int
	UserID    string
}

func (e *Engine) validateNear(q *NearQuery) error {
	if err := models.ValidateCoordinates(models.Coordinates{Latitude: q.Latitude, Longitude: q.Longitude}); err != nil {
		return err
	}
	if math.IsNaN(q.RadiusKm) || q.RadiusKm <= 0 {
		return &models.ValidationError{Field: "radius_km", Message: "must be greater than 0"}
	}
	if q.RadiusKm > e.maxRadiusKm {
		return &models.ValidationError{Field: "radius_km", Message: fmt.Sprintf("must not exceed %g", e.maxRadiusKm)}
	}
	if q.Skip < 0 || q.Take < 0 {
		return &models.ValidationError{Field: "pagination", Message: "skip and take must not be negative"}
	}
	return nil
}

// ListEventsNear returns events within q.RadiusKm of the query point, soonest
// first, each carrying its distance. Both origins over-fetch skip+take
// candidates; the merged set is sorted and sliced.
func (e *Engine) ListEventsNear(ctx context.Context, q NearQuery) ([]models.UnifiedEvent, error) {
	if err := e.validateNear(&q); err != nil {
		return nil, err
	}
	if q.Take == 0 {
		return []models.UnifiedEvent{}, nil
	}

	center := models.Coordinates{Latitude: q.Latitude, Longitude: q.Longitude}
	limit := q.Skip + q.Take
	f := q.Filter

	var calls []originCall
	if f.Wants(models.OriginNative) {
		calls = append(calls, originCall{models.OriginNative, func(ctx context.Context) ([]models.UnifiedEvent, error) {
			return e.nativeNear(ctx, center, q.RadiusKm, &f, q.UserID)
		}})
	}
	if e.external != nil && f.Wants(models.OriginExternal) {
		calls = append(calls, originCall{models.OriginExternal, func(ctx context.Context) ([]models.UnifiedEvent, error) {
			return e.externalNear(ctx, center, q.RadiusKm, &f, limit, q.UserID)
		}})
	}

	events, err := e.fanOut(ctx, "near", calls)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if *a.DistanceKm != *b.DistanceKm {
			return *a.DistanceKm < *b.DistanceKm
		}
		return a.Key() < b.Key()
	})

	if q.Skip >= len(events) {
		return []models.UnifiedEvent{}, nil
	}
	end := q.Skip + q.Take
	if end > len(events) {
		end = len(events)
	}
	return events[q.Skip:end], nil
}

// nativeNear scans upcoming native events matching f, geocoding the ones
// without coordinates, and keeps those within radius.
func (e *Engine) nativeNear(ctx context.Context, center models.Coordinates, radiusKm float64, f *filter.EventFilter, userID string) ([]models.UnifiedEvent, error) {
	upcoming := f.WithStartFrom(e.now())
	recs, err := e.native.ListEvents(ctx, &upcoming, filter.DefaultOrder(), 0, e.candidateWindow)
	if err != nil {
		return nil, err
	}
	e.fillCoordinates(ctx, recs)

	kept := make([]database.EventRecord, 0, len(recs))
	distances := make(map[string]float64, len(recs))
	for i := range recs {
		if !recs[i].HasCoordinates() {
			continue
		}
		at := models.Coordinates{Latitude: recs[i].Latitude.Float64, Longitude: recs[i].Longitude.Float64}
		if d, ok := geo.Within(center, at, radiusKm); ok {
			kept = append(kept, recs[i])
			distances[recs[i].ID] = d
		}
	}

	events, err := e.resolveNative(ctx, kept, userID)
	if err != nil {
		return nil, err
	}
	for i := range events {
		d := distances[events[i].ID]
		events[i].DistanceKm = &d
	}
	return events, nil
}

// externalNear runs the geospatial query. Results are always re-checked
// against the radius and the shared filter, which also covers the unfiltered
// fallback the store returns in degraded mode.
func (e *Engine) externalNear(ctx context.Context, center models.Coordinates, radiusKm float64, f *filter.EventFilter, limit int, userID string) ([]models.UnifiedEvent, error) {
	docs, _, err := e.external.FindNear(ctx, center.Latitude, center.Longitude, radiusKm, limit)
	if err != nil {
		return nil, err
	}

	out := make([]models.UnifiedEvent, 0, len(docs))
	for _, ev := range e.resolveExternal(docs, userID) {
		// (0,0) means the document has no point.
		if ev.Coordinates.IsZero() {
			continue
		}
		d, ok := geo.Within(center, ev.Coordinates, radiusKm)
		if !ok || !f.Match(&ev) {
			continue
		}
		ev.DistanceKm = &d
		out = append(out, ev)
	}
	return out, nil
}
