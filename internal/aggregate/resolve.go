// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package aggregate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/docstore"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
	"github.com/tomtom215/eventhub/internal/normalize"
)

// resolveNative fills coordinates, loads userID's flags, normalizes and
// attaches creator profiles.
func (e *Engine) resolveNative(ctx context.Context, recs []database.EventRecord, userID string) ([]models.UnifiedEvent, error) {
	if len(recs) == 0 {
		return []models.UnifiedEvent{}, nil
	}
	e.fillCoordinates(ctx, recs)

	ids := make([]string, len(recs))
	for i := range recs {
		ids[i] = recs[i].ID
	}
	flags, err := e.native.InteractionFlags(ctx, userID, models.OriginNative, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve interaction flags: %w", err)
	}

	events := normalize.NativeBatch(recs, flags)
	e.attachCreators(ctx, events)
	return events, nil
}

func (e *Engine) resolveOneNative(ctx context.Context, rec *database.EventRecord, userID string) (models.UnifiedEvent, error) {
	events, err := e.resolveNative(ctx, []database.EventRecord{*rec}, userID)
	if err != nil {
		return models.UnifiedEvent{}, err
	}
	if len(events) == 0 {
		return models.UnifiedEvent{}, fmt.Errorf("event %s: %w", rec.ID, normalize.ErrInvalidRecord)
	}
	return events[0], nil
}

func (e *Engine) resolveExternal(docs []docstore.Event, userID string) []models.UnifiedEvent {
	return normalize.ExternalBatch(docs, userID)
}

func resolveOneExternal(doc *docstore.Event, userID string) (models.UnifiedEvent, error) {
	return normalize.FromExternal(doc, userID)
}

// fillCoordinates geocodes native records that have a location but no cached
// coordinates and writes successful results back. Failures leave the record
// as it is; the next read tries again.
func (e *Engine) fillCoordinates(ctx context.Context, recs []database.EventRecord) {
	if e.geocoder == nil {
		return
	}
	for i := range recs {
		rec := &recs[i]
		if rec.HasCoordinates() || strings.TrimSpace(rec.Location) == "" {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		c, err := e.geocoder.Geocode(ctx, rec.Location)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("event_id", rec.ID).Msg("Lazy geocode failed")
			continue
		}
		rec.Latitude = sql.NullFloat64{Float64: c.Latitude, Valid: true}
		rec.Longitude = sql.NullFloat64{Float64: c.Longitude, Valid: true}

		if err := e.native.CacheCoordinates(ctx, rec.ID, c); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("event_id", rec.ID).Msg("Failed to cache geocoded coordinates")
			metrics.CoordinateWriteBacks.WithLabelValues("error").Inc()
			continue
		}
		metrics.CoordinateWriteBacks.WithLabelValues("success").Inc()
	}
}

// attachCreators replaces the id-only creators with directory profiles. A
// directory failure keeps the id-only creators.
func (e *Engine) attachCreators(ctx context.Context, events []models.UnifiedEvent) {
	if e.directory == nil || len(events) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for i := range events {
		if events[i].Creator == nil {
			continue
		}
		id := events[i].Creator.ID
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}

	creators, err := e.directory.Creators(ctx, ids)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Creator directory lookup failed")
		return
	}
	for i := range events {
		if events[i].Creator == nil {
			continue
		}
		if c, ok := creators[events[i].Creator.ID]; ok {
			events[i].Creator = &c
		}
	}
}
