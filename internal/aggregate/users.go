// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package aggregate

import (
	"context"
	"time"

	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/docstore"
	"github.com/tomtom215/eventhub/internal/filter"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

// ListUserLiked returns the events of both origins userID liked, soonest first.
func (e *Engine) ListUserLiked(ctx context.Context, userID string) ([]models.UnifiedEvent, error) {
	return e.listUserInteractions(ctx, "liked", userID, e.native.ListLiked, e.findLikedBy)
}

// ListUserSaved returns the events of both origins userID saved, soonest first.
func (e *Engine) ListUserSaved(ctx context.Context, userID string) ([]models.UnifiedEvent, error) {
	return e.listUserInteractions(ctx, "saved", userID, e.native.ListSaved, e.findSavedBy)
}

func (e *Engine) findLikedBy(ctx context.Context, userID string) ([]docstore.Event, error) {
	return e.external.FindLikedBy(ctx, userID)
}

func (e *Engine) findSavedBy(ctx context.Context, userID string) ([]docstore.Event, error) {
	return e.external.FindSavedBy(ctx, userID)
}

func (e *Engine) listUserInteractions(
	ctx context.Context,
	mode, userID string,
	nativeList func(context.Context, string) ([]database.EventRecord, error),
	externalList func(context.Context, string) ([]docstore.Event, error),
) ([]models.UnifiedEvent, error) {
	calls := []originCall{{models.OriginNative, func(ctx context.Context) ([]models.UnifiedEvent, error) {
		recs, err := nativeList(ctx, userID)
		if err != nil {
			return nil, err
		}
		return e.resolveNative(ctx, recs, userID)
	}}}
	if e.external != nil {
		calls = append(calls, originCall{models.OriginExternal, func(ctx context.Context) ([]models.UnifiedEvent, error) {
			docs, err := externalList(ctx, userID)
			if err != nil {
				return nil, err
			}
			return e.resolveExternal(docs, userID), nil
		}})
	}

	events, err := e.fanOut(ctx, mode, calls)
	if err != nil {
		return nil, err
	}
	filter.SortCombined(events, filter.DefaultOrder())
	return events, nil
}

// ListUserParticipated returns the native events userID participates in,
// each carrying only the user's own participation.
func (e *Engine) ListUserParticipated(ctx context.Context, userID string) ([]models.UnifiedEvent, error) {
	return e.listNativeFor(ctx, "participated", userID, e.native.ListParticipated)
}

// ListUserCreated returns the native events userID created, latest start first.
func (e *Engine) ListUserCreated(ctx context.Context, userID string) ([]models.UnifiedEvent, error) {
	return e.listNativeFor(ctx, "created", userID, e.native.ListCreated)
}

func (e *Engine) listNativeFor(ctx context.Context, mode, userID string, list func(context.Context, string) ([]database.EventRecord, error)) ([]models.UnifiedEvent, error) {
	start := time.Now()
	recs, err := list(ctx, userID)
	metrics.RecordOriginQuery(mode, string(models.OriginNative), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return e.resolveNative(ctx, recs, userID)
}
