// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package interaction

import (
	"context"

	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/docstore"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
	"github.com/tomtom215/eventhub/internal/normalize"
	"github.com/tomtom215/eventhub/internal/reconcile"
)

// Like records that userID likes the event. It is idempotent.
func (c *Coordinator) Like(ctx context.Context, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error) {
	return c.interact(ctx, models.InteractionLike, true, origin, eventID, userID)
}

// Unlike removes userID's like. It is idempotent.
func (c *Coordinator) Unlike(ctx context.Context, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error) {
	return c.interact(ctx, models.InteractionLike, false, origin, eventID, userID)
}

// Save bookmarks the event for userID. It is idempotent.
func (c *Coordinator) Save(ctx context.Context, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error) {
	return c.interact(ctx, models.InteractionSave, true, origin, eventID, userID)
}

// Unsave removes userID's bookmark. It is idempotent.
func (c *Coordinator) Unsave(ctx context.Context, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error) {
	return c.interact(ctx, models.InteractionSave, false, origin, eventID, userID)
}

// interact applies the primary write for the event's origin. The returned
// overrides force the written flag so the caller sees its own write even if
// the reloaded view lags.
func (c *Coordinator) interact(ctx context.Context, kind models.InteractionKind, present bool, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error) {
	if err := checkOrigin(origin); err != nil {
		return models.UnifiedEvent{}, models.Overrides{}, err
	}
	if err := requireUser(userID); err != nil {
		return models.UnifiedEvent{}, models.Overrides{}, err
	}

	var (
		ev  models.UnifiedEvent
		err error
	)
	if origin == models.OriginNative {
		ev, err = c.interactNative(ctx, kind, present, eventID, userID)
	} else {
		ev, err = c.interactExternal(ctx, kind, present, eventID, userID)
	}
	if err != nil {
		return models.UnifiedEvent{}, models.Overrides{}, err
	}

	metrics.Interactions.WithLabelValues(string(origin), string(kind), action(present)).Inc()
	return ev, models.OverrideFor(kind, present), nil
}

func action(present bool) string {
	if present {
		return "add"
	}
	return "remove"
}

func (c *Coordinator) interactNative(ctx context.Context, kind models.InteractionKind, present bool, eventID, userID string) (models.UnifiedEvent, error) {
	write := c.nativeWrite(kind, present)
	res, err := write(ctx, eventID, userID)
	if err != nil {
		return models.UnifiedEvent{}, err
	}

	ev, err := c.events.GetEvent(ctx, eventID, userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("event_id", eventID).
			Str("kind", string(kind)).
			Msg("Reload after interaction failed, returning minimal event")
		ev = minimalEvent(models.OriginNative, eventID)
		setCount(&ev, kind, res.Count)
	}
	return ev, nil
}

func (c *Coordinator) nativeWrite(kind models.InteractionKind, present bool) func(context.Context, string, string) (database.InteractionResult, error) {
	switch {
	case kind == models.InteractionLike && present:
		return c.native.Like
	case kind == models.InteractionLike:
		return c.native.Unlike
	case present:
		return c.native.Save
	default:
		return c.native.Unsave
	}
}

func (c *Coordinator) externalWrite(kind models.InteractionKind, present bool) func(context.Context, string, string) (*docstore.Event, error) {
	switch {
	case kind == models.InteractionLike && present:
		return c.external.AddLike
	case kind == models.InteractionLike:
		return c.external.RemoveLike
	case present:
		return c.external.AddSave
	default:
		return c.external.RemoveSave
	}
}

func (c *Coordinator) interactExternal(ctx context.Context, kind models.InteractionKind, present bool, eventID, userID string) (models.UnifiedEvent, error) {
	if c.external == nil {
		return models.UnifiedEvent{}, errExternalDisabled
	}

	doc, err := c.externalWrite(kind, present)(ctx, eventID, userID)
	if err != nil {
		return models.UnifiedEvent{}, err
	}

	ev, err := normalize.FromExternal(doc, userID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event_id", eventID).Msg("Updated external event failed normalization")
		ev = minimalEvent(models.OriginExternal, eventID)
		ev.LikeCount = len(doc.LikedBy)
		ev.SaveCount = len(doc.SavedBy)
	}

	c.projectLedger(ctx, kind, present, eventID, userID)
	return ev, nil
}

// projectLedger mirrors an external interaction into the relational ledger.
// The document store already holds the authoritative state, so a failure
// here is queued for retry and never returned.
func (c *Coordinator) projectLedger(ctx context.Context, kind models.InteractionKind, present bool, eventID, userID string) {
	err := c.native.RecordInteraction(ctx, kind, models.OriginExternal, eventID, userID, present)
	if err == nil {
		return
	}

	log := logging.Ctx(ctx)
	log.Warn().Err(err).
		Str("event_id", eventID).
		Str("user_id", userID).
		Str("kind", string(kind)).
		Msg("Ledger projection write failed, queueing for retry")

	if c.queue == nil {
		metrics.LedgerRetries.WithLabelValues("enqueue_failed").Inc()
		return
	}
	cmd := reconcile.LedgerCommand{
		Kind:     kind,
		Origin:   models.OriginExternal,
		EventID:  eventID,
		UserID:   userID,
		Present:  present,
		FailedAt: c.now(),
		Reason:   err.Error(),
	}
	if qerr := c.queue.Enqueue(ctx, cmd); qerr != nil {
		log.Error().Err(qerr).
			Str("event_id", eventID).
			Str("user_id", userID).
			Msg("Failed to queue ledger projection retry")
	}
}

func minimalEvent(origin models.Origin, id string) models.UnifiedEvent {
	return models.UnifiedEvent{
		ID:     id,
		Origin: origin,
		Tags:   []string{},
	}
}

func setCount(ev *models.UnifiedEvent, kind models.InteractionKind, n int) {
	if n < 0 {
		n = 0
	}
	switch kind {
	case models.InteractionLike:
		ev.LikeCount = n
	case models.InteractionSave:
		ev.SaveCount = n
	}
}

var (
	_ NativeStore   = (*database.DB)(nil)
	_ ExternalStore = (*docstore.Store)(nil)
	_ RetryQueue    = (*reconcile.Queue)(nil)
)
