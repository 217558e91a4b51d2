// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package interaction routes per-user writes (likes, saves, registrations)
// to the store owning the event and keeps the relational ledger in step.
package interaction

import (
	"context"
	"time"

	"github.com/tomtom215/eventhub/internal/aggregate"
	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/docstore"
	"github.com/tomtom215/eventhub/internal/models"
	"github.com/tomtom215/eventhub/internal/reconcile"
)

// NativeStore is the relational store: native interactions, participations
// and the ledger projection of external interactions.
type NativeStore interface {
	Like(ctx context.Context, eventID, userID string) (database.InteractionResult, error)
	Unlike(ctx context.Context, eventID, userID string) (database.InteractionResult, error)
	Save(ctx context.Context, eventID, userID string) (database.InteractionResult, error)
	Unsave(ctx context.Context, eventID, userID string) (database.InteractionResult, error)
	RecordInteraction(ctx context.Context, kind models.InteractionKind, origin models.Origin, eventID, userID string, present bool) error

	RegisterForEvent(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus) (*models.RegistrationResult, error)
	CreateParticipation(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus, regStatus models.RegistrationStatus) (*models.RegistrationResult, error)
	UpdateParticipation(ctx context.Context, eventID, userID string, upd *models.ParticipationUpdate) (*models.Participation, error)
	UpsertParticipation(ctx context.Context, eventID, userID string, upd *models.ParticipationUpdate) (*models.RegistrationResult, error)
}

// ExternalStore holds the authoritative like/save sets of external events.
type ExternalStore interface {
	AddLike(ctx context.Context, id, userID string) (*docstore.Event, error)
	RemoveLike(ctx context.Context, id, userID string) (*docstore.Event, error)
	AddSave(ctx context.Context, id, userID string) (*docstore.Event, error)
	RemoveSave(ctx context.Context, id, userID string) (*docstore.Event, error)
}

// EventReader reloads a native event as seen by a user.
type EventReader interface {
	GetEvent(ctx context.Context, id, userID string) (models.UnifiedEvent, error)
}

// RetryQueue accepts ledger writes to retry later.
type RetryQueue interface {
	Enqueue(ctx context.Context, cmd reconcile.LedgerCommand) error
}

// Coordinator performs interaction and participation writes.
type Coordinator struct {
	native   NativeStore
	external ExternalStore
	events   EventReader
	queue    RetryQueue
	now      func() time.Time
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithExternal enables writes on external events.
func WithExternal(s ExternalStore) Option {
	return func(c *Coordinator) { c.external = s }
}

// WithRetryQueue routes failed ledger projection writes to q. Without one
// they are only logged.
func WithRetryQueue(q RetryQueue) Option {
	return func(c *Coordinator) { c.queue = q }
}

// NewCoordinator creates a Coordinator. events reloads native events after a
// write; it is normally the aggregate.Engine.
func NewCoordinator(native NativeStore, events EventReader, opts ...Option) *Coordinator {
	c := &Coordinator{
		native: native,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func requireUser(userID string) error {
	if userID == "" {
		return &models.ValidationError{Field: "user_id", Message: "is required"}
	}
	return nil
}

func checkOrigin(origin models.Origin) error {
	if !origin.Valid() {
		return &models.ValidationError{Field: "origin", Message: "must be NATIVE or EXTERNAL"}
	}
	return nil
}

// errExternalDisabled is returned for writes on external events when no
// document store is configured.
var errExternalDisabled = aggregate.ErrOriginUnavailable
