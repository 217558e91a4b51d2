// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package api

import (
	"context"
	"time"

	"github.com/tomtom215/eventhub/internal/aggregate"
	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/interaction"
	"github.com/tomtom215/eventhub/internal/models"
)

// EventService answers event queries and native event mutations.
type EventService interface {
	GetEvent(ctx context.Context, id, userID string) (models.UnifiedEvent, error)
	GetExternalEvent(ctx context.Context, id, userID string) (models.UnifiedEvent, error)
	ListEvents(ctx context.Context, q aggregate.ListQuery) ([]models.UnifiedEvent, error)
	ListExternalEvents(ctx context.Context, q aggregate.ListQuery) ([]models.UnifiedEvent, error)
	ListAllEvents(ctx context.Context, q aggregate.ListQuery) ([]models.UnifiedEvent, error)
	ListEventsNear(ctx context.Context, q aggregate.NearQuery) ([]models.UnifiedEvent, error)
	ListUserLiked(ctx context.Context, userID string) ([]models.UnifiedEvent, error)
	ListUserSaved(ctx context.Context, userID string) ([]models.UnifiedEvent, error)
	ListUserParticipated(ctx context.Context, userID string) ([]models.UnifiedEvent, error)
	ListUserCreated(ctx context.Context, userID string) ([]models.UnifiedEvent, error)

	CreateEvent(ctx context.Context, in *models.CreateEventInput) (models.UnifiedEvent, error)
	UpdateEvent(ctx context.Context, id string, patch *models.UpdateEventInput, userID string) (models.UnifiedEvent, error)
	DeleteEvent(ctx context.Context, id string) error

	DefaultRadiusKm() float64
}

// InteractionService performs per-user writes.
type InteractionService interface {
	Like(ctx context.Context, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error)
	Unlike(ctx context.Context, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error)
	Save(ctx context.Context, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error)
	Unsave(ctx context.Context, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error)

	Register(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus) (*models.RegistrationResult, error)
	SmartRegister(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus, regStatus models.RegistrationStatus) (*models.RegistrationResult, error)
	UpdateParticipation(ctx context.Context, eventID, userID string, upd *models.ParticipationUpdate) (*models.RegistrationResult, error)
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ EventService       = (*aggregate.Engine)(nil)
	_ InteractionService = (*interaction.Coordinator)(nil)
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_events.go: event queries
//   - handlers_mutations.go: event, interaction and participation writes
//   - handlers_health.go: liveness and readiness probes
type Handler struct {
	events       EventService
	interactions InteractionService
	api          config.APIConfig
	checks       map[string]Pinger
	startTime    time.Time
}

// NewHandler creates a Handler. checks are pinged by the readiness probe; a
// nil entry is skipped.
func NewHandler(events EventService, interactions InteractionService, cfg *config.APIConfig, checks map[string]Pinger) *Handler {
	h := &Handler{
		events:       events,
		interactions: interactions,
		api:          config.APIConfig{DefaultPageSize: 20, MaxPageSize: 500},
		checks:       checks,
		startTime:    time.Now(),
	}
	if cfg != nil {
		if cfg.DefaultPageSize > 0 {
			h.api.DefaultPageSize = cfg.DefaultPageSize
		}
		if cfg.MaxPageSize > 0 {
			h.api.MaxPageSize = cfg.MaxPageSize
		}
	}
	return h
}
