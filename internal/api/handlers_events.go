// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/eventhub/internal/aggregate"
	"github.com/tomtom215/eventhub/internal/middleware"
	"github.com/tomtom215/eventhub/internal/models"
)

type listFunc func(ctx context.Context, q aggregate.ListQuery) ([]models.UnifiedEvent, error)

// ListEvents handles GET /events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.events.ListEvents)
}

// ListExternalEvents handles GET /external-events.
func (h *Handler) ListExternalEvents(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.events.ListExternalEvents)
}

// ListAllEvents handles GET /all-events.
func (h *Handler) ListAllEvents(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.events.ListAllEvents)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fn listFunc) {
	rw := NewResponseWriter(w, r)
	q, err := h.parseListQuery(r, middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(rw, err)
		return
	}

	events, err := fn(r.Context(), q)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(events, &PaginationMeta{Skip: q.Skip, Take: q.Take, Count: len(events)})
}

// ListEventsNear handles GET /events-near.
func (h *Handler) ListEventsNear(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q, err := h.parseNearQuery(r, middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(rw, err)
		return
	}

	events, err := h.events.ListEventsNear(r.Context(), q)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(events, &PaginationMeta{Skip: q.Skip, Take: q.Take, Count: len(events)})
}

// GetEvent handles GET /events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ev, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(ev)
}

// GetExternalEvent handles GET /external-events/{id}.
func (h *Handler) GetExternalEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ev, err := h.events.GetExternalEvent(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(ev)
}

type userListFunc func(ctx context.Context, userID string) ([]models.UnifiedEvent, error)

// UserLiked handles GET /users/{userID}/liked.
func (h *Handler) UserLiked(w http.ResponseWriter, r *http.Request) {
	h.userList(w, r, h.events.ListUserLiked)
}

// UserSaved handles GET /users/{userID}/saved.
func (h *Handler) UserSaved(w http.ResponseWriter, r *http.Request) {
	h.userList(w, r, h.events.ListUserSaved)
}

// UserParticipated handles GET /users/{userID}/participated.
func (h *Handler) UserParticipated(w http.ResponseWriter, r *http.Request) {
	h.userList(w, r, h.events.ListUserParticipated)
}

// UserCreated handles GET /users/{userID}/created.
func (h *Handler) UserCreated(w http.ResponseWriter, r *http.Request) {
	h.userList(w, r, h.events.ListUserCreated)
}

func (h *Handler) userList(w http.ResponseWriter, r *http.Request, fn userListFunc) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		rw.ValidationError("user id is required", map[string]string{"field": "user_id"})
		return
	}

	events, err := fn(r.Context(), userID)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(events)
}
