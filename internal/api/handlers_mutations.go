// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/eventhub/internal/middleware"
	"github.com/tomtom215/eventhub/internal/models"
	"github.com/tomtom215/eventhub/internal/validation"
)

// actingUser returns the caller or writes a 401 and returns "".
func actingUser(rw *ResponseWriter, r *http.Request) string {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		rw.Unauthorized(ErrMissingUser.Error())
	}
	return userID
}

// writeBodyError reports a decodeJSON failure.
func writeBodyError(rw *ResponseWriter, err error) {
	var rve *validation.RequestValidationError
	if errors.As(err, &rve) {
		writeServiceError(rw, err)
		return
	}
	rw.BadRequest(err.Error())
}

// CreateEvent handles POST /events. The creator is the acting user.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := actingUser(rw, r)
	if userID == "" {
		return
	}

	var in models.CreateEventInput
	if err := decodeBody(w, r, &in, false); err != nil {
		writeBodyError(rw, err)
		return
	}
	in.CreatorID = userID
	if err := validation.ValidateStruct(&in); err != nil {
		writeServiceError(rw, err)
		return
	}

	ev, err := h.events.CreateEvent(r.Context(), &in)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Created(ev)
}

// UpdateEvent handles PUT /events/{id}.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := actingUser(rw, r)
	if userID == "" {
		return
	}

	var patch models.UpdateEventInput
	if err := decodeJSON(w, r, &patch, false); err != nil {
		writeBodyError(rw, err)
		return
	}

	ev, err := h.events.UpdateEvent(r.Context(), chi.URLParam(r, "id"), &patch, userID)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.Success(ev)
}

// DeleteEvent handles DELETE /events/{id}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if actingUser(rw, r) == "" {
		return
	}
	if err := h.events.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(rw, err)
		return
	}
	rw.NoContent()
}

type interactionFunc func(ctx context.Context, origin models.Origin, eventID, userID string) (models.UnifiedEvent, models.Overrides, error)

// interact returns a handler applying fn to the event named in the path.
// The overrides are applied right before serialization.
func (h *Handler) interact(origin models.Origin, fn func(InteractionService) interactionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := NewResponseWriter(w, r)
		userID := actingUser(rw, r)
		if userID == "" {
			return
		}

		ev, ov, err := fn(h.interactions)(r.Context(), origin, chi.URLParam(r, "id"), userID)
		if err != nil {
			writeServiceError(rw, err)
			return
		}
		models.ApplyOverrides(&ev, ov)
		rw.Success(ev)
	}
}

func like(s InteractionService) interactionFunc   { return s.Like }
func unlike(s InteractionService) interactionFunc { return s.Unlike }
func save(s InteractionService) interactionFunc   { return s.Save }
func unsave(s InteractionService) interactionFunc { return s.Unsave }

// Register handles POST /events/{id}/register. A waitlisted registration is
// still 201.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := actingUser(rw, r)
	if userID == "" {
		return
	}

	var req RegisterRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeBodyError(rw, err)
		return
	}

	res, err := h.interactions.Register(r.Context(), chi.URLParam(r, "id"), userID, req.RSVPStatus)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	writeRegistration(rw, res)
}

// SmartRegister handles POST /events/{id}/smart-register.
func (h *Handler) SmartRegister(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := actingUser(rw, r)
	if userID == "" {
		return
	}

	var req SmartRegisterRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeBodyError(rw, err)
		return
	}

	res, err := h.interactions.SmartRegister(r.Context(), chi.URLParam(r, "id"), userID, req.RSVPStatus, req.RegistrationStatus)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	writeRegistration(rw, res)
}

// UpdateParticipation handles PUT /events/{id}/participation.
func (h *Handler) UpdateParticipation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := actingUser(rw, r)
	if userID == "" {
		return
	}

	var upd models.ParticipationUpdate
	if err := decodeJSON(w, r, &upd, false); err != nil {
		writeBodyError(rw, err)
		return
	}

	res, err := h.interactions.UpdateParticipation(r.Context(), chi.URLParam(r, "id"), userID, &upd)
	if err != nil {
		writeServiceError(rw, err)
		return
	}
	writeRegistration(rw, res)
}

func writeRegistration(rw *ResponseWriter, res *models.RegistrationResult) {
	if res.Created {
		rw.Created(res)
		return
	}
	rw.Success(res)
}
