// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package api

import (
	"context"
	"errors"

	"github.com/tomtom215/eventhub/internal/aggregate"
	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/docstore"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/models"
	"github.com/tomtom215/eventhub/internal/normalize"
	"github.com/tomtom215/eventhub/internal/validation"
)

// ErrMissingUser is returned by writes made without X-User-ID.
var ErrMissingUser = errors.New("X-User-ID header is required")

// writeServiceError maps an engine or coordinator error to a response.
// Internal details are logged, never returned.
func writeServiceError(rw *ResponseWriter, err error) {
	var (
		ve  *models.ValidationError
		rve *validation.RequestValidationError
	)

	switch {
	case errors.As(err, &ve):
		rw.ValidationError(ve.Error(), map[string]string{"field": ve.Field, "message": ve.Message})
	case errors.As(err, &rve):
		rw.ValidationError(rve.Error(), rve.Details())
	case errors.Is(err, database.ErrEventNotFound), errors.Is(err, docstore.ErrEventNotFound):
		rw.NotFound("Event not found")
	case errors.Is(err, database.ErrParticipationNotFound):
		rw.NotFound("Participation not found")
	case errors.Is(err, aggregate.ErrOriginUnavailable):
		rw.ServiceUnavailable("External events are not available")
	case errors.Is(err, aggregate.ErrAllOriginsFailed):
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("All event origins failed")
		rw.ServiceUnavailable("Event stores are unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		rw.ServiceUnavailable("Request timed out")
	case errors.Is(err, normalize.ErrInvalidRecord):
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Stored event failed normalization")
		rw.InternalError("An internal error occurred")
	default:
		rw.DatabaseError(err)
	}
}
