// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package normalize converts store records of either origin into
// models.UnifiedEvent. Every field the unified shape promises is filled:
// absent coordinates become (0,0), counts become 0, flags false and
// collections empty rather than nil.
package normalize

import (
	"errors"
	"fmt"

	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/docstore"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

// ErrInvalidRecord is wrapped by every rejection.
var ErrInvalidRecord = errors.New("invalid event record")

// FromNative converts a relational record. flags are the requesting user's
// ledger flags for the event; the zero value means "not liked, not saved".
func FromNative(rec *database.EventRecord, flags database.Flags) (models.UnifiedEvent, error) {
	if rec == nil || rec.ID == "" {
		return models.UnifiedEvent{}, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}

	var coords models.Coordinates
	if rec.HasCoordinates() {
		coords = models.Coordinates{Latitude: rec.Latitude.Float64, Longitude: rec.Longitude.Float64}
		if err := models.ValidateCoordinates(coords); err != nil {
			return models.UnifiedEvent{}, fmt.Errorf("%w: native %s: %v", ErrInvalidRecord, rec.ID, err)
		}
	}

	isPublic := rec.IsPublic
	participants := nonNegative(rec.ParticipantCount)
	ev := models.UnifiedEvent{
		ID:            rec.ID,
		Origin:        models.OriginNative,
		Name:          rec.Name,
		Description:   rec.Description,
		Category:      rec.Category,
		Location:      rec.Location,
		Coordinates:   coords,
		StartDate:     rec.StartDate,
		EndDate:       rec.EndDate,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		Tags:          nonNil(rec.Tags),
		LikeCount:     nonNegative(rec.LikeCount),
		SaveCount:     nonNegative(rec.SaveCount),
		IsLikedByUser: flags.Liked,
		IsSavedByUser: flags.Saved,

		Status:           models.EventStatus(rec.Status),
		IsPublic:         &isPublic,
		Creator:          &models.Creator{ID: rec.CreatorID},
		ParticipantCount: &participants,
		Participations:   rec.Participations,
	}
	if ev.Participations == nil {
		ev.Participations = []models.Participation{}
	}
	if rec.Capacity.Valid {
		c := int(rec.Capacity.Int64)
		ev.Capacity = &c
	}
	if rec.ImageURL.Valid {
		ev.ImageURL = rec.ImageURL.String
	}
	return ev, nil
}

// FromExternal converts a document. Counts are the sizes of the interaction
// sets and the flags are membership of userID in them.
func FromExternal(doc *docstore.Event, userID string) (models.UnifiedEvent, error) {
	if doc == nil || doc.ID == "" {
		return models.UnifiedEvent{}, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}

	coords, err := pointCoordinates(doc.Location)
	if err != nil {
		return models.UnifiedEvent{}, fmt.Errorf("%w: external %s: %v", ErrInvalidRecord, doc.ID, err)
	}

	return models.UnifiedEvent{
		ID:            doc.ID,
		Origin:        models.OriginExternal,
		Name:          doc.Name,
		Description:   doc.Description,
		Category:      doc.Category,
		Location:      doc.Address(),
		Coordinates:   coords,
		StartDate:     doc.StartDate,
		EndDate:       doc.EndDate,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		Tags:          models.NormalizeTags(doc.Tags),
		LikeCount:     len(doc.LikedBy),
		SaveCount:     len(doc.SavedBy),
		IsLikedByUser: doc.LikedByUser(userID),
		IsSavedByUser: doc.SavedByUser(userID),

		Source:      doc.Source,
		ExternalID:  doc.ExternalID,
		ExternalURL: doc.ExternalURL,
		ImageURL:    doc.ImageURL,
	}, nil
}

// pointCoordinates flattens a GeoJSON [lon, lat] pair. A missing point is
// (0,0); a malformed one is an error.
func pointCoordinates(p *docstore.GeoPoint) (models.Coordinates, error) {
	if p == nil || p.Coordinates == nil {
		return models.Coordinates{}, nil
	}
	if len(p.Coordinates) != 2 {
		return models.Coordinates{}, fmt.Errorf("geojson point has %d coordinates, want 2", len(p.Coordinates))
	}
	c := models.Coordinates{Latitude: p.Coordinates[1], Longitude: p.Coordinates[0]}
	if err := models.ValidateCoordinates(c); err != nil {
		return models.Coordinates{}, err
	}
	return c, nil
}

// NativeBatch converts records, dropping and logging the ones that fail.
// flags may be nil or miss ids; missing entries mean no interaction.
func NativeBatch(recs []database.EventRecord, flags map[string]database.Flags) []models.UnifiedEvent {
	out := make([]models.UnifiedEvent, 0, len(recs))
	for i := range recs {
		ev, err := FromNative(&recs[i], flags[recs[i].ID])
		if err != nil {
			drop(models.OriginNative, recs[i].ID, err)
			continue
		}
		out = append(out, ev)
	}
	return out
}

// ExternalBatch converts documents, dropping and logging the ones that fail.
func ExternalBatch(docs []docstore.Event, userID string) []models.UnifiedEvent {
	out := make([]models.UnifiedEvent, 0, len(docs))
	for i := range docs {
		ev, err := FromExternal(&docs[i], userID)
		if err != nil {
			drop(models.OriginExternal, docs[i].ID, err)
			continue
		}
		out = append(out, ev)
	}
	return out
}

func drop(origin models.Origin, id string, err error) {
	logging.Warn().Err(err).Str("origin", string(origin)).Str("event_id", id).Msg("Dropping event that failed normalization")
	metrics.NormalizationDropped.WithLabelValues(string(origin)).Inc()
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
