// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package interaction

import (
	"context"
	"errors"

	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

// Register registers userID for a native event with rsvp (GOING when
// empty). A full event waitlists the new participation; that is a success.
func (c *Coordinator) Register(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus) (*models.RegistrationResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rsvp, err := defaultRSVP(rsvp)
	if err != nil {
		return nil, err
	}

	res, err := c.native.RegisterForEvent(ctx, eventID, userID, rsvp)
	if err != nil {
		return nil, err
	}
	recordRegistration(res)
	return res, nil
}

// SmartRegister creates a participation, or updates the existing one to the
// same desired statuses. An empty regStatus lets capacity decide on create
// and keeps the stored status on update.
func (c *Coordinator) SmartRegister(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus, regStatus models.RegistrationStatus) (*models.RegistrationResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rsvp, err := defaultRSVP(rsvp)
	if err != nil {
		return nil, err
	}
	if regStatus != "" && !regStatus.Valid() {
		return nil, &models.ValidationError{Field: "registration_status", Message: "must be REGISTERED, PENDING, CANCELED or WAITLISTED"}
	}

	res, err := c.native.CreateParticipation(ctx, eventID, userID, rsvp, regStatus)
	if err == nil {
		recordRegistration(res)
		return res, nil
	}
	if !errors.Is(err, database.ErrDuplicateParticipation) {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("event_id", eventID).
		Str("user_id", userID).
		Msg("Participation exists, updating instead")

	upd := &models.ParticipationUpdate{RSVPStatus: &rsvp}
	if regStatus != "" {
		upd.RegistrationStatus = &regStatus
	}
	p, err := c.native.UpdateParticipation(ctx, eventID, userID, upd)
	if err != nil {
		return nil, err
	}
	res = &models.RegistrationResult{Participation: *p}
	recordRegistration(res)
	return res, nil
}

// UpdateParticipation changes the given fields of userID's participation,
// creating it when there is none.
func (c *Coordinator) UpdateParticipation(ctx context.Context, eventID, userID string, upd *models.ParticipationUpdate) (*models.RegistrationResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if upd == nil {
		upd = &models.ParticipationUpdate{}
	}
	if upd.RSVPStatus != nil && !upd.RSVPStatus.Valid() {
		return nil, &models.ValidationError{Field: "rsvp_status", Message: "must be GOING, MAYBE or NOT_GOING"}
	}
	if upd.RegistrationStatus != nil && !upd.RegistrationStatus.Valid() {
		return nil, &models.ValidationError{Field: "registration_status", Message: "must be REGISTERED, PENDING, CANCELED or WAITLISTED"}
	}

	res, err := c.native.UpsertParticipation(ctx, eventID, userID, upd)
	if err != nil {
		return nil, err
	}
	recordRegistration(res)
	return res, nil
}

func defaultRSVP(rsvp models.RSVPStatus) (models.RSVPStatus, error) {
	if rsvp == "" {
		return models.RSVPGoing, nil
	}
	if !rsvp.Valid() {
		return "", &models.ValidationError{Field: "rsvp_status", Message: "must be GOING, MAYBE or NOT_GOING"}
	}
	return rsvp, nil
}

func recordRegistration(res *models.RegistrationResult) {
	switch {
	case !res.Created:
		metrics.Registrations.WithLabelValues("updated").Inc()
	case res.Waitlisted:
		metrics.Registrations.WithLabelValues("waitlisted").Inc()
	default:
		metrics.Registrations.WithLabelValues("registered").Inc()
	}
}
