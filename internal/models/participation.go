// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package models

import "time"

// RSVPStatus is a participant's stated intention.
type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "GOING"
	RSVPMaybe    RSVPStatus = "MAYBE"
	RSVPNotGoing RSVPStatus = "NOT_GOING"
)

// Valid reports whether s is a known RSVP status.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPGoing, RSVPMaybe, RSVPNotGoing:
		return true
	}
	return false
}

// RegistrationStatus is the organizer-side state of a participation.
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "REGISTERED"
	RegistrationPending    RegistrationStatus = "PENDING"
	RegistrationCanceled   RegistrationStatus = "CANCELED"
	RegistrationWaitlisted RegistrationStatus = "WAITLISTED"
)

// Valid reports whether s is a known registration status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationRegistered, RegistrationPending, RegistrationCanceled, RegistrationWaitlisted:
		return true
	}
	return false
}

// HoldsSeat reports whether a participation in this state counts against capacity.
func (s RegistrationStatus) HoldsSeat() bool {
	return s == RegistrationRegistered || s == RegistrationPending
}

// Participation is one user's registration for a native event. There is at
// most one per (EventID, UserID).
type Participation struct {
	ID                 string             `json:"id"`
	EventID            string             `json:"event_id"`
	UserID             string             `json:"user_id"`
	RSVPStatus         RSVPStatus         `json:"rsvp_status"`
	RegistrationStatus RegistrationStatus `json:"registration_status"`
	Timestamp          time.Time          `json:"timestamp"`
	CheckInTime        *time.Time         `json:"check_in_time,omitempty"`
	Feedback           *string            `json:"feedback,omitempty"`
}

// ParticipationUpdate carries the fields to change on a participation.
// Nil fields keep their stored value.
type ParticipationUpdate struct {
	RSVPStatus         *RSVPStatus         `json:"rsvp_status,omitempty" validate:"omitempty,oneof=GOING MAYBE NOT_GOING"`
	RegistrationStatus *RegistrationStatus `json:"registration_status,omitempty" validate:"omitempty,oneof=REGISTERED PENDING CANCELED WAITLISTED"`
	CheckInTime        *time.Time          `json:"check_in_time,omitempty"`
	Feedback           *string             `json:"feedback,omitempty" validate:"omitempty,max=2000"`
}

// RegistrationResult is the outcome of a registration. Waitlisted is a
// successful outcome, not a failure.
type RegistrationResult struct {
	Participation Participation `json:"participation"`
	Created       bool          `json:"created"`
	Waitlisted    bool          `json:"waitlisted"`
}
