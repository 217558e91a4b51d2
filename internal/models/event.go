// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package models provides the store-agnostic data shapes shared by the
// aggregation engine, the interaction coordinator and the HTTP API.
package models

import "time"

// Origin identifies which physical store an event belongs to.
type Origin string

const (
	// OriginNative events live in the relational store and are created on the platform.
	OriginNative Origin = "NATIVE"
	// OriginExternal events live in the document store and are ingested from other platforms.
	OriginExternal Origin = "EXTERNAL"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	return o == OriginNative || o == OriginExternal
}

// EventStatus is the lifecycle state of a native event.
type EventStatus string

const (
	StatusPending   EventStatus = "PENDING"
	StatusActive    EventStatus = "ACTIVE"
	StatusCompleted EventStatus = "COMPLETED"
	StatusCanceled  EventStatus = "CANCELED"
)

// Coordinates is a latitude-first point. The zero value (0,0) is the
// placeholder for events whose location could not be resolved.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsZero reports whether c is the (0,0) placeholder.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// Creator is the directory profile of a native event's creator.
type Creator struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UnifiedEvent is the common shape of an event regardless of origin.
// Coordinates, counts and per-user flags are always populated.
type UnifiedEvent struct {
	ID          string      `json:"id"`
	Origin      Origin      `json:"origin"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Location    string      `json:"location"`
	Coordinates Coordinates `json:"coordinates"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Tags        []string    `json:"tags"`
	ImageURL    string      `json:"image_url,omitempty"`

	LikeCount     int  `json:"like_count"`
	SaveCount     int  `json:"save_count"`
	IsLikedByUser bool `json:"is_liked_by_user"`
	IsSavedByUser bool `json:"is_saved_by_user"`

	// Native only
	Status           EventStatus     `json:"status,omitempty"`
	Capacity         *int            `json:"capacity,omitempty"`
	IsPublic         *bool           `json:"is_public,omitempty"`
	Creator          *Creator        `json:"creator,omitempty"`
	ParticipantCount *int            `json:"participant_count,omitempty"`
	Participations   []Participation `json:"participations,omitempty"`

	// External only
	Source      string `json:"source,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`

	// DistanceKm is set by near-me queries only.
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Key uniquely identifies an event across origins.
func (e *UnifiedEvent) Key() string {
	return string(e.Origin) + ":" + e.ID
}
