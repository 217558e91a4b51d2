// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CreateEventInput holds the fields for a new native event.
type CreateEventInput struct {
	Name        string       `json:"name" validate:"required,min=1,max=200"`
	Description string       `json:"description" validate:"max=10000"`
	Category    string       `json:"category" validate:"required,max=100"`
	Location    string       `json:"location" validate:"max=500"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	StartDate   time.Time    `json:"start_date" validate:"required"`
	EndDate     time.Time    `json:"end_date" validate:"required"`
	Tags        []string     `json:"tags" validate:"max=50,dive,min=1,max=64"`
	Capacity    *int         `json:"capacity,omitempty" validate:"omitempty,min=0"`
	IsPublic    *bool        `json:"is_public,omitempty"`
	ImageURL    string       `json:"image_url,omitempty" validate:"omitempty,url"`
	CreatorID   string       `json:"creator_id" validate:"required"`
}

// UpdateEventInput is a partial update; nil fields are left unchanged.
type UpdateEventInput struct {
	Name        *string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string      `json:"description,omitempty" validate:"omitempty,max=10000"`
	Category    *string      `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Location    *string      `json:"location,omitempty" validate:"omitempty,max=500"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	StartDate   *time.Time   `json:"start_date,omitempty"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	Tags        []string     `json:"tags,omitempty" validate:"omitempty,max=50,dive,min=1,max=64"`
	Capacity    *int         `json:"capacity,omitempty" validate:"omitempty,min=0"`
	IsPublic    *bool        `json:"is_public,omitempty"`
	ImageURL    *string      `json:"image_url,omitempty" validate:"omitempty,url"`
	Status      *EventStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING ACTIVE COMPLETED CANCELED"`
}

// ValidationError rejects an input before any store write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateCoordinates rejects non-finite or out-of-range points.
func ValidateCoordinates(c Coordinates) error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90 {
		return &ValidationError{Field: "coordinates.latitude", Message: "must be between -90 and 90"}
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180 {
		return &ValidationError{Field: "coordinates.longitude", Message: "must be between -180 and 180"}
	}
	return nil
}

// Check performs the semantic checks struct tags cannot express.
func (in *CreateEventInput) Check() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if in.Coordinates != nil {
		if err := ValidateCoordinates(*in.Coordinates); err != nil {
			return err
		}
	}
	if in.Coordinates == nil && strings.TrimSpace(in.Location) == "" {
		return &ValidationError{Field: "location", Message: "location or coordinates are required"}
	}
	return nil
}

// Check performs the semantic checks struct tags cannot express.
func (in *UpdateEventInput) Check() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be blank"}
	}
	if in.Coordinates != nil {
		return ValidateCoordinates(*in.Coordinates)
	}
	return nil
}

// NormalizeTags trims, drops empties and deduplicates while keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
