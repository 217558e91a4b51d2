// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package docstore

import (
	"time"

	"github.com/tomtom215/eventhub/internal/models"
)

// GeoPoint is a GeoJSON Point. Coordinates are stored [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
}

// PointFrom builds a GeoJSON point from lat/lon coordinates.
func PointFrom(c models.Coordinates, address string) *GeoPoint {
	return &GeoPoint{
		Type:        "Point",
		Coordinates: []float64{c.Longitude, c.Latitude},
		Address:     address,
	}
}

// Event is a document of the externalEvents collection.
type Event struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	Source      string    `bson:"source"`
	ExternalID  string    `bson:"externalId"`
	Category    string    `bson:"category,omitempty"`
	Location    *GeoPoint `bson:"location,omitempty"`
	StartDate   time.Time `bson:"startDate"`
	EndDate     time.Time `bson:"endDate"`
	ImageURL    string    `bson:"imageUrl,omitempty"`
	ExternalURL string    `bson:"externalUrl,omitempty"`
	Tags        []string  `bson:"tags,omitempty"`
	LikedBy     []string  `bson:"likedBy,omitempty"`
	SavedBy     []string  `bson:"savedBy,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// Address returns the human-readable location, or "".
func (e *Event) Address() string {
	if e.Location == nil {
		return ""
	}
	return e.Location.Address
}

// LikedByUser reports whether userID is in the likedBy set.
func (e *Event) LikedByUser(userID string) bool {
	return userID != "" && contains(e.LikedBy, userID)
}

// SavedByUser reports whether userID is in the savedBy set.
func (e *Event) SavedByUser(userID string) bool {
	return userID != "" && contains(e.SavedBy, userID)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
