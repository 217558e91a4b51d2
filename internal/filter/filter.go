// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package filter translates one store-agnostic event filter and ordering into
// the query language of each event store: goqu expressions for the relational
// store and bson documents for the document store.
//
// Criteria that only make sense for one origin are handled by Excludes, which
// tells the aggregation engine when a filter can never match an origin so the
// store is not queried at all.
package filter

import (
	"strings"
	"time"

	"github.com/tomtom215/eventhub/internal/models"
)

// EventFilter is the shared filter accepted by every event query. Zero
// values mean "no constraint".
type EventFilter struct {
	Name     string `json:"name,omitempty" validate:"omitempty,max=200"`
	Location string `json:"location,omitempty" validate:"omitempty,max=500"`
	Category string `json:"category,omitempty" validate:"omitempty,max=100"`

	StartDateFrom *time.Time `json:"start_date_from,omitempty"`
	StartDateTo   *time.Time `json:"start_date_to,omitempty"`
	EndDateFrom   *time.Time `json:"end_date_from,omitempty"`
	EndDateTo     *time.Time `json:"end_date_to,omitempty"`

	// Tags matches events carrying any of the listed tags.
	Tags []string `json:"tags,omitempty" validate:"omitempty,max=50,dive,min=1,max=64"`

	// Native-only criteria
	IsPublic             *bool              `json:"is_public,omitempty"`
	CreatorID            string             `json:"creator_id,omitempty"`
	Status               models.EventStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING ACTIVE COMPLETED CANCELED"`
	HasAvailableCapacity bool               `json:"has_available_capacity,omitempty"`

	// External-only criteria
	Source string `json:"source,omitempty" validate:"omitempty,max=100"`

	// IncludeInternal and IncludeExternal default to true when nil.
	IncludeInternal *bool `json:"include_internal,omitempty"`
	IncludeExternal *bool `json:"include_external,omitempty"`

	// IgnoreDates drops every date bound.
	IgnoreDates bool `json:"ignore_dates,omitempty"`
}

// Excludes reports whether f can never match an event of origin o.
func (f *EventFilter) Excludes(o models.Origin) bool {
	switch o {
	case models.OriginExternal:
		// External events have no creator or lifecycle status and are always public.
		return f.CreatorID != "" || f.Status != "" || (f.IsPublic != nil && !*f.IsPublic)
	case models.OriginNative:
		return f.Source != ""
	}
	return true
}

// Wants reports whether origin o should be queried at all: it is included
// and not excluded by a criterion.
func (f *EventFilter) Wants(o models.Origin) bool {
	switch o {
	case models.OriginNative:
		if f.IncludeInternal != nil && !*f.IncludeInternal {
			return false
		}
	case models.OriginExternal:
		if f.IncludeExternal != nil && !*f.IncludeExternal {
			return false
		}
	}
	return !f.Excludes(o)
}

// WithStartFrom returns a copy of f whose lower start bound is at least t.
func (f *EventFilter) WithStartFrom(t time.Time) EventFilter {
	c := *f
	if c.IgnoreDates {
		c.StartDateFrom, c.StartDateTo, c.EndDateFrom, c.EndDateTo = nil, nil, nil, nil
		c.IgnoreDates = false
	}
	if c.StartDateFrom == nil || c.StartDateFrom.Before(t) {
		c.StartDateFrom = &t
	}
	return c
}

// tags returns the normalized tag list, nil when empty.
func (f *EventFilter) tags() []string {
	tags := models.NormalizeTags(f.Tags)
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// Match applies f to an already normalized event. It is used where a store
// cannot apply the filter itself, such as the results of a geospatial query.
func (f *EventFilter) Match(ev *models.UnifiedEvent) bool {
	if f.Excludes(ev.Origin) {
		return false
	}
	if f.Name != "" && !containsFold(ev.Name, f.Name) {
		return false
	}
	if f.Location != "" && !containsFold(ev.Location, f.Location) {
		return false
	}
	if f.Category != "" && ev.Category != f.Category {
		return false
	}
	if !f.IgnoreDates {
		if f.StartDateFrom != nil && ev.StartDate.Before(*f.StartDateFrom) {
			return false
		}
		if f.StartDateTo != nil && ev.StartDate.After(*f.StartDateTo) {
			return false
		}
		if f.EndDateFrom != nil && ev.EndDate.Before(*f.EndDateFrom) {
			return false
		}
		if f.EndDateTo != nil && ev.EndDate.After(*f.EndDateTo) {
			return false
		}
	}
	if tags := f.tags(); tags != nil && !anyTag(ev.Tags, tags) {
		return false
	}
	if f.Source != "" && ev.Source != f.Source {
		return false
	}
	if ev.Origin == models.OriginNative {
		if f.CreatorID != "" && (ev.Creator == nil || ev.Creator.ID != f.CreatorID) {
			return false
		}
		if f.Status != "" && ev.Status != f.Status {
			return false
		}
		if f.IsPublic != nil && (ev.IsPublic == nil || *ev.IsPublic != *f.IsPublic) {
			return false
		}
		if f.HasAvailableCapacity && ev.Capacity != nil && seatsHeld(ev.Participations) >= *ev.Capacity {
			return false
		}
	}
	return true
}

// seatsHeld counts the participations holding a seat. ParticipantCount also
// includes waitlisted and canceled rows, so it cannot be used for capacity.
func seatsHeld(parts []models.Participation) int {
	n := 0
	for i := range parts {
		switch parts[i].RegistrationStatus {
		case models.RegistrationRegistered, models.RegistrationPending:
			n++
		}
	}
	return n
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
