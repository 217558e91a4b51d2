// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/eventhub/internal/models"
)

// SortField names an orderable event attribute.
type SortField string

const (
	SortStartDate SortField = "START_DATE"
	SortCreatedAt SortField = "CREATED_AT"
	SortName      SortField = "NAME"
	SortCategory  SortField = "CATEGORY"
	// SortSource only orders external listings; native events sort by start date instead.
	SortSource SortField = "SOURCE"
)

// Direction is ASC or DESC.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order is the shared ordering accepted by every listing.
type Order struct {
	Field     SortField `json:"field" validate:"omitempty,oneof=START_DATE CREATED_AT NAME CATEGORY SOURCE"`
	Direction Direction `json:"direction" validate:"omitempty,oneof=ASC DESC"`
}

// DefaultOrder is START_DATE ascending.
func DefaultOrder() Order {
	return Order{Field: SortStartDate, Direction: Asc}
}

// Normalize fills empty or unknown parts with the defaults.
func (o Order) Normalize() Order {
	switch o.Field {
	case SortStartDate, SortCreatedAt, SortName, SortCategory, SortSource:
	default:
		o.Field = SortStartDate
	}
	if o.Direction != Desc {
		o.Direction = Asc
	}
	return o
}

// SortCombined stably re-sorts a merged, mixed-origin slice by o. Ties are
// broken by origin and then id so the output order is deterministic.
func SortCombined(events []models.UnifiedEvent, o Order) {
	o = o.Normalize()
	desc := o.Direction == Desc

	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if c := compareField(a, b, o.Field); c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		return a.ID < b.ID
	})
}

func compareField(a, b *models.UnifiedEvent, f SortField) int {
	switch f {
	case SortCreatedAt:
		return compareTime(a.CreatedAt, b.CreatedAt)
	case SortName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortCategory:
		return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
	case SortSource:
		if c := strings.Compare(strings.ToLower(a.Source), strings.ToLower(b.Source)); c != 0 {
			return c
		}
		return compareTime(a.StartDate, b.StartDate)
	default:
		return compareTime(a.StartDate, b.StartDate)
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
