// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package models

// InteractionKind is a binary per-user interaction with an event.
type InteractionKind string

const (
	InteractionLike InteractionKind = "LIKE"
	InteractionSave InteractionKind = "SAVE"
)

// Overrides forces per-user flags on a returned event so that the acting
// user sees the effect of their own write even when a secondary projection
// lags. Nil fields leave the resolved flag untouched.
type Overrides struct {
	IsLikedByUser *bool `json:"is_liked_by_user,omitempty"`
	IsSavedByUser *bool `json:"is_saved_by_user,omitempty"`
}

// OverrideFor returns the override for kind set to present.
func OverrideFor(kind InteractionKind, present bool) Overrides {
	v := present
	switch kind {
	case InteractionLike:
		return Overrides{IsLikedByUser: &v}
	case InteractionSave:
		return Overrides{IsSavedByUser: &v}
	}
	return Overrides{}
}

// IsEmpty reports whether o changes nothing.
func (o Overrides) IsEmpty() bool {
	return o.IsLikedByUser == nil && o.IsSavedByUser == nil
}

// ApplyOverrides sets the overridden flags on ev. It is applied by the
// serialization layer right before the response is written.
func ApplyOverrides(ev *UnifiedEvent, o Overrides) {
	if ev == nil || o.IsEmpty() {
		return
	}
	if o.IsLikedByUser != nil {
		ev.IsLikedByUser = *o.IsLikedByUser
	}
	if o.IsSavedByUser != nil {
		ev.IsSavedByUser = *o.IsSavedByUser
	}
}
