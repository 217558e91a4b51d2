// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package models

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestApplyOverrides(t *testing.T) {
	t.Parallel()

	ev := &UnifiedEvent{ID: "e1", IsLikedByUser: false, IsSavedByUser: true}
	ApplyOverrides(ev, OverrideFor(InteractionLike, true))
	if !ev.IsLikedByUser {
		t.Error("like override should set IsLikedByUser")
	}
	if !ev.IsSavedByUser {
		t.Error("like override must not touch IsSavedByUser")
	}

	ApplyOverrides(ev, OverrideFor(InteractionSave, false))
	if ev.IsSavedByUser {
		t.Error("save override should clear IsSavedByUser")
	}

	ApplyOverrides(nil, OverrideFor(InteractionSave, true))
}

func TestOverridesIsEmpty(t *testing.T) {
	t.Parallel()

	if !(Overrides{}).IsEmpty() {
		t.Error("zero overrides should be empty")
	}
	if OverrideFor(InteractionLike, false).IsEmpty() {
		t.Error("an explicit false is still an override")
	}
	if !OverrideFor(InteractionKind("SHARE"), true).IsEmpty() {
		t.Error("unknown kinds produce no override")
	}
}

func TestValidateCoordinates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    Coordinates
		ok   bool
	}{
		{"origin", Coordinates{0, 0}, true},
		{"new york", Coordinates{40.7, -74.0}, true},
		{"poles", Coordinates{90, 180}, true},
		{"lat too big", Coordinates{90.01, 0}, false},
		{"lon too small", Coordinates{0, -180.5}, false},
		{"nan", Coordinates{math.NaN(), 0}, false},
		{"inf", Coordinates{0, math.Inf(1)}, false},
	}
	for _, tt := range tests {
		err := ValidateCoordinates(tt.c)
		if (err == nil) != tt.ok {
			t.Errorf("%s: ValidateCoordinates(%v) err = %v", tt.name, tt.c, err)
		}
		var ve *ValidationError
		if err != nil && !errors.As(err, &ve) {
			t.Errorf("%s: expected *ValidationError, got %T", tt.name, err)
		}
	}
}

func TestCreateEventInputCheck(t *testing.T) {
	t.Parallel()

	in := CreateEventInput{Name: "  ", Location: "Library"}
	if err := in.Check(); err == nil {
		t.Error("blank name should be rejected")
	}

	in = CreateEventInput{Name: "Hack Night"}
	if err := in.Check(); err == nil {
		t.Error("missing location and coordinates should be rejected")
	}

	in = CreateEventInput{Name: "Hack Night", Coordinates: &Coordinates{Latitude: 120}}
	if err := in.Check(); err == nil {
		t.Error("malformed coordinates should be rejected")
	}

	in = CreateEventInput{Name: "Hack Night", Location: "Gates Hall"}
	if err := in.Check(); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	got := NormalizeTags([]string{" music", "", "food", "music", "food ", "art"})
	want := []string{"music", "food", "art"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeTags = %v, want %v", got, want)
	}
	if got := NormalizeTags(nil); got == nil || len(got) != 0 {
		t.Errorf("NormalizeTags(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestStatusPredicates(t *testing.T) {
	t.Parallel()

	if !RegistrationRegistered.HoldsSeat() || !RegistrationPending.HoldsSeat() {
		t.Error("REGISTERED and PENDING hold a seat")
	}
	if RegistrationWaitlisted.HoldsSeat() || RegistrationCanceled.HoldsSeat() {
		t.Error("WAITLISTED and CANCELED do not hold a seat")
	}
	if RSVPStatus("YES").Valid() {
		t.Error("unknown RSVP should be invalid")
	}
	if !OriginExternal.Valid() || Origin("OTHER").Valid() {
		t.Error("origin validity mismatch")
	}
}
