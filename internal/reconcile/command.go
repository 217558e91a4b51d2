// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/eventhub/internal/models"
)

// ErrInvalidCommand is returned for payloads that can never be applied.
var ErrInvalidCommand = errors.New("invalid ledger command")

// LedgerCommand is one ledger write to re-apply: Present=true inserts the
// (Kind, Origin, EventID, UserID) row, false deletes it.
type LedgerCommand struct {
	Kind     models.InteractionKind `json:"kind"`
	Origin   models.Origin          `json:"origin"`
	EventID  string                 `json:"event_id"`
	UserID   string                 `json:"user_id"`
	Present  bool                   `json:"present"`
	FailedAt time.Time              `json:"failed_at"`
	Reason   string                 `json:"reason,omitempty"`
}

// Validate reports whether c names a writable ledger row.
func (c *LedgerCommand) Validate() error {
	switch {
	case c.Kind != models.InteractionLike && c.Kind != models.InteractionSave:
		return fmt.Errorf("%w: kind %q", ErrInvalidCommand, c.Kind)
	case !c.Origin.Valid():
		return fmt.Errorf("%w: origin %q", ErrInvalidCommand, c.Origin)
	case c.EventID == "" || c.UserID == "":
		return fmt.Errorf("%w: event and user ids are required", ErrInvalidCommand)
	}
	return nil
}

// Marshal encodes c for the wire.
func (c *LedgerCommand) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalCommand decodes and validates a wire payload.
func UnmarshalCommand(data []byte) (LedgerCommand, error) {
	var c LedgerCommand
	if err := json.Unmarshal(data, &c); err != nil {
		return LedgerCommand{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if err := c.Validate(); err != nil {
		return LedgerCommand{}, err
	}
	return c, nil
}
