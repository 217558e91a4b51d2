// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package database

import (
	"errors"
	"io"
	"strings"
)

var (
	// ErrEventNotFound is returned when no native event has the given id.
	ErrEventNotFound = errors.New("event not found")
	// ErrParticipationNotFound is returned when the user has no participation for the event.
	ErrParticipationNotFound = errors.New("participation not found")
	// ErrDuplicateParticipation is returned when creating a participation that already exists.
	ErrDuplicateParticipation = errors.New("participation already exists")
)

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// DuckDB unique constraint error messages contain "UNIQUE constraint" or "Duplicate key"
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}

// closeQuietly closes a resource in error paths where Close errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
