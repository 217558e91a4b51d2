// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the tables and indexes. Every statement is idempotent.
//
// Cascades are applied by DeleteEvent rather than by foreign keys: DuckDB
// does not support ON DELETE CASCADE.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range append(tableCreationQueries(), indexCreationQueries()...) {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			description VARCHAR NOT NULL DEFAULT '',
			category VARCHAR NOT NULL DEFAULT '',
			location VARCHAR NOT NULL DEFAULT '',
			latitude DOUBLE,
			longitude DOUBLE,
			start_date TIMESTAMP NOT NULL,
			end_date TIMESTAMP NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'PENDING',
			capacity INTEGER,
			is_public BOOLEAN NOT NULL DEFAULT TRUE,
			image_url VARCHAR,
			creator_id VARCHAR NOT NULL,
			like_count INTEGER NOT NULL DEFAULT 0,
			save_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS event_tags (
			event_id VARCHAR NOT NULL,
			tag VARCHAR NOT NULL,
			position INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS event_participations (
			id VARCHAR PRIMARY KEY,
			event_id VARCHAR NOT NULL,
			user_id VARCHAR NOT NULL,
			rsvp_status VARCHAR NOT NULL,
			registration_status VARCHAR NOT NULL,
			responded_at TIMESTAMP NOT NULL,
			check_in_time TIMESTAMP,
			feedback VARCHAR,
			UNIQUE (event_id, user_id)
		)`,

		// The interaction ledger. Native rows are the source of truth for the
		// counters on events; external rows project the document store's
		// likedBy/savedBy sets for per-user listings.
		`CREATE TABLE IF NOT EXISTS liked_events (
			user_id VARCHAR NOT NULL,
			event_id VARCHAR NOT NULL,
			origin VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, event_id, origin)
		)`,

		`CREATE TABLE IF NOT EXISTS saved_events (
			user_id VARCHAR NOT NULL,
			event_id VARCHAR NOT NULL,
			origin VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, event_id, origin)
		)`,

		// Directory projection maintained by the identity service.
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL DEFAULT '',
			email VARCHAR NOT NULL DEFAULT ''
		)`,
	}
}

// indexCreationQueries covers the child tables only. events rows are updated
// in place (counters, coordinates, patches), and DuckDB rewrites updates of
// indexed columns as delete plus insert, which trips the primary key check.
func indexCreationQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_event_tags_event ON event_tags(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participations_event ON event_participations(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participations_user ON event_participations(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_liked_event ON liked_events(event_id, origin)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_event ON saved_events(event_id, origin)`,
	}
}
