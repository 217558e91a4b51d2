// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

// Creators resolves creator profiles from the users directory projection.
// Ids without a directory row map to a Creator carrying only the id.
func (db *DB) Creators(ctx context.Context, ids []string) (map[string]models.Creator, error) {
	out := make(map[string]models.Creator, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	defer metrics.RecordDBQuery("creators", time.Now())

	query, args, err := sqlx.In(`SELECT id, name, email FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build creators query: %w", err)
	}
	var rows []struct {
		ID    string `db:"id"`
		Name  string `db:"name"`
		Email string `db:"email"`
	}
	if err := db.x.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load creators: %w", err)
	}

	for _, id := range ids {
		out[id] = models.Creator{ID: id}
	}
	for _, r := range rows {
		out[r.ID] = models.Creator{ID: r.ID, Name: r.Name, Email: r.Email}
	}
	return out, nil
}

// UpsertUser writes a directory row. The directory is owned by the identity
// service; this is how its sync job and the tests populate it.
func (db *DB) UpsertUser(ctx context.Context, c models.Creator) error {
	defer metrics.RecordDBQuery("upsert_user", time.Now())

	_, err := db.x.ExecContext(ctx,
		`INSERT INTO users (id, name, email) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		c.ID, c.Name, c.Email)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", c.ID, err)
	}
	return nil
}
