// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/eventhub/internal/filter"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

// Flags are the per-user interaction flags of one event.
type Flags struct {
	Liked bool
	Saved bool
}

// InteractionResult is the outcome of a native like/save write.
type InteractionResult struct {
	// Changed is false when the ledger already matched the requested state.
	Changed bool
	// Count is the recomputed counter for the interaction kind.
	Count int
}

// ledgerTable and counterColumn are fixed per kind and never user-supplied.
func ledgerTable(kind models.InteractionKind) (string, string, error) {
	switch kind {
	case models.InteractionLike:
		return "liked_events", "like_count", nil
	case models.InteractionSave:
		return "saved_events", "save_count", nil
	}
	return "", "", fmt.Errorf("unknown interaction kind %q", kind)
}

// Like records that userID likes a native event.
func (db *DB) Like(ctx context.Context, eventID, userID string) (InteractionResult, error) {
	return db.setInteraction(ctx, models.InteractionLike, eventID, userID, true)
}

// Unlike removes userID's like from a native event.
func (db *DB) Unlike(ctx context.Context, eventID, userID string) (InteractionResult, error) {
	return db.setInteraction(ctx, models.InteractionLike, eventID, userID, false)
}

// Save records that userID saved a native event.
func (db *DB) Save(ctx context.Context, eventID, userID string) (InteractionResult, error) {
	return db.setInteraction(ctx, models.InteractionSave, eventID, userID, true)
}

// Unsave removes userID's save from a native event.
func (db *DB) Unsave(ctx context.Context, eventID, userID string) (InteractionResult, error) {
	return db.setInteraction(ctx, models.InteractionSave, eventID, userID, false)
}

// setInteraction moves the (user, event) ledger row to present and then
// recomputes the event's counter from the ledger. Applying a state that is
// already in place changes nothing.
func (db *DB) setInteraction(ctx context.Context, kind models.InteractionKind, eventID, userID string, present bool) (InteractionResult, error) {
	table, counter, err := ledgerTable(kind)
	if err != nil {
		return InteractionResult{}, err
	}
	defer metrics.RecordDBQuery("set_"+counter, time.Now())

	var result InteractionResult
	err = db.withTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := eventExists(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
		}

		changed, err := db.writeLedger(ctx, tx, table, models.OriginNative, eventID, userID, present)
		if err != nil {
			return err
		}
		result.Changed = changed

		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET `+counter+` = (SELECT COUNT(*) FROM `+table+` WHERE event_id = ? AND origin = 'NATIVE') WHERE id = ?`,
			eventID, eventID); err != nil {
			return fmt.Errorf("recompute %s: %w", counter, err)
		}
		if err := sqlx.GetContext(ctx, tx, &result.Count, `SELECT `+counter+` FROM events WHERE id = ?`, eventID); err != nil {
			return fmt.Errorf("read %s: %w", counter, err)
		}
		return nil
	})
	if err != nil {
		return InteractionResult{}, err
	}
	return result, nil
}

// writeLedger inserts or deletes one ledger row and reports whether the
// ledger changed.
func (db *DB) writeLedger(ctx context.Context, tx *sqlx.Tx, table string, origin models.Origin, eventID, userID string, present bool) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, tx, &n,
		`SELECT COUNT(*) FROM `+table+` WHERE user_id = ? AND event_id = ? AND origin = ?`,
		userID, eventID, string(origin)); err != nil {
		return false, fmt.Errorf("read %s: %w", table, err)
	}

	switch {
	case present && n == 0:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+table+` (user_id, event_id, origin, created_at) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
			userID, eventID, string(origin), db.now()); err != nil {
			return false, fmt.Errorf("insert %s: %w", table, err)
		}
		return true, nil
	case !present && n > 0:
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE user_id = ? AND event_id = ? AND origin = ?`,
			userID, eventID, string(origin)); err != nil {
			return false, fmt.Errorf("delete %s: %w", table, err)
		}
		return true, nil
	}
	return false, nil
}

// RecordInteraction writes the ledger projection of an interaction whose
// source of truth lives elsewhere, such as the likedBy set of an external
// event document. No counter is touched.
func (db *DB) RecordInteraction(ctx context.Context, kind models.InteractionKind, origin models.Origin, eventID, userID string, present bool) error {
	table, _, err := ledgerTable(kind)
	if err != nil {
		return err
	}
	defer metrics.RecordDBQuery("record_interaction", time.Now())

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := db.writeLedger(ctx, tx, table, origin, eventID, userID, present)
		return err
	})
}

// InteractionFlags resolves userID's like and save flags for events of one
// origin. Every id in ids is present in the result.
func (db *DB) InteractionFlags(ctx context.Context, userID string, origin models.Origin, ids []string) (map[string]Flags, error) {
	out := make(map[string]Flags, len(ids))
	for _, id := range ids {
		out[id] = Flags{}
	}
	if userID == "" || len(ids) == 0 {
		return out, nil
	}
	defer metrics.RecordDBQuery("interaction_flags", time.Now())

	for _, kind := range []models.InteractionKind{models.InteractionLike, models.InteractionSave} {
		table, _, err := ledgerTable(kind)
		if err != nil {
			return nil, err
		}
		query, args, err := sqlx.In(
			`SELECT event_id FROM `+table+` WHERE user_id = ? AND origin = ? AND event_id IN (?)`,
			userID, string(origin), ids)
		if err != nil {
			return nil, fmt.Errorf("build %s query: %w", table, err)
		}
		var hits []string
		if err := db.x.SelectContext(ctx, &hits, query, args...); err != nil {
			return nil, fmt.Errorf("load %s: %w", table, err)
		}
		for _, id := range hits {
			f := out[id]
			if kind == models.InteractionLike {
				f.Liked = true
			} else {
				f.Saved = true
			}
			out[id] = f
		}
	}
	return out, nil
}

// ListLiked returns the native events userID liked, soonest first.
func (db *DB) ListLiked(ctx context.Context, userID string) ([]EventRecord, error) {
	return db.listLedger(ctx, models.InteractionLike, userID)
}

// ListSaved returns the native events userID saved, soonest first.
func (db *DB) ListSaved(ctx context.Context, userID string) ([]EventRecord, error) {
	return db.listLedger(ctx, models.InteractionSave, userID)
}

func (db *DB) listLedger(ctx context.Context, kind models.InteractionKind, userID string) ([]EventRecord, error) {
	table, _, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}
	t := goqu.T(table)
	sub := filter.Dialect.From(t).
		Select(t.Col("event_id")).
		Where(
			t.Col("user_id").Eq(userID),
			t.Col("origin").Eq(string(models.OriginNative)),
		)
	return db.listByIDSubquery(ctx, "list_"+table, sub)
}
