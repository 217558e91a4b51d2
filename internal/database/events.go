// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/eventhub/internal/filter"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

// EventRecord is a native event row with its derived counts, tags and
// participations attached.
type EventRecord struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	Location    string          `db:"location"`
	Latitude    sql.NullFloat64 `db:"latitude"`
	Longitude   sql.NullFloat64 `db:"longitude"`
	StartDate   time.Time       `db:"start_date"`
	EndDate     time.Time       `db:"end_date"`
	Status      string          `db:"status"`
	Capacity    sql.NullInt64   `db:"capacity"`
	IsPublic    bool            `db:"is_public"`
	ImageURL    sql.NullString  `db:"image_url"`
	CreatorID   string          `db:"creator_id"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`

	LikeCount        int `db:"like_count"`
	SaveCount        int `db:"save_count"`
	ParticipantCount int `db:"participant_count"`

	Tags           []string               `db:"-"`
	Participations []models.Participation `db:"-"`
}

// HasCoordinates reports whether the row carries cached coordinates.
func (r *EventRecord) HasCoordinates() bool {
	return r.Latitude.Valid && r.Longitude.Valid
}

var eventsTable = goqu.T("events")

func eventColumns() []interface{} {
	cols := []string{
		"id", "name", "description", "category", "location", "latitude", "longitude",
		"start_date", "end_date", "status", "capacity", "is_public", "image_url",
		"creator_id", "created_at", "updated_at", "like_count", "save_count",
	}
	out := make([]interface{}, 0, len(cols)+1)
	for _, c := range cols {
		out = append(out, eventsTable.Col(c))
	}
	return append(out, filter.ParticipationCount().As("participant_count"))
}

func (db *DB) selectEvents() *goqu.SelectDataset {
	return filter.Dialect.From(eventsTable).Prepared(true).Select(eventColumns()...)
}

// queryEvents runs ds and attaches tags and participations to every row.
func (db *DB) queryEvents(ctx context.Context, op string, ds *goqu.SelectDataset) ([]EventRecord, error) {
	defer metrics.RecordDBQuery(op, time.Now())

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var recs []EventRecord
	if err := db.x.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(recs) == 0 {
		return []EventRecord{}, nil
	}
	if err := db.attachChildren(ctx, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// attachChildren loads the tags and participations of a page in one query each.
func (db *DB) attachChildren(ctx context.Context, recs []EventRecord) error {
	ids := make([]string, len(recs))
	byID := make(map[string]*EventRecord, len(recs))
	for i := range recs {
		ids[i] = recs[i].ID
		recs[i].Tags = []string{}
		recs[i].Participations = []models.Participation{}
		byID[recs[i].ID] = &recs[i]
	}

	query, args, err := sqlx.In(`SELECT event_id, tag FROM event_tags WHERE event_id IN (?) ORDER BY event_id, position`, ids)
	if err != nil {
		return fmt.Errorf("build tag query: %w", err)
	}
	var tags []struct {
		EventID string `db:"event_id"`
		Tag     string `db:"tag"`
	}
	if err := db.x.SelectContext(ctx, &tags, query, args...); err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	for _, t := range tags {
		if r := byID[t.EventID]; r != nil {
			r.Tags = append(r.Tags, t.Tag)
		}
	}

	parts, err := db.participationsFor(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range parts {
		if r := byID[p.EventID]; r != nil {
			r.Participations = append(r.Participations, p)
		}
	}
	return nil
}

// GetEvent returns one native event, or ErrEventNotFound.
func (db *DB) GetEvent(ctx context.Context, id string) (*EventRecord, error) {
	recs, err := db.queryEvents(ctx, "get_event", db.selectEvents().Where(eventsTable.Col("id").Eq(id)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("event %s: %w", id, ErrEventNotFound)
	}
	return &recs[0], nil
}

// ListEvents returns the native events matching f, ordered by o and paged
// with skip/take. take <= 0 returns an empty page.
func (db *DB) ListEvents(ctx context.Context, f *filter.EventFilter, o filter.Order, skip, take int) ([]EventRecord, error) {
	if take <= 0 {
		return []EventRecord{}, nil
	}
	if skip < 0 {
		skip = 0
	}
	ds := db.selectEvents().
		Where(filter.Relational(f)...).
		Order(filter.RelationalOrder(o)...).
		Offset(uint(skip)).
		Limit(uint(take))
	return db.queryEvents(ctx, "list_events", ds)
}

// CreateEvent stores a new event with status PENDING. When the input carries
// no coordinates the location is geocoded; a failed geocode leaves the
// coordinates unset so that reads retry the lookup later.
func (db *DB) CreateEvent(ctx context.Context, in *models.CreateEventInput) (*EventRecord, error) {
	now := db.now()
	id := uuid.New().String()

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	rec := goqu.Record{
		"id":          id,
		"name":        strings.TrimSpace(in.Name),
		"description": in.Description,
		"category":    in.Category,
		"location":    in.Location,
		"start_date":  in.StartDate.UTC(),
		"end_date":    in.EndDate.UTC(),
		"status":      string(models.StatusPending),
		"is_public":   isPublic,
		"creator_id":  in.CreatorID,
		"created_at":  now,
		"updated_at":  now,
	}
	if in.Capacity != nil {
		rec["capacity"] = *in.Capacity
	}
	if in.ImageURL != "" {
		rec["image_url"] = in.ImageURL
	}

	if c, ok := db.resolveCoordinates(ctx, in.Coordinates, in.Location); ok {
		rec["latitude"] = c.Latitude
		rec["longitude"] = c.Longitude
	}

	insert, args, err := filter.Dialect.Insert(eventsTable).Prepared(true).Rows(rec).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	start := time.Now()
	err = db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return replaceTags(ctx, tx, id, in.Tags)
	})
	metrics.RecordDBQuery("create_event", start)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("event_id", id).Str("creator_id", in.CreatorID).Msg("Native event created")
	return db.GetEvent(ctx, id)
}

// resolveCoordinates prefers explicit coordinates and falls back to geocoding.
func (db *DB) resolveCoordinates(ctx context.Context, explicit *models.Coordinates, location string) (models.Coordinates, bool) {
	if explicit != nil {
		return *explicit, true
	}
	if db.geocoder == nil || strings.TrimSpace(location) == "" {
		return models.Coordinates{}, false
	}
	c, err := db.geocoder.Geocode(ctx, location)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("location", location).Msg("Geocoding failed, coordinates left unset")
		return models.Coordinates{}, false
	}
	return c, true
}

// UpdateEvent applies a partial update. A new location without explicit
// coordinates clears the cached coordinates so they are geocoded again.
func (db *DB) UpdateEvent(ctx context.Context, id string, patch *models.UpdateEventInput) (*EventRecord, error) {
	rec := goqu.Record{"updated_at": db.now()}

	if patch.Name != nil {
		rec["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		rec["description"] = *patch.Description
	}
	if patch.Category != nil {
		rec["category"] = *patch.Category
	}
	if patch.StartDate != nil {
		rec["start_date"] = patch.StartDate.UTC()
	}
	if patch.EndDate != nil {
		rec["end_date"] = patch.EndDate.UTC()
	}
	if patch.Capacity != nil {
		rec["capacity"] = *patch.Capacity
	}
	if patch.IsPublic != nil {
		rec["is_public"] = *patch.IsPublic
	}
	if patch.ImageURL != nil {
		rec["image_url"] = *patch.ImageURL
	}
	if patch.Status != nil {
		rec["status"] = string(*patch.Status)
	}

	switch {
	case patch.Coordinates != nil:
		rec["latitude"] = patch.Coordinates.Latitude
		rec["longitude"] = patch.Coordinates.Longitude
		if patch.Location != nil {
			rec["location"] = *patch.Location
		}
	case patch.Location != nil:
		rec["location"] = *patch.Location
		rec["latitude"] = nil
		rec["longitude"] = nil
	}

	update, args, err := filter.Dialect.Update(eventsTable).Prepared(true).
		Set(rec).
		Where(eventsTable.Col("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	start := time.Now()
	err = db.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, update, args...)
		if err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("event %s: %w", id, ErrEventNotFound)
		}
		if patch.Tags != nil {
			return replaceTags(ctx, tx, id, patch.Tags)
		}
		return nil
	})
	metrics.RecordDBQuery("update_event", start)
	if err != nil {
		return nil, err
	}
	return db.GetEvent(ctx, id)
}

// DeleteEvent removes an event and everything referencing it in one
// transaction. Child rows go first and the event row last.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	defer metrics.RecordDBQuery("delete_event", time.Now())

	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := eventExists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("event %s: %w", id, ErrEventNotFound)
		}

		cascade := []string{
			`DELETE FROM event_participations WHERE event_id = ?`,
			`DELETE FROM liked_events WHERE event_id = ? AND origin = 'NATIVE'`,
			`DELETE FROM saved_events WHERE event_id = ? AND origin = 'NATIVE'`,
			`DELETE FROM event_tags WHERE event_id = ?`,
			`DELETE FROM events WHERE id = ?`,
		}
		for _, stmt := range cascade {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete event %s: %w", id, err)
			}
		}
		return nil
	})
}

// CacheCoordinates stores geocoded coordinates for an event. It is the
// write-back half of the lazy geocode on read and does not touch updated_at.
func (db *DB) CacheCoordinates(ctx context.Context, id string, c models.Coordinates) error {
	defer metrics.RecordDBQuery("cache_coordinates", time.Now())

	res, err := db.x.ExecContext(ctx, `UPDATE events SET latitude = ?, longitude = ? WHERE id = ?`, c.Latitude, c.Longitude, id)
	if err != nil {
		return fmt.Errorf("cache coordinates for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", id, ErrEventNotFound)
	}
	return nil
}

// ListCreated returns the events created by userID, newest start first.
func (db *DB) ListCreated(ctx context.Context, userID string) ([]EventRecord, error) {
	ds := db.selectEvents().
		Where(eventsTable.Col("creator_id").Eq(userID)).
		Order(eventsTable.Col("start_date").Desc(), eventsTable.Col("id").Asc())
	return db.queryEvents(ctx, "list_created", ds)
}

// listByIDSubquery returns the events whose id is produced by sub, soonest first.
func (db *DB) listByIDSubquery(ctx context.Context, op string, sub exp.AppendableExpression) ([]EventRecord, error) {
	ds := db.selectEvents().
		Where(eventsTable.Col("id").In(sub)).
		Order(eventsTable.Col("start_date").Asc(), eventsTable.Col("id").Asc())
	return db.queryEvents(ctx, op, ds)
}

func replaceTags(ctx context.Context, tx *sqlx.Tx, eventID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_tags WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for i, tag := range models.NormalizeTags(tags) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO event_tags (event_id, tag, position) VALUES (?, ?, ?)`, eventID, tag, i); err != nil {
			return fmt.Errorf("insert tag %q: %w", tag, err)
		}
	}
	return nil
}
