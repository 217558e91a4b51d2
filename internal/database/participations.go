// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/eventhub/internal/filter"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

var participationsTable = goqu.T("event_participations")

const participationColumns = `id, event_id, user_id, rsvp_status, registration_status, responded_at, check_in_time, feedback`

type participationRow struct {
	ID                 string         `db:"id"`
	EventID            string         `db:"event_id"`
	UserID             string         `db:"user_id"`
	RSVPStatus         string         `db:"rsvp_status"`
	RegistrationStatus string         `db:"registration_status"`
	Timestamp          time.Time      `db:"responded_at"`
	CheckInTime        sql.NullTime   `db:"check_in_time"`
	Feedback           sql.NullString `db:"feedback"`
}

func (r *participationRow) model() models.Participation {
	p := models.Participation{
		ID:                 r.ID,
		EventID:            r.EventID,
		UserID:             r.UserID,
		RSVPStatus:         models.RSVPStatus(r.RSVPStatus),
		RegistrationStatus: models.RegistrationStatus(r.RegistrationStatus),
		Timestamp:          r.Timestamp,
	}
	if r.CheckInTime.Valid {
		t := r.CheckInTime.Time
		p.CheckInTime = &t
	}
	if r.Feedback.Valid {
		f := r.Feedback.String
		p.Feedback = &f
	}
	return p
}

// participationsFor loads the participations of several events, oldest first.
func (db *DB) participationsFor(ctx context.Context, eventIDs []string) ([]models.Participation, error) {
	query, args, err := sqlx.In(`SELECT `+participationColumns+` FROM event_participations WHERE event_id IN (?) ORDER BY responded_at, id`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("build participation query: %w", err)
	}
	var rows []participationRow
	if err := db.x.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load participations: %w", err)
	}
	out := make([]models.Participation, len(rows))
	for i := range rows {
		out[i] = rows[i].model()
	}
	return out, nil
}

func getParticipation(ctx context.Context, q sqlx.QueryerContext, eventID, userID string) (*participationRow, error) {
	var row participationRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT `+participationColumns+` FROM event_participations WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load participation: %w", err)
	}
	return &row, nil
}

// seatStatus returns REGISTERED, or WAITLISTED when the event has a capacity
// and the seat-holding participations have reached it. It also reports
// ErrEventNotFound.
func seatStatus(ctx context.Context, q sqlx.QueryerContext, eventID string) (models.RegistrationStatus, error) {
	var capacity sql.NullInt64
	err := sqlx.GetContext(ctx, q, &capacity, `SELECT capacity FROM events WHERE id = ?`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load capacity: %w", err)
	}
	if !capacity.Valid {
		return models.RegistrationRegistered, nil
	}

	var taken int64
	if err := sqlx.GetContext(ctx, q, &taken,
		`SELECT COUNT(*) FROM event_participations WHERE event_id = ? AND registration_status IN (?, ?)`,
		eventID, string(models.RegistrationRegistered), string(models.RegistrationPending)); err != nil {
		return "", fmt.Errorf("count seats: %w", err)
	}
	if taken >= capacity.Int64 {
		return models.RegistrationWaitlisted, nil
	}
	return models.RegistrationRegistered, nil
}

func insertParticipation(ctx context.Context, tx *sqlx.Tx, p *models.Participation) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO event_participations (`+participationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.EventID, p.UserID, string(p.RSVPStatus), string(p.RegistrationStatus), p.Timestamp,
		nullTime(p.CheckInTime), nullString(p.Feedback))
	if isUniqueConstraintError(err) {
		return fmt.Errorf("event %s user %s: %w", p.EventID, p.UserID, ErrDuplicateParticipation)
	}
	if err != nil {
		return fmt.Errorf("insert participation: %w", err)
	}
	return nil
}

// RegisterForEvent registers userID for an event. An existing participation
// only has its RSVP and timestamp refreshed; its registration status is kept
// and capacity is not evaluated again. A new participation on a full event is
// created WAITLISTED.
func (db *DB) RegisterForEvent(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus) (*models.RegistrationResult, error) {
	defer metrics.RecordDBQuery("register_for_event", time.Now())

	var result models.RegistrationResult
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := eventExists(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
		}

		existing, err := getParticipation(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		now := db.now()

		if existing != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE event_participations SET rsvp_status = ?, responded_at = ? WHERE id = ?`,
				string(rsvp), now, existing.ID); err != nil {
				return fmt.Errorf("update participation: %w", err)
			}
			existing.RSVPStatus = string(rsvp)
			existing.Timestamp = now
			result = models.RegistrationResult{Participation: existing.model()}
			return nil
		}

		status, err := seatStatus(ctx, tx, eventID)
		if err != nil {
			return err
		}
		p := models.Participation{
			ID:                 uuid.New().String(),
			EventID:            eventID,
			UserID:             userID,
			RSVPStatus:         rsvp,
			RegistrationStatus: status,
			Timestamp:          now,
		}
		if err := insertParticipation(ctx, tx, &p); err != nil {
			return err
		}
		result = models.RegistrationResult{
			Participation: p,
			Created:       true,
			Waitlisted:    status == models.RegistrationWaitlisted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("event_id", eventID).
		Str("registration_status", string(result.Participation.RegistrationStatus)).
		Bool("created", result.Created).
		Msg("Registration recorded")
	return &result, nil
}

// CreateParticipation inserts a participation and fails with
// ErrDuplicateParticipation when the user already has one. An empty regStatus
// is decided by capacity.
func (db *DB) CreateParticipation(ctx context.Context, eventID, userID string, rsvp models.RSVPStatus, regStatus models.RegistrationStatus) (*models.RegistrationResult, error) {
	defer metrics.RecordDBQuery("create_participation", time.Now())

	var result models.RegistrationResult
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		status := regStatus
		if status == "" {
			s, err := seatStatus(ctx, tx, eventID)
			if err != nil {
				return err
			}
			status = s
		} else if ok, err := eventExists(ctx, tx, eventID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
		}

		if rsvp == "" {
			rsvp = models.RSVPGoing
		}
		p := models.Participation{
			ID:                 uuid.New().String(),
			EventID:            eventID,
			UserID:             userID,
			RSVPStatus:         rsvp,
			RegistrationStatus: status,
			Timestamp:          db.now(),
		}
		if err := insertParticipation(ctx, tx, &p); err != nil {
			return err
		}
		result = models.RegistrationResult{
			Participation: p,
			Created:       true,
			Waitlisted:    status == models.RegistrationWaitlisted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateParticipation changes the provided fields of an existing
// participation and fails with ErrParticipationNotFound when there is none.
func (db *DB) UpdateParticipation(ctx context.Context, eventID, userID string, upd *models.ParticipationUpdate) (*models.Participation, error) {
	defer metrics.RecordDBQuery("update_participation", time.Now())

	var out models.Participation
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := getParticipation(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("event %s user %s: %w", eventID, userID, ErrParticipationNotFound)
		}
		p, err := db.applyParticipationUpdate(ctx, tx, existing, upd)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpsertParticipation updates the provided fields of the user's participation
// in place, or creates one defaulting to GOING. A created participation
// without an explicit registration status is subject to the capacity check.
func (db *DB) UpsertParticipation(ctx context.Context, eventID, userID string, upd *models.ParticipationUpdate) (*models.RegistrationResult, error) {
	defer metrics.RecordDBQuery("upsert_participation", time.Now())

	var result models.RegistrationResult
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := eventExists(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
		}

		existing, err := getParticipation(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			p, err := db.applyParticipationUpdate(ctx, tx, existing, upd)
			if err != nil {
				return err
			}
			result = models.RegistrationResult{Participation: p}
			return nil
		}

		p := models.Participation{
			ID:          uuid.New().String(),
			EventID:     eventID,
			UserID:      userID,
			RSVPStatus:  models.RSVPGoing,
			Timestamp:   db.now(),
			CheckInTime: upd.CheckInTime,
			Feedback:    upd.Feedback,
		}
		if upd.RSVPStatus != nil {
			p.RSVPStatus = *upd.RSVPStatus
		}
		if upd.RegistrationStatus != nil {
			p.RegistrationStatus = *upd.RegistrationStatus
		} else {
			status, err := seatStatus(ctx, tx, eventID)
			if err != nil {
				return err
			}
			p.RegistrationStatus = status
		}
		if err := insertParticipation(ctx, tx, &p); err != nil {
			return err
		}
		result = models.RegistrationResult{
			Participation: p,
			Created:       true,
			Waitlisted:    p.RegistrationStatus == models.RegistrationWaitlisted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (db *DB) applyParticipationUpdate(ctx context.Context, tx *sqlx.Tx, existing *participationRow, upd *models.ParticipationUpdate) (models.Participation, error) {
	now := db.now()
	rec := goqu.Record{"responded_at": now}
	existing.Timestamp = now

	if upd.RSVPStatus != nil {
		rec["rsvp_status"] = string(*upd.RSVPStatus)
		existing.RSVPStatus = string(*upd.RSVPStatus)
	}
	if upd.RegistrationStatus != nil {
		rec["registration_status"] = string(*upd.RegistrationStatus)
		existing.RegistrationStatus = string(*upd.RegistrationStatus)
	}
	if upd.CheckInTime != nil {
		rec["check_in_time"] = upd.CheckInTime.UTC()
		existing.CheckInTime = sql.NullTime{Time: upd.CheckInTime.UTC(), Valid: true}
	}
	if upd.Feedback != nil {
		rec["feedback"] = *upd.Feedback
		existing.Feedback = sql.NullString{String: *upd.Feedback, Valid: true}
	}

	query, args, err := filter.Dialect.Update(participationsTable).Prepared(true).
		Set(rec).
		Where(participationsTable.Col("id").Eq(existing.ID)).
		ToSQL()
	if err != nil {
		return models.Participation{}, fmt.Errorf("build participation update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return models.Participation{}, fmt.Errorf("update participation: %w", err)
	}
	return existing.model(), nil
}

// ListParticipated returns the events userID participates in, soonest first.
// Each record carries only the user's own participation.
func (db *DB) ListParticipated(ctx context.Context, userID string) ([]EventRecord, error) {
	sub := filter.Dialect.From(participationsTable).
		Select(participationsTable.Col("event_id")).
		Where(participationsTable.Col("user_id").Eq(userID))

	recs, err := db.listByIDSubquery(ctx, "list_participated", sub)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		own := recs[i].Participations[:0]
		for _, p := range recs[i].Participations {
			if p.UserID == userID {
				own = append(own, p)
			}
		}
		recs[i].Participations = own
	}
	return recs, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
