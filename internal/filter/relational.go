// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package filter

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/tomtom215/eventhub/internal/models"
)

// DialectName is the goqu dialect used against DuckDB. DuckDB accepts the
// PostgreSQL quoting rules and $n placeholders.
const DialectName = "postgres"

// Dialect is shared by every relational query, including subqueries, so
// placeholders stay consistent within one statement.
var Dialect = goqu.Dialect(DialectName)

var (
	eventsTable         = goqu.T("events")
	eventTagsTable      = goqu.T("event_tags")
	participationsTable = goqu.T("event_participations")
)

// SeatHoldingStatuses are the registration states counted against capacity.
var SeatHoldingStatuses = []interface{}{
	string(models.RegistrationRegistered),
	string(models.RegistrationPending),
}

// SeatsTaken is a correlated subquery counting the seat-holding
// participations of the outer events row.
func SeatsTaken() *goqu.SelectDataset {
	return Dialect.From(participationsTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			participationsTable.Col("event_id").Eq(eventsTable.Col("id")),
			participationsTable.Col("registration_status").In(SeatHoldingStatuses...),
		)
}

// ParticipationCount is a correlated subquery counting every participation
// of the outer events row, whatever its status.
func ParticipationCount() *goqu.SelectDataset {
	return Dialect.From(participationsTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(participationsTable.Col("event_id").Eq(eventsTable.Col("id")))
}

// Relational translates f into predicates over the events table.
func Relational(f *EventFilter) []exp.Expression {
	var where []exp.Expression

	if f.Name != "" {
		where = append(where, containsFoldExpr(eventsTable.Col("name"), f.Name))
	}
	if f.Location != "" {
		where = append(where, containsFoldExpr(eventsTable.Col("location"), f.Location))
	}
	if f.Category != "" {
		where = append(where, eventsTable.Col("category").Eq(f.Category))
	}

	if !f.IgnoreDates {
		if f.StartDateFrom != nil {
			where = append(where, eventsTable.Col("start_date").Gte(*f.StartDateFrom))
		}
		if f.StartDateTo != nil {
			where = append(where, eventsTable.Col("start_date").Lte(*f.StartDateTo))
		}
		if f.EndDateFrom != nil {
			where = append(where, eventsTable.Col("end_date").Gte(*f.EndDateFrom))
		}
		if f.EndDateTo != nil {
			where = append(where, eventsTable.Col("end_date").Lte(*f.EndDateTo))
		}
	}

	if tags := f.tags(); tags != nil {
		where = append(where, eventsTable.Col("id").In(
			Dialect.From(eventTagsTable).
				Select(eventTagsTable.Col("event_id")).
				Where(eventTagsTable.Col("tag").In(tags)),
		))
	}

	if f.IsPublic != nil {
		where = append(where, eventsTable.Col("is_public").Eq(*f.IsPublic))
	}
	if f.CreatorID != "" {
		where = append(where, eventsTable.Col("creator_id").Eq(f.CreatorID))
	}
	if f.Status != "" {
		where = append(where, eventsTable.Col("status").Eq(string(f.Status)))
	}
	if f.HasAvailableCapacity {
		where = append(where, goqu.Or(
			eventsTable.Col("capacity").IsNull(),
			eventsTable.Col("capacity").Gt(SeatsTaken()),
		))
	}

	return where
}

// RelationalOrder translates o into ORDER BY terms, with id as the final tiebreaker.
func RelationalOrder(o Order) []exp.OrderedExpression {
	o = o.Normalize()

	var key exp.Orderable
	switch o.Field {
	case SortCreatedAt:
		key = eventsTable.Col("created_at")
	case SortName:
		key = goqu.Func("lower", eventsTable.Col("name"))
	case SortCategory:
		key = goqu.Func("lower", eventsTable.Col("category"))
	default:
		key = eventsTable.Col("start_date")
	}

	primary := key.Asc()
	if o.Direction == Desc {
		primary = key.Desc()
	}
	return []exp.OrderedExpression{primary, eventsTable.Col("id").Asc()}
}

// containsFoldExpr is a case-insensitive substring match. strpos avoids
// having to escape LIKE wildcards in user input.
func containsFoldExpr(col exp.IdentifierExpression, v string) exp.Expression {
	return goqu.Func("strpos", goqu.Func("lower", col), strings.ToLower(v)).Gt(0)
}
