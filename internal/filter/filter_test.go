// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/eventhub/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestExcludes(t *testing.T) {
	tests := []struct {
		name        string
		f           EventFilter
		excNative   bool
		excExternal bool
	}{
		{"empty filter", EventFilter{}, false, false},
		{"creator", EventFilter{CreatorID: "u1"}, false, true},
		{"status", EventFilter{Status: models.StatusActive}, false, true},
		{"private only", EventFilter{IsPublic: boolPtr(false)}, false, true},
		{"public only", EventFilter{IsPublic: boolPtr(true)}, false, false},
		{"source", EventFilter{Source: "eventbrite"}, true, false},
		{"capacity", EventFilter{HasAvailableCapacity: true}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.excNative, tt.f.Excludes(models.OriginNative))
			assert.Equal(t, tt.excExternal, tt.f.Excludes(models.OriginExternal))
		})
	}
}

func TestWantsHonorsIncludeFlags(t *testing.T) {
	f := EventFilter{IncludeExternal: boolPtr(false)}
	assert.True(t, f.Wants(models.OriginNative))
	assert.False(t, f.Wants(models.OriginExternal))

	f = EventFilter{IncludeInternal: boolPtr(false), CreatorID: "u1"}
	assert.False(t, f.Wants(models.OriginNative))
	assert.False(t, f.Wants(models.OriginExternal))
}

func TestWithStartFrom(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	later := now.Add(time.Hour)

	f := EventFilter{StartDateFrom: &earlier}
	got := f.WithStartFrom(now)
	require.NotNil(t, got.StartDateFrom)
	assert.Equal(t, now, *got.StartDateFrom)
	assert.Equal(t, earlier, *f.StartDateFrom, "original filter must not change")

	f = EventFilter{StartDateFrom: &later}
	got = f.WithStartFrom(now)
	assert.Equal(t, later, *got.StartDateFrom)

	end := now.Add(24 * time.Hour)
	f = EventFilter{IgnoreDates: true, EndDateTo: &end}
	got = f.WithStartFrom(now)
	assert.False(t, got.IgnoreDates)
	assert.Nil(t, got.EndDateTo, "ignored bounds must stay ignored")
	assert.Equal(t, now, *got.StartDateFrom)
}

func toSQL(t *testing.T, f EventFilter) (string, []interface{}) {
	t.Helper()
	sql, args, err := Dialect.From(eventsTable).Prepared(true).Where(Relational(&f)...).ToSQL()
	require.NoError(t, err)
	return sql, args
}

func TestRelationalSubstringMatch(t *testing.T) {
	sql, args := toSQL(t, EventFilter{Name: "Hack%Night", Location: "Gates"})
	assert.Contains(t, sql, `strpos(lower("events"."name"), $1)`)
	assert.Contains(t, sql, `strpos(lower("events"."location"), $3)`)
	assert.Contains(t, args, "hack%night", "wildcards are matched literally")
	assert.Contains(t, args, "gates")
}

func TestRelationalDatesAndIgnoreDates(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	sql, args := toSQL(t, EventFilter{StartDateFrom: &from, EndDateTo: &to})
	assert.Contains(t, sql, `("events"."start_date" >= $1)`)
	assert.Contains(t, sql, `("events"."end_date" <= $2)`)
	assert.Len(t, args, 2)

	sql, args = toSQL(t, EventFilter{StartDateFrom: &from, IgnoreDates: true})
	assert.NotContains(t, sql, "start_date")
	assert.Empty(t, args)
}

func TestRelationalTagsAndCapacity(t *testing.T) {
	sql, args := toSQL(t, EventFilter{Tags: []string{"music", " music", "art"}, HasAvailableCapacity: true})
	assert.Contains(t, sql, `"events"."id" IN (SELECT "event_tags"."event_id" FROM "event_tags" WHERE ("event_tags"."tag" IN ($1, $2)))`)
	assert.Contains(t, sql, `"events"."capacity" IS NULL`)
	assert.Contains(t, sql, `"event_participations"."registration_status" IN`)
	assert.Equal(t, []interface{}{"music", "art", "REGISTERED", "PENDING"}, args)
}

func TestRelationalNativeOnly(t *testing.T) {
	sql, args := toSQL(t, EventFilter{CreatorID: "u1", Status: models.StatusActive, IsPublic: boolPtr(true)})
	assert.Contains(t, sql, `"events"."creator_id" = `)
	assert.Contains(t, sql, `"events"."status" = `)
	assert.Contains(t, sql, `"events"."is_public" IS TRUE`)
	assert.Contains(t, args, "u1")
	assert.Contains(t, args, "ACTIVE")
}

func TestRelationalOrder(t *testing.T) {
	sql, _, err := Dialect.From(eventsTable).Order(RelationalOrder(Order{Field: SortName, Direction: Desc})...).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `ORDER BY lower("events"."name") DESC, "events"."id" ASC`)

	sql, _, err = Dialect.From(eventsTable).Order(RelationalOrder(Order{})...).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `ORDER BY "events"."start_date" ASC, "events"."id" ASC`)
}

func TestDocument(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	q := Document(&EventFilter{
		Name:          "a.b(c)",
		Category:      "Music",
		Source:        "meetup",
		StartDateFrom: &from,
		Tags:          []string{"jazz"},
		CreatorID:     "ignored",
	})

	m := q.Map()
	assert.Equal(t, primitive.Regex{Pattern: `a\.b\(c\)`, Options: "i"}, m["name"])
	assert.Equal(t, "Music", m["category"])
	assert.Equal(t, "meetup", m["source"])
	assert.Equal(t, bson.D{{Key: "$gte", Value: from}}, m["startDate"])
	assert.Equal(t, bson.D{{Key: "$in", Value: []string{"jazz"}}}, m["tags"])
	assert.NotContains(t, m, "creatorId")
	assert.NotContains(t, m, "endDate")

	assert.Empty(t, Document(&EventFilter{StartDateFrom: &from, IgnoreDates: true}))
}

func TestDocumentSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "startDate", Value: 1}, {Key: "_id", Value: 1}}, DocumentSort(Order{}))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}},
		DocumentSort(Order{Field: SortCreatedAt, Direction: Desc}))

	c := DocumentCollation()
	assert.Equal(t, "en", c.Locale)
	assert.Equal(t, 2, c.Strength, "strength 2 ignores case")
}

func TestSortCombined(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	events := []models.UnifiedEvent{
		{ID: "b", Origin: models.OriginNative, Name: "beta", StartDate: t0.Add(2 * time.Hour)},
		{ID: "x", Origin: models.OriginExternal, Name: "Alpha", StartDate: t0},
		{ID: "a", Origin: models.OriginNative, Name: "gamma", StartDate: t0},
		{ID: "c", Origin: models.OriginNative, Name: "Delta", StartDate: t0.Add(time.Hour)},
	}

	SortCombined(events, DefaultOrder())
	assert.Equal(t, []string{"EXTERNAL:x", "NATIVE:a", "NATIVE:c", "NATIVE:b"}, keys(events))

	SortCombined(events, Order{Field: SortName, Direction: Asc})
	assert.Equal(t, []string{"EXTERNAL:x", "NATIVE:b", "NATIVE:c", "NATIVE:a"}, keys(events))

	SortCombined(events, Order{Field: SortStartDate, Direction: Desc})
	assert.Equal(t, "NATIVE:b", events[0].Key())
}

func TestMatch(t *testing.T) {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	ev := models.UnifiedEvent{
		ID: "e1", Origin: models.OriginExternal, Name: "Jazz Night", Category: "Music",
		Location: "Town Hall", StartDate: start, Tags: []string{"jazz"}, Source: "meetup",
	}

	assert.True(t, (&EventFilter{}).Match(&ev))
	assert.True(t, (&EventFilter{Name: "jazz", Tags: []string{"rock", "jazz"}}).Match(&ev))
	assert.False(t, (&EventFilter{Category: "Sports"}).Match(&ev))
	assert.False(t, (&EventFilter{CreatorID: "u1"}).Match(&ev))
	assert.True(t, (&EventFilter{HasAvailableCapacity: true}).Match(&ev))

	later := start.Add(time.Hour)
	assert.False(t, (&EventFilter{StartDateFrom: &later}).Match(&ev))
	assert.True(t, (&EventFilter{StartDateFrom: &later, IgnoreDates: true}).Match(&ev))

	capacity, rows := 2, 3
	native := models.UnifiedEvent{
		ID: "n1", Origin: models.OriginNative, Capacity: &capacity, ParticipantCount: &rows,
		Participations: []models.Participation{
			{UserID: "u1", RegistrationStatus: models.RegistrationRegistered},
			{UserID: "u2", RegistrationStatus: models.RegistrationWaitlisted},
			{UserID: "u3", RegistrationStatus: models.RegistrationCanceled},
		},
	}
	// Waitlisted and canceled rows count as participants but not as seats.
	assert.True(t, (&EventFilter{HasAvailableCapacity: true}).Match(&native))

	native.Participations[1].RegistrationStatus = models.RegistrationPending
	assert.False(t, (&EventFilter{HasAvailableCapacity: true}).Match(&native))
}

func keys(events []models.UnifiedEvent) []string {
	out := make([]string, len(events))
	for i := range events {
		out[i] = events[i].Key()
	}
	return out
}
