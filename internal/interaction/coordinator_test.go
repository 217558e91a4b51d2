// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package interaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/eventhub/internal/aggregate"
	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/docstore"
	"github.com/tomtom215/eventhub/internal/models"
	"github.com/tomtom215/eventhub/internal/reconcile"
)

type ledgerKey struct {
	kind    models.InteractionKind
	origin  models.Origin
	eventID string
	userID  string
}

// fakeNative keeps ledger rows in a map. Counts are derived from the NATIVE
// rows, as the relational store does.
type fakeNative struct {
	mu        sync.Mutex
	ledger    map[ledgerKey]bool
	recordErr error
	writeErr  error

	participations map[string]*models.Participation
	createErr      error
	upserts        []*models.ParticipationUpdate
}

func newFakeNative() *fakeNative {
	return &fakeNative{
		ledger:         map[ledgerKey]bool{},
		participations: map[string]*models.Participation{},
	}
}

func (f *fakeNative) set(kind models.InteractionKind, eventID, userID string, present bool) (database.InteractionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return database.InteractionResult{}, f.writeErr
	}
	k := ledgerKey{kind, models.OriginNative, eventID, userID}
	changed := f.ledger[k] != present
	if present {
		f.ledger[k] = true
	} else {
		delete(f.ledger, k)
	}
	n := 0
	for lk := range f.ledger {
		if lk.kind == kind && lk.origin == models.OriginNative && lk.eventID == eventID {
			n++
		}
	}
	return database.InteractionResult{Changed: changed, Count: n}, nil
}

func (f *fakeNative) Like(_ context.Context, e, u string) (database.InteractionResult, error) {
	return f.set(models.InteractionLike, e, u, true)
}

func (f *fakeNative) Unlike(_ context.Context, e, u string) (database.InteractionResult, error) {
	return f.set(models.InteractionLike, e, u, false)
}

func (f *fakeNative) Save(_ context.Context, e, u string) (database.InteractionResult, error) {
	return f.set(models.InteractionSave, e, u, true)
}

func (f *fakeNative) Unsave(_ context.Context, e, u string) (database.InteractionResult, error) {
	return f.set(models.InteractionSave, e, u, false)
}

func (f *fakeNative) RecordInteraction(_ context.Context, kind models.InteractionKind, origin models.Origin, e, u string, present bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	k := ledgerKey{kind, origin, e, u}
	if present {
		f.ledger[k] = true
	} else {
		delete(f.ledger, k)
	}
	return nil
}

func (f *fakeNative) has(k ledgerKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ledger[k]
}

func (f *fakeNative) RegisterForEvent(_ context.Context, e, u string, rsvp models.RSVPStatus) (*models.RegistrationResult, error) {
	if e == "missing" {
		return nil, database.ErrEventNotFound
	}
	p := &models.Participation{ID: "p-" + u, EventID: e, UserID: u, RSVPStatus: rsvp, RegistrationStatus: models.RegistrationRegistered}
	f.participations[u] = p
	return &models.RegistrationResult{Participation: *p, Created: true}, nil
}

func (f *fakeNative) CreateParticipation(_ context.Context, e, u string, rsvp models.RSVPStatus, reg models.RegistrationStatus) (*models.RegistrationResult, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.participations[u]; ok {
		return nil, database.ErrDuplicateParticipation
	}
	if reg == "" {
		reg = models.RegistrationWaitlisted
	}
	p := &models.Participation{ID: "p-" + u, EventID: e, UserID: u, RSVPStatus: rsvp, RegistrationStatus: reg}
	f.participations[u] = p
	return &models.RegistrationResult{Participation: *p, Created: true, Waitlisted: reg == models.RegistrationWaitlisted}, nil
}

func (f *fakeNative) UpdateParticipation(_ context.Context, _, u string, upd *models.ParticipationUpdate) (*models.Participation, error) {
	p, ok := f.participations[u]
	if !ok {
		return nil, database.ErrParticipationNotFound
	}
	if upd.RSVPStatus != nil {
		p.RSVPStatus = *upd.RSVPStatus
	}
	if upd.RegistrationStatus != nil {
		p.RegistrationStatus = *upd.RegistrationStatus
	}
	out := *p
	return &out, nil
}

func (f *fakeNative) UpsertParticipation(_ context.Context, e, u string, upd *models.ParticipationUpdate) (*models.RegistrationResult, error) {
	f.upserts = append(f.upserts, upd)
	return &models.RegistrationResult{Participation: models.Participation{EventID: e, UserID: u, RSVPStatus: models.RSVPMaybe}}, nil
}

type fakeExternal struct {
	mu   sync.Mutex
	docs map[string]*docstore.Event
}

func (f *fakeExternal) update(id, userID string, liked bool, add bool) (*docstore.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, docstore.ErrEventNotFound
	}
	set := &doc.SavedBy
	if liked {
		set = &doc.LikedBy
	}
	out := (*set)[:0]
	for _, u := range *set {
		if u != userID {
			out = append(out, u)
		}
	}
	if add {
		out = append(out, userID)
	}
	*set = out
	cp := *doc
	cp.LikedBy = append([]string(nil), doc.LikedBy...)
	cp.SavedBy = append([]string(nil), doc.SavedBy...)
	return &cp, nil
}

func (f *fakeExternal) AddLike(_ context.Context, id, u string) (*docstore.Event, error) {
	return f.update(id, u, true, true)
}

func (f *fakeExternal) RemoveLike(_ context.Context, id, u string) (*docstore.Event, error) {
	return f.update(id, u, true, false)
}

func (f *fakeExternal) AddSave(_ context.Context, id, u string) (*docstore.Event, error) {
	return f.update(id, u, false, true)
}

func (f *fakeExternal) RemoveSave(_ context.Context, id, u string) (*docstore.Event, error) {
	return f.update(id, u, false, false)
}

type fakeReader struct {
	native *fakeNative
	err    error
}

func (r *fakeReader) GetEvent(_ context.Context, id, userID string) (models.UnifiedEvent, error) {
	if r.err != nil {
		return models.UnifiedEvent{}, r.err
	}
	ev := models.UnifiedEvent{ID: id, Origin: models.OriginNative, Tags: []string{}}
	for k := range r.native.ledger {
		if k.eventID != id || k.origin != models.OriginNative {
			continue
		}
		switch k.kind {
		case models.InteractionLike:
			ev.LikeCount++
			ev.IsLikedByUser = ev.IsLikedByUser || k.userID == userID
		case models.InteractionSave:
			ev.SaveCount++
			ev.IsSavedByUser = ev.IsSavedByUser || k.userID == userID
		}
	}
	return ev, nil
}

type fakeQueue struct {
	mu   sync.Mutex
	cmds []reconcile.LedgerCommand
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, cmd reconcile.LedgerCommand) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.cmds = append(q.cmds, cmd)
	return nil
}

func externalDoc(id string) *docstore.Event {
	start := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	return &docstore.Event{
		ID:        id,
		Name:      "Harbor Concert",
		Source:    "eventbrite",
		Category:  "music",
		Location:  docstore.PointFrom(models.Coordinates{Latitude: 40.7, Longitude: -74.0}, "Pier 17"),
		StartDate: start,
		EndDate:   start.Add(2 * time.Hour),
	}
}

func newTestCoordinator(opts ...Option) (*Coordinator, *fakeNative, *fakeExternal, *fakeQueue) {
	native := newFakeNative()
	external := &fakeExternal{docs: map[string]*docstore.Event{"ext-1": externalDoc("ext-1")}}
	queue := &fakeQueue{}
	opts = append([]Option{WithExternal(external), WithRetryQueue(queue)}, opts...)
	c := NewCoordinator(native, &fakeReader{native: native}, opts...)
	c.now = func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) }
	return c, native, external, queue
}

func TestNativeLikeIsIdempotent(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	ev, ov, err := c.Like(ctx, models.OriginNative, "evt-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, ev.LikeCount)
	assert.True(t, ev.IsLikedByUser)
	require.NotNil(t, ov.IsLikedByUser)
	assert.True(t, *ov.IsLikedByUser)
	assert.Nil(t, ov.IsSavedByUser)

	ev, _, err = c.Like(ctx, models.OriginNative, "evt-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, ev.LikeCount)

	ev, ov, err = c.Unlike(ctx, models.OriginNative, "evt-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, ev.LikeCount)
	require.NotNil(t, ov.IsLikedByUser)
	assert.False(t, *ov.IsLikedByUser)
}

func TestNativeReloadFailureReturnsMinimalEvent(t *testing.T) {
	native := newFakeNative()
	c := NewCoordinator(native, &fakeReader{native: native, err: errors.New("reload failed")})

	ev, ov, err := c.Save(context.Background(), models.OriginNative, "evt-9", "bob")
	require.NoError(t, err)
	assert.Equal(t, "evt-9", ev.ID)
	assert.Equal(t, models.OriginNative, ev.Origin)
	assert.Equal(t, 1, ev.SaveCount)
	assert.NotNil(t, ev.Tags)

	models.ApplyOverrides(&ev, ov)
	assert.True(t, ev.IsSavedByUser)
}

func TestNativeWriteErrorPropagates(t *testing.T) {
	c, native, _, _ := newTestCoordinator()
	native.writeErr = database.ErrEventNotFound

	_, _, err := c.Like(context.Background(), models.OriginNative, "nope", "alice")
	assert.ErrorIs(t, err, database.ErrEventNotFound)
}

func TestExternalLikeProjectsLedger(t *testing.T) {
	c, native, _, queue := newTestCoordinator()
	ctx := context.Background()

	ev, ov, err := c.Like(ctx, models.OriginExternal, "ext-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.OriginExternal, ev.Origin)
	assert.Equal(t, 1, ev.LikeCount)
	assert.True(t, ev.IsLikedByUser)
	assert.Equal(t, models.Coordinates{Latitude: 40.7, Longitude: -74.0}, ev.Coordinates)
	require.NotNil(t, ov.IsLikedByUser)
	assert.True(t, native.has(ledgerKey{models.InteractionLike, models.OriginExternal, "ext-1", "alice"}))
	assert.Empty(t, queue.cmds)

	// A second like from the same user leaves the set unchanged.
	ev, _, err = c.Like(ctx, models.OriginExternal, "ext-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, ev.LikeCount)

	ev, _, err = c.Unlike(ctx, models.OriginExternal, "ext-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, ev.LikeCount)
	assert.False(t, native.has(ledgerKey{models.InteractionLike, models.OriginExternal, "ext-1", "alice"}))
}

func TestExternalLedgerFailureIsQueued(t *testing.T) {
	c, native, _, queue := newTestCoordinator()
	native.recordErr = errors.New("duckdb busy")

	ev, ov, err := c.Save(context.Background(), models.OriginExternal, "ext-1", "carol")
	require.NoError(t, err)
	assert.Equal(t, 1, ev.SaveCount)
	require.NotNil(t, ov.IsSavedByUser)
	assert.True(t, *ov.IsSavedByUser)

	require.Len(t, queue.cmds, 1)
	cmd := queue.cmds[0]
	assert.Equal(t, models.InteractionSave, cmd.Kind)
	assert.Equal(t, models.OriginExternal, cmd.Origin)
	assert.Equal(t, "ext-1", cmd.EventID)
	assert.Equal(t, "carol", cmd.UserID)
	assert.True(t, cmd.Present)
	assert.Equal(t, "duckdb busy", cmd.Reason)
	assert.Equal(t, time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC), cmd.FailedAt)
}

func TestExternalQueueFailureIsNotSurfaced(t *testing.T) {
	c, native, _, queue := newTestCoordinator()
	native.recordErr = errors.New("duckdb busy")
	queue.err = errors.New("queue closed")

	_, _, err := c.Like(context.Background(), models.OriginExternal, "ext-1", "dave")
	assert.NoError(t, err)
}

func TestExternalNotFound(t *testing.T) {
	c, native, _, _ := newTestCoordinator()

	_, _, err := c.Like(context.Background(), models.OriginExternal, "ext-404", "alice")
	assert.ErrorIs(t, err, docstore.ErrEventNotFound)
	assert.Empty(t, native.ledger)
}

func TestExternalWithoutDocumentStore(t *testing.T) {
	native := newFakeNative()
	c := NewCoordinator(native, &fakeReader{native: native})

	_, _, err := c.Like(context.Background(), models.OriginExternal, "ext-1", "alice")
	assert.ErrorIs(t, err, aggregate.ErrOriginUnavailable)
}

func TestInteractionValidation(t *testing.T) {
	c, _, _, _ := newTestCoordinator()

	tests := []struct {
		name   string
		origin models.Origin
		user   string
		field  string
	}{
		{"unknown origin", "OTHER", "alice", "origin"},
		{"anonymous user", models.OriginNative, "", "user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Like(context.Background(), tt.origin, "evt-1", tt.user)
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestRegisterDefaultsToGoing(t *testing.T) {
	c, _, _, _ := newTestCoordinator()

	res, err := c.Register(context.Background(), "evt-1", "alice", "")
	require.NoError(t, err)
	assert.Equal(t, models.RSVPGoing, res.Participation.RSVPStatus)

	_, err = c.Register(context.Background(), "missing", "alice", models.RSVPMaybe)
	assert.ErrorIs(t, err, database.ErrEventNotFound)

	_, err = c.Register(context.Background(), "evt-1", "alice", "SOMETIMES")
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSmartRegisterCreatesThenUpdates(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	res, err := c.SmartRegister(ctx, "evt-1", "alice", models.RSVPGoing, "")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Waitlisted)

	res, err = c.SmartRegister(ctx, "evt-1", "alice", models.RSVPMaybe, models.RegistrationRegistered)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, models.RSVPMaybe, res.Participation.RSVPStatus)
	assert.Equal(t, models.RegistrationRegistered, res.Participation.RegistrationStatus)

	// Without a desired registration status the stored one is kept.
	res, err = c.SmartRegister(ctx, "evt-1", "alice", models.RSVPNotGoing, "")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRegistered, res.Participation.RegistrationStatus)
}

func TestSmartRegisterPropagatesOtherErrors(t *testing.T) {
	c, native, _, _ := newTestCoordinator()
	native.createErr = database.ErrEventNotFound

	_, err := c.SmartRegister(context.Background(), "evt-1", "alice", "", "")
	assert.ErrorIs(t, err, database.ErrEventNotFound)
}

func TestUpdateParticipationUpserts(t *testing.T) {
	c, native, _, _ := newTestCoordinator()

	maybe := models.RSVPMaybe
	res, err := c.UpdateParticipation(context.Background(), "evt-1", "alice", &models.ParticipationUpdate{RSVPStatus: &maybe})
	require.NoError(t, err)
	assert.Equal(t, models.RSVPMaybe, res.Participation.RSVPStatus)
	require.Len(t, native.upserts, 1)

	bad := models.RegistrationStatus("MAYBE")
	_, err = c.UpdateParticipation(context.Background(), "evt-1", "alice", &models.ParticipationUpdate{RegistrationStatus: &bad})
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Len(t, native.upserts, 1)
}

func TestCoordinatorWithDuckDB(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	engine := aggregate.NewEngine(&config.AggregationConfig{}, db, aggregate.WithDirectory(db))
	c := NewCoordinator(db, engine)
	ctx := context.Background()

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	created, err := engine.CreateEvent(ctx, &models.CreateEventInput{
		Name:        "Robotics Demo",
		Category:    "tech",
		Location:    "Lab 3",
		Coordinates: &models.Coordinates{Latitude: 25.3, Longitude: 51.4},
		StartDate:   start,
		EndDate:     start.Add(time.Hour),
		CreatorID:   "creator-1",
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ev, _, err := c.Like(ctx, models.OriginNative, created.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, ev.LikeCount)
		assert.True(t, ev.IsLikedByUser)
	}

	ev, _, err := c.Save(ctx, models.OriginNative, created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, ev.SaveCount)
	ev, _, err = c.Unsave(ctx, models.OriginNative, created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, ev.SaveCount)
	assert.False(t, ev.IsSavedByUser)
	assert.Equal(t, 1, ev.LikeCount)

	_, _, err = c.Like(ctx, models.OriginNative, "no-such-event", "alice")
	assert.ErrorIs(t, err, database.ErrEventNotFound)
}
