// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

/*
Package aggregate puts the native (relational) and external (document) event
stores behind one query surface.

Cross-origin listings fan out to both stores concurrently, normalize the
records into models.UnifiedEvent and merge them. A failing origin is logged
and counted and the other origin's events are still returned; only when every
attempted origin fails does a query fail, with ErrAllOriginsFailed.

Pagination across origins:

  - ListAllEvents splits the page between origins, native taking the ceiling
    half of skip and take and external the floor half.
  - ListEventsNear over-fetches skip+take from each origin, merges, sorts by
    start date and slices [skip, skip+take).
*/
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/docstore"
	"github.com/tomtom215/eventhub/internal/filter"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

var (
	// ErrAllOriginsFailed is returned when every origin a query attempted failed.
	ErrAllOriginsFailed = errors.New("all event origins failed")
	// ErrOriginUnavailable is returned by single-origin operations on an
	// origin that is not configured.
	ErrOriginUnavailable = errors.New("event origin not available")
)

// NativeStore is the relational store of platform events.
type NativeStore interface {
	GetEvent(ctx context.Context, id string) (*database.EventRecord, error)
	ListEvents(ctx context.Context, f *filter.EventFilter, o filter.Order, skip, take int) ([]database.EventRecord, error)
	CreateEvent(ctx context.Context, in *models.CreateEventInput) (*database.EventRecord, error)
	UpdateEvent(ctx context.Context, id string, patch *models.UpdateEventInput) (*database.EventRecord, error)
	DeleteEvent(ctx context.Context, id string) error
	CacheCoordinates(ctx context.Context, id string, c models.Coordinates) error
	InteractionFlags(ctx context.Context, userID string, origin models.Origin, ids []string) (map[string]database.Flags, error)
	ListLiked(ctx context.Context, userID string) ([]database.EventRecord, error)
	ListSaved(ctx context.Context, userID string) ([]database.EventRecord, error)
	ListParticipated(ctx context.Context, userID string) ([]database.EventRecord, error)
	ListCreated(ctx context.Context, userID string) ([]database.EventRecord, error)
}

// ExternalStore is the document store of ingested events.
type ExternalStore interface {
	FindByID(ctx context.Context, id string) (*docstore.Event, error)
	Find(ctx context.Context, f *filter.EventFilter, o filter.Order, skip, take int) ([]docstore.Event, error)
	FindNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]docstore.Event, bool, error)
	FindLikedBy(ctx context.Context, userID string) ([]docstore.Event, error)
	FindSavedBy(ctx context.Context, userID string) ([]docstore.Event, error)
}

// Geocoder resolves free-text locations.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (models.Coordinates, error)
}

// CreatorDirectory resolves creator profiles by user id.
type CreatorDirectory interface {
	Creators(ctx context.Context, ids []string) (map[string]models.Creator, error)
}

// Engine answers event queries across both origins.
type Engine struct {
	native    NativeStore
	external  ExternalStore
	geocoder  Geocoder
	directory CreatorDirectory

	defaultRadiusKm float64
	maxRadiusKm     float64
	candidateWindow int

	now func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithExternal enables the external origin.
func WithExternal(s ExternalStore) Option {
	return func(e *Engine) { e.external = s }
}

// WithGeocoder enables lazy geocoding of native events without coordinates.
func WithGeocoder(g Geocoder) Option {
	return func(e *Engine) { e.geocoder = g }
}

// WithDirectory resolves creator profiles on native events.
func WithDirectory(d CreatorDirectory) Option {
	return func(e *Engine) { e.directory = d }
}

// WithClock overrides the clock used for "upcoming" cut-offs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine over native. The external origin, geocoder and
// directory are optional.
func NewEngine(cfg *config.AggregationConfig, native NativeStore, opts ...Option) *Engine {
	e := &Engine{
		native:          native,
		defaultRadiusKm: 20,
		maxRadiusKm:     500,
		candidateWindow: 500,
		now:             func() time.Time { return time.Now().UTC() },
	}
	if cfg != nil {
		if cfg.DefaultRadiusKm > 0 {
			e.defaultRadiusKm = cfg.DefaultRadiusKm
		}
		if cfg.MaxRadiusKm > 0 {
			e.maxRadiusKm = cfg.MaxRadiusKm
		}
		if cfg.CandidateWindow > 0 {
			e.candidateWindow = cfg.CandidateWindow
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultRadiusKm is the radius used when a near-me query names none.
func (e *Engine) DefaultRadiusKm() float64 { return e.defaultRadiusKm }

// ListQuery is a filtered, ordered, paged listing for one user.
type ListQuery struct {
	Filter filter.EventFilter
	Order  filter.Order
	Skip   int
	Take   int
	UserID string
}

// originCall is one origin's share of a fan-out query.
type originCall struct {
	origin models.Origin
	run    func(ctx context.Context) ([]models.UnifiedEvent, error)
}

// fanOut runs calls concurrently and concatenates their results in call
// order. Failed origins are logged and skipped; if all of them fail the
// result is ErrAllOriginsFailed.
func (e *Engine) fanOut(ctx context.Context, mode string, calls []originCall) ([]models.UnifiedEvent, error) {
	if len(calls) == 0 {
		return []models.UnifiedEvent{}, nil
	}

	results := make([][]models.UnifiedEvent, len(calls))
	errs := make([]error, len(calls))

	var wg sync.WaitGroup
	wg.Add(len(calls))
	for i, call := range calls {
		go func(i int, call originCall) {
			defer wg.Done()
			start := time.Now()
			results[i], errs[i] = call.run(ctx)
			metrics.RecordOriginQuery(mode, string(call.origin), time.Since(start), errs[i])
		}(i, call)
	}
	wg.Wait()

	out := []models.UnifiedEvent{}
	var failed []error
	for i, call := range calls {
		if errs[i] != nil {
			logging.Ctx(ctx).Warn().Err(errs[i]).
				Str("mode", mode).
				Str("origin", string(call.origin)).
				Msg("Event origin failed, returning partial results")
			failed = append(failed, fmt.Errorf("%s: %w", call.origin, errs[i]))
			continue
		}
		out = append(out, results[i]...)
	}
	if len(failed) == len(calls) {
		return nil, fmt.Errorf("%w: %w", ErrAllOriginsFailed, errors.Join(failed...))
	}
	return out, nil
}

// ListAllEvents lists events of both origins. Origins the filter excludes are
// not queried; when both run, the page is split between them.
func (e *Engine) ListAllEvents(ctx context.Context, q ListQuery) ([]models.UnifiedEvent, error) {
	f := q.Filter
	order := q.Order.Normalize()
	wantNative := f.Wants(models.OriginNative)
	wantExternal := e.external != nil && f.Wants(models.OriginExternal)

	nativeSkip, nativeTake := q.Skip, q.Take
	externalSkip, externalTake := q.Skip, q.Take
	if wantNative && wantExternal {
		nativeSkip, externalSkip = splitCeil(q.Skip), q.Skip/2
		nativeTake, externalTake = splitCeil(q.Take), q.Take/2
	}

	var calls []originCall
	if wantNative {
		calls = append(calls, originCall{models.OriginNative, func(ctx context.Context) ([]models.UnifiedEvent, error) {
			recs, err := e.native.ListEvents(ctx, &f, order, nativeSkip, nativeTake)
			if err != nil {
				return nil, err
			}
			return e.resolveNative(ctx, recs, q.UserID)
		}})
	}
	if wantExternal {
		calls = append(calls, originCall{models.OriginExternal, func(ctx context.Context) ([]models.UnifiedEvent, error) {
			docs, err := e.external.Find(ctx, &f, order, externalSkip, externalTake)
			if err != nil {
				return nil, err
			}
			return e.resolveExternal(docs, q.UserID), nil
		}})
	}

	events, err := e.fanOut(ctx, "all", calls)
	if err != nil {
		return nil, err
	}
	filter.SortCombined(events, order)
	return events, nil
}

func splitCeil(n int) int {
	return n - n/2
}

// GetEvent returns one native event as seen by userID.
func (e *Engine) GetEvent(ctx context.Context, id, userID string) (models.UnifiedEvent, error) {
	rec, err := e.native.GetEvent(ctx, id)
	if err != nil {
		return models.UnifiedEvent{}, err
	}
	return e.resolveOneNative(ctx, rec, userID)
}

// GetExternalEvent returns one external event as seen by userID.
func (e *Engine) GetExternalEvent(ctx context.Context, id, userID string) (models.UnifiedEvent, error) {
	if e.external == nil {
		return models.UnifiedEvent{}, ErrOriginUnavailable
	}
	doc, err := e.external.FindByID(ctx, id)
	if err != nil {
		return models.UnifiedEvent{}, err
	}
	return resolveOneExternal(doc, userID)
}

// ListEvents lists native events only.
func (e *Engine) ListEvents(ctx context.Context, q ListQuery) ([]models.UnifiedEvent, error) {
	start := time.Now()
	recs, err := e.native.ListEvents(ctx, &q.Filter, q.Order.Normalize(), q.Skip, q.Take)
	metrics.RecordOriginQuery("native", string(models.OriginNative), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return e.resolveNative(ctx, recs, q.UserID)
}

// ListExternalEvents lists external events only.
func (e *Engine) ListExternalEvents(ctx context.Context, q ListQuery) ([]models.UnifiedEvent, error) {
	if e.external == nil {
		return nil, ErrOriginUnavailable
	}
	start := time.Now()
	docs, err := e.external.Find(ctx, &q.Filter, q.Order.Normalize(), q.Skip, q.Take)
	metrics.RecordOriginQuery("external", string(models.OriginExternal), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return e.resolveExternal(docs, q.UserID), nil
}

// CreateEvent validates in and stores a new native event. The date order is
// not checked.
func (e *Engine) CreateEvent(ctx context.Context, in *models.CreateEventInput) (models.UnifiedEvent, error) {
	if err := in.Check(); err != nil {
		return models.UnifiedEvent{}, err
	}
	rec, err := e.native.CreateEvent(ctx, in)
	if err != nil {
		return models.UnifiedEvent{}, err
	}
	return e.resolveOneNative(ctx, rec, in.CreatorID)
}

// UpdateEvent applies a partial update to a native event.
func (e *Engine) UpdateEvent(ctx context.Context, id string, patch *models.UpdateEventInput, userID string) (models.UnifiedEvent, error) {
	if err := patch.Check(); err != nil {
		return models.UnifiedEvent{}, err
	}
	rec, err := e.native.UpdateEvent(ctx, id, patch)
	if err != nil {
		return models.UnifiedEvent{}, err
	}
	return e.resolveOneNative(ctx, rec, userID)
}

// DeleteEvent removes a native event and everything attached to it.
func (e *Engine) DeleteEvent(ctx context.Context, id string) error {
	return e.native.DeleteEvent(ctx, id)
}
