// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

/*
Package docstore is the MongoDB adapter for externally ingested events.

Documents live in a single collection (externalEvents by default) with a
2dsphere index on location. Interactions are stored on the document itself as
the likedBy and savedBy user sets, so counts are the set sizes and the
per-user flags are membership tests.

Ingestion is owned elsewhere; this package reads documents and mutates only
their interaction sets. Insert exists for tests and tooling.
*/
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/filter"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

// ErrEventNotFound is returned when no external event has the given id.
var ErrEventNotFound = errors.New("external event not found")

// Store reads and updates external event documents.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to MongoDB and verifies the connection.
func Open(ctx context.Context, cfg *config.MongoConfig) (*Store, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := New(client, cfg.Database, cfg.Collection)
	if cfg.EnsureIndexes {
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}

	logging.Info().
		Str("database", cfg.Database).
		Str("collection", cfg.Collection).
		Msg("Connected to external event store")
	return s, nil
}

// New wraps an existing client.
func New(client *mongo.Client, database, collection string) *Store {
	if collection == "" {
		collection = "externalEvents"
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// EnsureIndexes creates the geospatial, lookup and uniqueness indexes.
// Creating an index that already exists is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	defer metrics.RecordDocstoreQuery("ensure_indexes", time.Now())

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "startDate", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "likedBy", Value: 1}}},
		{Keys: bson.D{{Key: "savedBy", Value: 1}}},
		{
			Keys:    bson.D{{Key: "externalId", Value: 1}, {Key: "source", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create external event indexes: %w", err)
	}
	return nil
}

// Insert stores doc, assigning an id and timestamps when they are unset.
func (s *Store) Insert(ctx context.Context, doc *Event) error {
	defer metrics.RecordDocstoreQuery("insert", time.Now())

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert external event: %w", err)
	}
	return nil
}

// FindByID returns one document, or ErrEventNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*Event, error) {
	defer metrics.RecordDocstoreQuery("find_by_id", time.Now())

	var doc Event
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("external event %s: %w", id, ErrEventNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find external event %s: %w", id, err)
	}
	return &doc, nil
}

// Find lists documents matching f, ordered by o and paged with skip/take.
// take <= 0 returns an empty page.
func (s *Store) Find(ctx context.Context, f *filter.EventFilter, o filter.Order, skip, take int) ([]Event, error) {
	if take <= 0 {
		return []Event{}, nil
	}
	if skip < 0 {
		skip = 0
	}
	defer metrics.RecordDocstoreQuery("find", time.Now())

	opts := options.Find().
		SetSort(filter.DocumentSort(o)).
		SetCollation(filter.DocumentCollation()).
		SetSkip(int64(skip)).
		SetLimit(int64(take))
	return s.find(ctx, filter.Document(f), opts)
}

// FindNear returns up to limit documents within radiusKm of (lat, lon),
// nearest first. When the geospatial query fails, for instance because the
// 2dsphere index is missing, it falls back to the most recent documents and
// reports degraded. Callers must then apply the radius themselves.
func (s *Store) FindNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]Event, bool, error) {
	if limit <= 0 {
		return []Event{}, false, nil
	}
	start := time.Now()

	q := bson.D{{Key: "location", Value: bson.D{{Key: "$near", Value: bson.D{
		{Key: "$geometry", Value: bson.D{
			{Key: "type", Value: "Point"},
			{Key: "coordinates", Value: bson.A{lon, lat}},
		}},
		{Key: "$maxDistance", Value: radiusKm * 1000},
	}}}}}

	docs, err := s.find(ctx, q, options.Find().SetLimit(int64(limit)))
	metrics.RecordDocstoreQuery("find_near", start)
	if err == nil {
		return docs, false, nil
	}
	if ctx.Err() != nil {
		return nil, false, err
	}

	logging.Ctx(ctx).Warn().Err(err).
		Float64("lat", lat).Float64("lon", lon).Float64("radius_km", radiusKm).
		Msg("Geospatial query failed, falling back to recent external events")
	metrics.NearMeDegraded.Inc()

	docs, err = s.Recent(ctx, limit)
	if err != nil {
		return nil, true, err
	}
	return docs, true, nil
}

// Recent returns up to limit documents, latest start first, unfiltered.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		return []Event{}, nil
	}
	defer metrics.RecordDocstoreQuery("recent", time.Now())

	opts := options.Find().
		SetSort(bson.D{{Key: "startDate", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return s.find(ctx, bson.D{}, opts)
}

// FindLikedBy returns the documents whose likedBy set contains userID.
func (s *Store) FindLikedBy(ctx context.Context, userID string) ([]Event, error) {
	defer metrics.RecordDocstoreQuery("find_liked_by", time.Now())
	return s.find(ctx, bson.D{{Key: "likedBy", Value: userID}}, byStartDate())
}

// FindSavedBy returns the documents whose savedBy set contains userID.
func (s *Store) FindSavedBy(ctx context.Context, userID string) ([]Event, error) {
	defer metrics.RecordDocstoreQuery("find_saved_by", time.Now())
	return s.find(ctx, bson.D{{Key: "savedBy", Value: userID}}, byStartDate())
}

func byStartDate() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}, {Key: "_id", Value: 1}})
}

// AddLike adds userID to likedBy and returns the updated document.
func (s *Store) AddLike(ctx context.Context, id, userID string) (*Event, error) {
	return s.updateSet(ctx, "add_like", id, "$addToSet", "likedBy", userID)
}

// RemoveLike removes userID from likedBy and returns the updated document.
func (s *Store) RemoveLike(ctx context.Context, id, userID string) (*Event, error) {
	return s.updateSet(ctx, "remove_like", id, "$pull", "likedBy", userID)
}

// AddSave adds userID to savedBy and returns the updated document.
func (s *Store) AddSave(ctx context.Context, id, userID string) (*Event, error) {
	return s.updateSet(ctx, "add_save", id, "$addToSet", "savedBy", userID)
}

// RemoveSave removes userID from savedBy and returns the updated document.
func (s *Store) RemoveSave(ctx context.Context, id, userID string) (*Event, error) {
	return s.updateSet(ctx, "remove_save", id, "$pull", "savedBy", userID)
}

// HasInteraction reports whether userID is in the likedBy or savedBy set of
// document id. A missing document has no interactions.
func (s *Store) HasInteraction(ctx context.Context, kind models.InteractionKind, id, userID string) (bool, error) {
	field, err := interactionField(kind)
	if err != nil {
		return false, err
	}
	defer metrics.RecordDocstoreQuery("has_interaction", time.Now())

	n, err := s.coll.CountDocuments(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: field, Value: userID}},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check %s on external event %s: %w", field, id, err)
	}
	return n > 0, nil
}

func interactionField(kind models.InteractionKind) (string, error) {
	switch kind {
	case models.InteractionLike:
		return "likedBy", nil
	case models.InteractionSave:
		return "savedBy", nil
	}
	return "", fmt.Errorf("unknown interaction kind %q", kind)
}

// updateSet applies $addToSet or $pull atomically. Both operators are
// idempotent, so repeating a like or unlike leaves the set unchanged.
func (s *Store) updateSet(ctx context.Context, op, id, operator, field, userID string) (*Event, error) {
	defer metrics.RecordDocstoreQuery(op, time.Now())

	update := bson.D{{Key: operator, Value: bson.D{{Key: field, Value: userID}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc Event
	err := s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("external event %s: %w", id, ErrEventNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s on external event %s: %w", op, id, err)
	}
	return &doc, nil
}

// find runs a query and decodes the cursor document by document so that one
// malformed document is skipped instead of failing the whole result.
func (s *Store) find(ctx context.Context, q interface{}, opts *options.FindOptions) ([]Event, error) {
	cur, err := s.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("query external events: %w", err)
	}
	defer func() {
		if cerr := cur.Close(ctx); cerr != nil {
			logging.Ctx(ctx).Debug().Err(cerr).Msg("Failed to close cursor")
		}
	}()

	docs := []Event{}
	for cur.Next(ctx) {
		var doc Event
		if err := cur.Decode(&doc); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Skipping undecodable external event")
			metrics.NormalizationDropped.WithLabelValues("EXTERNAL").Inc()
			continue
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("read external events: %w", err)
	}
	return docs, nil
}
