// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/models"
)

const geocodeKeyPrefix = "geocode:"

// OpenStore opens the persistent tier selected by cfg.PersistentCache.
// It returns a nil Store for "none" or an empty value.
func OpenStore(ctx context.Context, cfg *config.GeocoderConfig) (Store, error) {
	switch cfg.PersistentCache {
	case "", "none":
		return nil, nil
	case "badger":
		opts := badger.DefaultOptions(cfg.BadgerPath)
		opts.Logger = nil
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger geocode cache: %w", err)
		}
		return NewBadgerStore(db), nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unknown persistent geocode cache %q", cfg.PersistentCache)
	}
}

// BadgerStore keeps geocode results in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open BadgerDB. Close closes db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Get(_ context.Context, key string) (models.Coordinates, bool, error) {
	var c models.Coordinates
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(geocodeKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &c)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Coordinates{}, false, nil
	}
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("badger get %s: %w", key, err)
	}
	return c, true, nil
}

func (s *BadgerStore) Set(_ context.Context, key string, c models.Coordinates, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal coordinates: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(geocodeKeyPrefix+key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// RedisStore shares geocode results between replicas through Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a Redis client. Close closes client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (models.Coordinates, bool, error) {
	data, err := s.client.Get(ctx, geocodeKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Coordinates{}, false, nil
	}
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var c models.Coordinates
	if err := json.Unmarshal(data, &c); err != nil {
		return models.Coordinates{}, false, fmt.Errorf("unmarshal coordinates: %w", err)
	}
	return c, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, c models.Coordinates, ttl time.Duration) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal coordinates: %w", err)
	}
	if err := s.client.Set(ctx, geocodeKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
