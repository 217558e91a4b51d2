// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/docstore"
	"github.com/tomtom215/eventhub/internal/geo"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/reconcile"
)

// initGeocoder builds the geocoder and its persistent cache tier. A disabled
// geocoder is still returned; it answers every lookup with an error.
func initGeocoder(ctx context.Context, cfg *config.GeocoderConfig) (*geo.Geocoder, error) {
	store, err := geo.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}

	logging.Info().
		Bool("enabled", cfg.Enabled).
		Str("persistent_cache", cfg.PersistentCache).
		Float64("requests_per_second", cfg.RequestsPerSecond).
		Msg("Geocoder initialized")
	return geo.NewGeocoder(cfg, store), nil
}

// initExternal connects the document store, or returns nil when the
// external origin is disabled.
func initExternal(ctx context.Context, cfg *config.MongoConfig) (*docstore.Store, error) {
	if !cfg.Enabled {
		logging.Info().Msg("External event store disabled (MONGO_ENABLED=false)")
		return nil, nil
	}
	store, err := docstore.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize external event store: %w", err)
	}
	return store, nil
}

type ledgerComponents struct {
	transport  *reconcile.Transport
	queue      *reconcile.Queue
	reconciler *reconcile.Reconciler
}

// initLedger builds the retry queue for failed secondary-ledger writes and
// the reconciler that replays them into db. external may be nil.
func initLedger(cfg *config.Config, db *database.DB, external *docstore.Store) (*ledgerComponents, error) {
	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger())

	transport, err := reconcile.NewTransport(&cfg.Ledger, &cfg.NATS, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create ledger transport: %w", err)
	}

	var opts []reconcile.Option
	if external != nil {
		opts = append(opts, reconcile.WithMembership(external))
	}
	reconciler, err := reconcile.NewReconciler(&cfg.Ledger, transport, db, wmLogger, opts...)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("create ledger reconciler: %w", err)
	}

	logging.Info().
		Str("backend", transport.Backend()).
		Str("topic", cfg.Ledger.Topic).
		Int("max_retries", cfg.Ledger.MaxRetries).
		Msg("Ledger retry queue initialized")

	return &ledgerComponents{
		transport:  transport,
		queue:      reconcile.NewQueue(transport.Publisher, cfg.Ledger.Topic),
		reconciler: reconciler,
	}, nil
}
