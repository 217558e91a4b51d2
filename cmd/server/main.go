// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package main is the entry point for the EventHub server.
//
// EventHub merges campus events created on the platform (DuckDB) with events
// ingested from outside feeds (MongoDB) behind one REST API, with
// likes/saves, registrations and "events near me" search.
//
// # Startup Order
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging (zerolog)
//  3. Geocoder and its persistent cache (badger or redis, optional)
//  4. DuckDB native store
//  5. MongoDB external store (MONGO_ENABLED, optional)
//  6. Aggregation engine and interaction coordinator
//  7. Ledger retry queue (watermill over gochannel or NATS JetStream)
//  8. HTTP API and the supervisor tree
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree: the HTTP server drains,
// the reconciler finishes in-flight commands, then the stores are closed.
//
// # Example Usage
//
//	export DUCKDB_PATH=./data/eventhub.duckdb
//	export MONGO_URI=mongodb://localhost:27017
//	export GEOCODER_ENABLED=true
//	./eventhub
//
// Without the external origin:
//
//	export MONGO_ENABLED=false
//	./eventhub
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/eventhub/internal/aggregate"
	"github.com/tomtom215/eventhub/internal/api"
	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/database"
	"github.com/tomtom215/eventhub/internal/interaction"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/supervisor"
	"github.com/tomtom215/eventhub/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("EventHub stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires the components and blocks until a shutdown signal arrives.
// Deferred closes run in reverse order of construction.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("mongo_enabled", cfg.Mongo.Enabled).
		Str("ledger_backend", cfg.Ledger.Backend).
		Msg("Starting EventHub")

	geocoder, err := initGeocoder(ctx, &cfg.Geocoder)
	if err != nil {
		return err
	}
	defer closeWith("geocoder", geocoder.Close)

	db, err := database.New(&cfg.Database, geocoder)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer closeWith("database", db.Close)
	logging.Info().Msg("Database initialized successfully")

	checks := map[string]api.Pinger{"duckdb": db}
	engineOpts := []aggregate.Option{
		aggregate.WithGeocoder(geocoder),
		aggregate.WithDirectory(db),
	}
	var coordOpts []interaction.Option

	external, err := initExternal(ctx, &cfg.Mongo)
	if err != nil {
		return err
	}
	if external != nil {
		defer closeWith("mongodb", func() error {
			cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return external.Close(cctx)
		})
		checks["mongodb"] = external
		engineOpts = append(engineOpts, aggregate.WithExternal(external))
		coordOpts = append(coordOpts, interaction.WithExternal(external))
	}

	engine := aggregate.NewEngine(&cfg.Aggregation, db, engineOpts...)

	ledger, err := initLedger(cfg, db, external)
	if err != nil {
		return err
	}
	defer closeWith("ledger transport", ledger.transport.Close)
	coordOpts = append(coordOpts, interaction.WithRetryQueue(ledger.queue))

	coordinator := interaction.NewCoordinator(db, engine, coordOpts...)

	handler := api.NewHandler(engine, coordinator, &cfg.API, checks)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Server))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	if cfg.Database.CheckpointInterval > 0 {
		tree.AddDataService(services.NewCheckpointService(db, cfg.Database.CheckpointInterval))
	}
	tree.AddMessagingService(services.NewLedgerReconcilerService(ledger.reconciler))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	return tree.Run(ctx)
}

func closeWith(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Error during shutdown")
	}
}
