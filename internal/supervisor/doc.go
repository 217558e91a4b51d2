// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

/*
Package supervisor runs EventHub's long-lived services under a suture v4 tree.

# Tree

	RootSupervisor ("eventhub")
	├── DataSupervisor ("data-layer")
	│   └── CheckpointService (DuckDB WAL flush)
	├── MessagingSupervisor ("messaging-layer")
	│   └── LedgerReconcilerService (retry queue consumer)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer counts failures on its own, so a reconciler that cannot reach
NATS backs off without taking the HTTP server down with it.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Server))
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewCheckpointService(db, cfg.Database.CheckpointInterval))
	tree.AddMessagingService(services.NewLedgerReconcilerService(reconciler))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Run(ctx)

Supervisor events (service start, panic, restart, backoff) are logged
through sutureslog.

See the services subpackage for the wrappers.
*/
package supervisor
