// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

/*
Package services provides suture.Service wrappers for EventHub components.

Each wrapper translates a component's lifecycle (ListenAndServe, Run/Close,
a periodic task) into suture's context-aware Serve method and identifies
itself through fmt.Stringer so supervisor events name the service.

# Available Services

HTTP Server (HTTPServerService):
  - Runs the API server and drains connections on shutdown
  - http.ErrServerClosed is treated as a clean stop

Ledger Reconciler (LedgerReconcilerService):
  - Runs the retry-queue consumer that replays failed ledger writes
  - Closes the router on shutdown so in-flight commands finish

Checkpoint (CheckpointService):
  - Flushes the DuckDB WAL on a fixed interval
  - A failed checkpoint is logged; the next tick tries again

# Error Semantics

A service returning ctx.Err() after cancellation stopped cleanly. Any other
error makes suture restart the service with backoff.
*/
package services
