// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

/*
Package reconcile retries secondary ledger writes that failed after the
primary write of an interaction succeeded.

A like or save on an external event is stored twice: the document store's
likedBy/savedBy sets are authoritative and the relational ledger keeps an
EXTERNAL projection row. When the projection write fails the caller still gets
a success; the write is published as a LedgerCommand instead.

Flow:

	Queue.Enqueue -> ledger.retry -> Reconciler -> LedgerWriter.RecordInteraction
	                                     |
	                     retries exhausted v
	                           ledger.retry.poison -> logged and counted

The transport is a watermill gochannel for single-process deployments or NATS
JetStream when ledger.backend is "nats". Applying a command is idempotent, so
redelivery is harmless.
*/
package reconcile
