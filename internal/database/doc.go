// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package database is the relational store of native events, backed by DuckDB.
//
// # Overview
//
// The package owns the native event catalog and everything hanging off it:
// tags, participations, the like/save interaction ledger and the users
// directory projection used to resolve event creators.
//
// Files:
//   - database.go: connection lifecycle, pool settings and transactions
//   - schema.go: table and index creation
//   - events.go: event CRUD, listings and the coordinate cache
//   - participations.go: registration, capacity and waitlisting
//   - interactions.go: like/save ledger with derived counters
//   - users.go: creator directory lookups
//
// # Queries
//
// Dynamic queries are built with goqu using the postgres dialect (DuckDB
// accepts its quoting and $n placeholders) and scanned with sqlx. Static
// statements are written inline with ? placeholders.
//
// # Counters
//
// like_count and save_count on events are caches of the native rows in the
// ledger. They are only ever recomputed with a COUNT over the ledger inside
// the same transaction as the ledger write, never incremented, so duplicate
// or reordered calls converge on the same value.
//
// # Coordinates
//
// latitude and longitude are NULL until a location is geocoded. A failed
// geocode leaves them NULL so that a later read can retry through
// CacheCoordinates.
package database
