// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package testinfra starts throwaway MongoDB and Redis containers for
// integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/docstore/... ./internal/geo/...
//
// Tests call SkipIfNoDocker first so that machines without a Docker daemon
// skip them instead of failing:
//
//	func TestStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    mongo, err := testinfra.NewMongoContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, mongo)
//	    // connect with mongo.URI
//	}
//
// The first run pulls the images; later runs reuse the local cache.
package testinfra
