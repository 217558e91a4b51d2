// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

//go:build integration

package testinfra

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMongoImage is the MongoDB image used for document store tests.
	DefaultMongoImage = "mongo:7.0"

	mongoPort = "27017/tcp"
)

// MongoContainer is a running single-node MongoDB.
type MongoContainer struct {
	testcontainers.Container
	URI string
}

// NewMongoContainer starts MongoDB and waits until it accepts connections.
func NewMongoContainer(ctx context.Context) (*MongoContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultMongoImage,
		ExposedPorts: []string{mongoPort},
		WaitingFor: wait.ForAll(
			wait.ForLog("Waiting for connections"),
			wait.ForListeningPort(mongoPort),
		).WithStartupTimeout(90 * time.Second),
	}

	container, addr, err := startContainer(ctx, req, mongoPort)
	if err != nil {
		return nil, err
	}
	return &MongoContainer{
		Container: container,
		URI:       "mongodb://" + addr,
	}, nil
}
