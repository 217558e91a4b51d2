// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingCheckpointer struct {
	calls atomic.Int32
	err   error
}

func (c *countingCheckpointer) Checkpoint(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestCheckpointService_RunsPeriodically(t *testing.T) {
	db := &countingCheckpointer{}
	svc := NewCheckpointService(db, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for db.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 checkpoints, got %d", db.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCheckpointService_SurvivesFailures(t *testing.T) {
	db := &countingCheckpointer{err: errors.New("disk full")}
	svc := NewCheckpointService(db, 2*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if db.calls.Load() < 2 {
		t.Errorf("expected repeated attempts, got %d", db.calls.Load())
	}
}

func TestNewCheckpointService_DefaultInterval(t *testing.T) {
	svc := NewCheckpointService(&countingCheckpointer{}, 0)
	if svc.interval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m", svc.interval)
	}
	if svc.String() != "duckdb-checkpoint" {
		t.Errorf("String() = %q", svc.String())
	}
}
