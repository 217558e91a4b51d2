// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package services

import (
	"context"
	"time"

	"github.com/tomtom215/eventhub/internal/logging"
)

// Checkpointer is satisfied by *database.DB.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// CheckpointService flushes the DuckDB WAL every interval.
type CheckpointService struct {
	db       Checkpointer
	interval time.Duration
	timeout  time.Duration
	name     string
}

// NewCheckpointService creates a checkpoint loop. A non-positive interval
// becomes 5 minutes.
func NewCheckpointService(db Checkpointer, interval time.Duration) *CheckpointService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CheckpointService{
		db:       db,
		interval: interval,
		timeout:  30 * time.Second,
		name:     "duckdb-checkpoint",
	}
}

// Serve implements suture.Service.
func (s *CheckpointService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.checkpoint(ctx)
		}
	}
}

func (s *CheckpointService) checkpoint(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.db.Checkpoint(cctx); err != nil {
		logging.Warn().Err(err).Msg("Periodic checkpoint failed")
		return
	}
	logging.Debug().Dur("duration", time.Since(start)).Msg("Periodic checkpoint complete")
}

func (s *CheckpointService) String() string {
	return s.name
}
