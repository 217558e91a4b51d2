// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package services

import (
	"context"
	"errors"
	"fmt"
)

// LedgerReconciler is satisfied by *reconcile.Reconciler. Run blocks until
// ctx is canceled or the router fails; it can be called again after it
// returns.
type LedgerReconciler interface {
	Run(ctx context.Context) error
	Close() error
}

// LedgerReconcilerService supervises the retry-queue consumer.
type LedgerReconcilerService struct {
	reconciler LedgerReconciler
	name       string
}

// NewLedgerReconcilerService wraps r.
func NewLedgerReconcilerService(r LedgerReconciler) *LedgerReconcilerService {
	return &LedgerReconcilerService{reconciler: r, name: "ledger-reconciler"}
}

// Serve implements suture.Service.
func (s *LedgerReconcilerService) Serve(ctx context.Context) error {
	runErr := s.reconciler.Run(ctx)
	closeErr := s.reconciler.Close()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		return fmt.Errorf("ledger reconciler failed: %w", errors.Join(runErr, closeErr))
	}
	return errors.New("ledger reconciler stopped unexpectedly")
}

func (s *LedgerReconcilerService) String() string {
	return s.name
}
