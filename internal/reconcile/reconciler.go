// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/eventhub/internal/config"
	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
	"github.com/tomtom215/eventhub/internal/models"
)

// LedgerWriter applies one ledger row write.
type LedgerWriter interface {
	RecordInteraction(ctx context.Context, kind models.InteractionKind, origin models.Origin, eventID, userID string, present bool) error
}

// MembershipSource answers whether an interaction currently exists on an
// external event. A missing event has none.
type MembershipSource interface {
	HasInteraction(ctx context.Context, kind models.InteractionKind, eventID, userID string) (bool, error)
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithMembership makes EXTERNAL commands project the current state of src
// instead of the state recorded when the write failed.
func WithMembership(src MembershipSource) Option {
	return func(r *Reconciler) { r.membership = src }
}

// Reconciler consumes ledger commands and re-applies them.
type Reconciler struct {
	cfg        config.LedgerConfig
	transport  *Transport
	writer     LedgerWriter
	membership MembershipSource
	logger     watermill.LoggerAdapter

	mu     sync.Mutex
	router *message.Router
	used   bool
}

// NewReconciler wires a router over t applying commands with w.
func NewReconciler(cfg *config.LedgerConfig, t *Transport, w LedgerWriter, logger watermill.LoggerAdapter, opts ...Option) (*Reconciler, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	r := &Reconciler{
		cfg:       *cfg,
		transport: t,
		writer:    w,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	router, err := r.newRouter()
	if err != nil {
		return nil, err
	}
	r.router = router
	return r, nil
}

// newRouter builds a router. The poison queue is the outermost middleware
// so that a message is poisoned only after Retry has given up; Recoverer is
// innermost and turns handler panics into retryable errors.
func (r *Reconciler) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create ledger router: %w", err)
	}

	poison, err := middleware.PoisonQueue(r.transport.Publisher, r.cfg.PoisonTopic)
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}
	retry := middleware.Retry{
		MaxRetries:      r.cfg.MaxRetries,
		InitialInterval: r.cfg.InitialInterval,
		MaxInterval:     r.cfg.MaxInterval,
		Multiplier:      2.0,
		Logger:          r.logger,
	}

	apply := router.AddConsumerHandler("ledger_apply", r.cfg.Topic, r.transport.Subscriber, r.apply)
	apply.AddMiddleware(poison, retry.Middleware, middleware.Recoverer)

	router.AddConsumerHandler("ledger_poison", r.cfg.PoisonTopic, r.transport.Subscriber, r.poisoned)
	return router, nil
}

func (r *Reconciler) apply(msg *message.Message) error {
	cmd, err := UnmarshalCommand(msg.Payload)
	if err != nil {
		// Redelivering a malformed payload cannot help.
		logging.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed ledger command")
		return nil
	}

	ctx := msg.Context()
	if id := middleware.MessageCorrelationID(msg); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	present, err := r.currentState(ctx, &cmd)
	if err != nil {
		return err
	}
	if err := r.writer.RecordInteraction(ctx, cmd.Kind, cmd.Origin, cmd.EventID, cmd.UserID, present); err != nil {
		return fmt.Errorf("apply ledger command for event %s: %w", cmd.EventID, err)
	}

	metrics.LedgerRetries.WithLabelValues("applied").Inc()
	logging.Ctx(ctx).Info().
		Str("kind", string(cmd.Kind)).
		Str("origin", string(cmd.Origin)).
		Str("event_id", cmd.EventID).
		Str("user_id", cmd.UserID).
		Bool("present", present).
		Msg("Ledger command reconciled")
	return nil
}

// currentState is the row state to write for cmd. A later interaction may
// have reversed the one that failed, so EXTERNAL rows follow the document.
func (r *Reconciler) currentState(ctx context.Context, cmd *LedgerCommand) (bool, error) {
	if r.membership == nil || cmd.Origin != models.OriginExternal {
		return cmd.Present, nil
	}
	present, err := r.membership.HasInteraction(ctx, cmd.Kind, cmd.EventID, cmd.UserID)
	if err != nil {
		return false, fmt.Errorf("load current %s state for event %s: %w", cmd.Kind, cmd.EventID, err)
	}
	if present != cmd.Present {
		metrics.LedgerRetries.WithLabelValues("superseded").Inc()
		logging.Ctx(ctx).Debug().
			Str("event_id", cmd.EventID).
			Str("user_id", cmd.UserID).
			Bool("queued", cmd.Present).
			Bool("current", present).
			Msg("Ledger command superseded by a later interaction")
	}
	return present, nil
}

func (r *Reconciler) poisoned(msg *message.Message) error {
	metrics.LedgerRetries.WithLabelValues("poisoned").Inc()

	ev := logging.Error().
		Str("message_uuid", msg.UUID).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Str("correlation_id", middleware.MessageCorrelationID(msg))
	if cmd, err := UnmarshalCommand(msg.Payload); err == nil {
		ev = ev.Str("kind", string(cmd.Kind)).
			Str("event_id", cmd.EventID).
			Str("user_id", cmd.UserID).
			Bool("present", cmd.Present)
	}
	ev.Msg("Ledger command poisoned, manual reconciliation required")
	return nil
}

// Run processes commands until ctx is canceled or Close is called. A
// router cannot be restarted, so every call after the first builds a new one.
func (r *Reconciler) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.used {
		router, err := r.newRouter()
		if err != nil {
			r.mu.Unlock()
			return err
		}
		r.router = router
	}
	r.used = true
	router := r.router
	r.mu.Unlock()

	return router.Run(ctx)
}

// Running is closed once the current router has subscribed its handlers.
func (r *Reconciler) Running() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.router.Running()
}

// Close stops the current router, waiting for in-flight commands.
func (r *Reconciler) Close() error {
	r.mu.Lock()
	router := r.router
	r.mu.Unlock()
	return router.Close()
}
