// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package reconcile

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/eventhub/internal/logging"
	"github.com/tomtom215/eventhub/internal/metrics"
)

// Queue publishes ledger commands for the Reconciler.
type Queue struct {
	pub   message.Publisher
	topic string
}

// NewQueue returns a Queue publishing to topic.
func NewQueue(pub message.Publisher, topic string) *Queue {
	return &Queue{pub: pub, topic: topic}
}

// Enqueue publishes cmd. The request's correlation id travels with the
// message so the retry shows up next to the request in the logs.
func (q *Queue) Enqueue(ctx context.Context, cmd LedgerCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	payload, err := cmd.Marshal()
	if err != nil {
		return fmt.Errorf("marshal ledger command: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(cmd.Kind))
	msg.Metadata.Set("origin", string(cmd.Origin))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}

	if err := q.pub.Publish(q.topic, msg); err != nil {
		metrics.LedgerRetries.WithLabelValues("enqueue_failed").Inc()
		return fmt.Errorf("publish ledger command: %w", err)
	}
	metrics.LedgerRetries.WithLabelValues("enqueued").Inc()
	return nil
}
