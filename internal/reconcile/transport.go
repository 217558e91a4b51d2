// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/eventhub/internal/config"
)

const (
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

// Transport is the publisher/subscriber pair carrying ledger commands.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	backend    string
}

// NewTransport builds the transport selected by cfg.Backend.
func NewTransport(cfg *config.LedgerConfig, natsCfg *config.NATSConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	switch cfg.Backend {
	case "", BackendGoChannel:
		return NewGoChannelTransport(logger), nil
	case BackendNATS:
		return newNATSTransport(natsCfg, logger)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// NewGoChannelTransport returns an in-process transport. Messages published
// while nothing is subscribed are dropped, so the reconciler must be running
// before commands are enqueued.
func NewGoChannelTransport(logger watermill.LoggerAdapter) *Transport {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
	return &Transport{Publisher: ch, Subscriber: ch, backend: BackendGoChannel}
}

func newNATSTransport(cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("eventhub-ledger"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create ledger publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.DurablePrefix,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.DeliverAll(),
				natsgo.AckExplicit(),
			},
			DurablePrefix: cfg.DurablePrefix,
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create ledger subscriber: %w", err)
	}

	return &Transport{Publisher: pub, Subscriber: sub, backend: BackendNATS}, nil
}

// Backend names the transport in use.
func (t *Transport) Backend() string { return t.backend }

// Close closes both ends. For gochannel they are the same value.
func (t *Transport) Close() error {
	err := t.Publisher.Close()
	if t.backend != BackendGoChannel {
		err = errors.Join(err, t.Subscriber.Close())
	}
	return err
}
