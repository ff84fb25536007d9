// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package events provides the fire-and-forget event bus used for two
// things the run coordinator must never block on: notifying cache
// invalidation listeners that a new Run completed, and requesting external
// cluster naming. Both are backed by an embedded NATS server so a single
// binary needs no external broker to exercise the same watermill-based
// publish path a multi-node deployment would use.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	watermillnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/memoriauy/burbujas/internal/metrics"
)

// RunCompletedSubject carries a JSON-encoded RunCompleted payload whenever
// a run transitions to completed.
const RunCompletedSubject = "burbujas.run.completed"

// NamingRequestSubject carries a JSON-encoded NamingRequest payload for
// each group cluster once a run completes; an external subscriber answers
// by calling back into the naming hook's result path (out of scope here).
const NamingRequestSubject = "burbujas.naming.requested"

// RunCompleted is the event payload published on RunCompletedSubject.
type RunCompleted struct {
	RunID      string `json:"run_id"`
	NGroups    int    `json:"n_groups"`
	Silhouette float64 `json:"silhouette"`
}

// NamingRequest is the event payload published on NamingRequestSubject,
// one per group cluster.
type NamingRequest struct {
	RunID          string   `json:"run_id"`
	ClusterLocalID int      `json:"cluster_local_id"`
	TopItemIDs     []string `json:"top_item_ids_by_consensus"`
}

// Bus wraps a watermill publisher over an embedded (or external) NATS
// server. Publish calls never block the caller on subscriber processing;
// they only block on the broker accepting the message.
type Bus struct {
	publisher message.Publisher
	embedded  *server.Server
	logger    zerolog.Logger
}

// Config controls how the bus connects to NATS.
type Config struct {
	// EmbeddedServer, when true, starts an in-process NATS server rather
	// than dialing URL.
	EmbeddedServer bool
	URL            string
}

// Open starts (if configured) an embedded NATS server and returns a Bus
// connected to it, or to Config.URL otherwise.
func Open(cfg Config, logger zerolog.Logger) (*Bus, error) {
	url := cfg.URL
	var embedded *server.Server

	if cfg.EmbeddedServer {
		opts := &server.Options{Host: "127.0.0.1", Port: server.RANDOM_PORT, NoLog: true, NoSigs: true}
		ns, err := server.NewServer(opts)
		if err != nil {
			return nil, fmt.Errorf("starting embedded NATS server: %w", err)
		}
		go ns.Start()
		if !ns.ReadyForConnections(5 * time.Second) {
			return nil, fmt.Errorf("embedded NATS server did not become ready")
		}
		embedded = ns
		url = ns.ClientURL()
	}

	logAdapter := watermill.NewStdLogger(false, false)
	publisher, err := watermillnats.NewPublisher(
		watermillnats.PublisherConfig{
			URL: url,
			NatsOptions: []nats.Option{
				nats.Name("burbujas"),
				nats.RetryOnFailedConnect(true),
				nats.MaxReconnects(-1),
				nats.ReconnectWait(time.Second),
			},
			Marshaler: &watermillnats.NATSMarshaler{},
			JetStream: watermillnats.JetStreamConfig{Disabled: true},
		},
		logAdapter,
	)
	if err != nil {
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, fmt.Errorf("creating watermill NATS publisher: %w", err)
	}

	return &Bus{publisher: publisher, embedded: embedded, logger: logger}, nil
}

func (b *Bus) Close() error {
	err := b.publisher.Close()
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
	return err
}

// PublishRunCompleted is fire-and-forget: callers must not treat a publish
// failure as a run failure, only log it.
func (b *Bus) PublishRunCompleted(ctx context.Context, payload []byte) {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.publisher.Publish(RunCompletedSubject, msg); err != nil {
		b.logger.Warn().Err(err).Msg("failed to publish run-completed event")
	}
}

// PublishNamingRequest is fire-and-forget for the same reason: naming is a
// post-completion enrichment, never a condition for the run's success.
func (b *Bus) PublishNamingRequest(ctx context.Context, payload []byte) {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.publisher.Publish(NamingRequestSubject, msg); err != nil {
		metrics.NamingHookFailures.Inc()
		b.logger.Warn().Err(err).Msg("failed to publish naming request")
	}
}
