// Package kafka provides the participation event stream producer.
//
// Publishing is fail-open: the business operation has already committed by the
// time an event is emitted, so delivery failures are logged and counted, never
// surfaced to the caller.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"campuspulse/internal/platform/config"
)

// Publisher produces JSON-encoded domain events to a single topic.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewPublisher connects to the brokers and ensures the topic exists.
// Returns nil if no brokers are configured (publishing disabled).
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(context.Background(), 1, 1, nil, cfg.Topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", cfg.Topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", cfg.Topic, resp.Err)
	}

	return &Publisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

// Publish asynchronously produces one event keyed by key. Marshal failures
// and delivery failures are logged; neither is returned to the caller.
func (p *Publisher) Publish(ctx context.Context, key string, payload any) {
	value, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "event marshal failed", "key", key, "error", err)
		return
	}

	record := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: value}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("event delivery failed", "key", key, "error", err)
		}
	})
}

// Close flushes outstanding records and releases the client.
func (p *Publisher) Close() {
	if err := p.client.Flush(context.Background()); err != nil {
		p.logger.Error("event flush on close failed", "error", err)
	}
	p.client.Close()
}
