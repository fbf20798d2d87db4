// Package kafka provides a Kafka-backed eventstream publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/scriptoriumco/vellum/pkg/eventstream"
)

// Publisher publishes command events to a Kafka topic. Events are keyed by
// session id so one session's commands stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Publisher writing to topic on the given brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// PublishCommand marshals the event envelope and writes it to the topic.
func (p *Publisher) PublishCommand(ctx context.Context, event *eventstream.CommandEvent) error {
	if event == nil {
		return eventstream.ErrNilCommandEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling command event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Source.SessionID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing command event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
