// Package kafka publishes transfer events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/assetflow/internal/ports/secondary"
)

// DefaultTopic is the topic transfer events are written to.
const DefaultTopic = "transfer-events"

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements secondary.EventPublisher over a kafka.Writer.
// Events are JSON encoded; the key keeps events of one asset on one partition.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewPublisher creates a publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		timeout: 5 * time.Second,
	}
}

// Publish writes event under key.
func (p *Publisher) Publish(ctx context.Context, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, key string, event any) error { return nil }
func (NoopPublisher) Close() error { return nil }

var (
	_ secondary.EventPublisher = (*Publisher)(nil)
	_ secondary.EventPublisher = NoopPublisher{}
)

// Ping dials the first reachable broker and reads the cluster's brokers.
func Ping(ctx context.Context, brokers []string) (int, error) {
	var dialer kafka.Dialer
	var lastErr error
	for _, addr := range brokers {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		defer conn.Close()
		known, err := conn.Brokers()
		if err != nil {
			return 0, fmt.Errorf("failed to list brokers via %s: %w", addr, err)
		}
		return len(known), nil
	}
	if lastErr == nil {
		return 0, fmt.Errorf("no brokers configured")
	}
	return 0, fmt.Errorf("no broker reachable: %w", lastErr)
}
