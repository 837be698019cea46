// Package eventbus optionally publishes one JSON-encoded Observation per
// poll to Kafka, giving downstream consumers a telemetry feed without
// coupling the supervisor loop's correctness to the broker being up.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
)

// Publisher publishes Observations; a nil *Publisher is valid and turns
// Publish into a no-op, so the event bus can be entirely absent when
// KAFKA_BROKERS isn't configured.
type Publisher struct {
	brokers     []string
	topicPrefix string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// New returns a Publisher targeting brokers, or nil if brokers is empty —
// callers should treat a nil *Publisher as "event bus disabled".
func New(brokers []string, topicPrefix string) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	return &Publisher{
		brokers:     brokers,
		topicPrefix: topicPrefix,
		writers:     make(map[string]*kafka.Writer),
	}
}

func (p *Publisher) writerFor(zoneID string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[zoneID]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  p.topicPrefix + zoneID,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	p.writers[zoneID] = w
	return w
}

// Publish sends obs to its zone's topic. Failures are returned to the
// caller, who treats them as best-effort (log and continue) — the event
// bus is supplementary telemetry and never fails a poll. The write is
// synchronous, so a slow broker delays the calling loop until the write
// completes or ctx ends.
func (p *Publisher) Publish(ctx context.Context, obs driver.Observation) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("eventbus: marshal observation: %w", err)
	}
	w := p.writerFor(obs.ZoneID)
	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(obs.ZoneID),
		Value: payload,
	})
}

// Close releases every per-zone writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
