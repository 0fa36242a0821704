package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github-tamagotchi/internal/platform/logger"
	"github-tamagotchi/internal/ports/events"
)

// KafkaPublisher publica los eventos del servicio como mensajes JSON.
// Key = owner/repo para mantener orden por mascota dentro de la partición.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    logger.Logger
}

func NewKafka(broker, topic string, log logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{
		writer: w,
		log:    log.With(map[string]any{"component": "events"}),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev events.Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.RepoOwner + "/" + ev.RepoName),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: write: %w", err)
	}

	p.log.Debug("event published", map[string]any{
		"type": ev.Type,
		"repo": ev.RepoOwner + "/" + ev.RepoName,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
