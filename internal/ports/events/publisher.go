package events

import (
	"context"
	"time"
)

// Tipos de evento que publica el servicio.
const (
	TypePetEvolved        = "pet_evolved"
	TypeWebhookProcessed  = "webhook_processed"
	TypeImageJobCompleted = "image_job_completed"
)

// Event es el mensaje que va al bus (JSON en Kafka).
type Event struct {
	Type       string         `json:"type"`
	RepoOwner  string         `json:"repo_owner"`
	RepoName   string         `json:"repo_name"`
	PetID      string         `json:"pet_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher abstrae el bus de eventos. La implementación Kafka es
// opcional: sin broker configurado se usa Noop.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(ctx context.Context, ev Event) error { return nil }
func (Noop) Close() error                                { return nil }
