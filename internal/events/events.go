// Package events publishes account lifecycle notifications to a message
// broker so downstream consumers (mailers, audit sinks) can react to
// registrations and deletions without coupling to the API server.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/userhub/apiserver/config"
	"github.com/userhub/apiserver/types"
)

// Channel is the queue/topic account events are published to.
const Channel = "account-events"

// Event types.
const (
	TypeUserRegistered = "user.registered"
	TypeUserDeleted    = "user.deleted"
)

// AccountEvent is the broker payload. It carries the public profile
// only; password hashes never leave the service.
type AccountEvent struct {
	Type       string              `json:"type"`
	User       types.PublicProfile `json:"user"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// Publisher delivers account events to a broker backend.
type Publisher interface {
	Publish(ctx context.Context, event AccountEvent) (string, error)
	Close() error
}

// NewPublisher selects a broker backend from config. An empty backend
// yields a no-op publisher; event publishing is optional.
func NewPublisher(ctx context.Context, cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Backend {
	case "":
		return NopPublisher{}, nil
	case "rabbitmq":
		return NewRabbitMQPublisher(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubPublisher(ctx, cfg.PubSub)
	default:
		return nil, errors.New("unknown events backend: " + cfg.Backend)
	}
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event AccountEvent) (string, error) {
	return "", nil
}

func (NopPublisher) Close() error { return nil }

func marshalEvent(event AccountEvent) ([]byte, map[string]string, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, nil, err
	}
	return data, map[string]string{"type": event.Type}, nil
}
