// Package events delivers ToolEvent notifications after mutating tools succeed.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	qstashx "github.com/tanpawarit/talent-assistant/pkg/qstash"
)

type Noop struct{}

func (Noop) Publish(context.Context, contractx.ToolEvent) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []contractx.EventPublisher

func (m Multi) Publish(ctx context.Context, event contractx.ToolEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type qstashClient interface {
	PublishJSON(ctx context.Context, destination string, body []byte, opts qstashx.PublishOptions) (string, error)
}

type QStashPublisher struct {
	client      qstashClient
	destination string
}

// NewQStashPublisher sends events to destination, which is a URL, URL group
// or topic configured in QStash.
func NewQStashPublisher(client qstashClient, destination string) (*QStashPublisher, error) {
	if client == nil {
		return nil, errors.New("qstash client is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("qstash destination is required")
	}
	return &QStashPublisher{client: client, destination: destination}, nil
}

func (p *QStashPublisher) Publish(ctx context.Context, event contractx.ToolEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal tool event: %w", err)
	}
	messageID, err := p.client.PublishJSON(ctx, p.destination, body, qstashx.PublishOptions{DeduplicationID: event.ID})
	if err != nil {
		return fmt.Errorf("publish tool event %s via qstash: %w", event.ID, err)
	}
	zerolog.Ctx(ctx).Debug().Str("event_id", event.ID).Str("message_id", messageID).Msg("tool event queued")
	return nil
}

type natsClient interface {
	Publish(subject string, data []byte) error
}

type NATSPublisher struct {
	client  natsClient
	subject string
}

func NewNATSPublisher(client natsClient, subject string) (*NATSPublisher, error) {
	if client == nil {
		return nil, errors.New("nats client is required")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}
	return &NATSPublisher{client: client, subject: subject}, nil
}

// Publish sends to "<subject>.<tool>" so consumers can subscribe per tool.
func (p *NATSPublisher) Publish(ctx context.Context, event contractx.ToolEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal tool event: %w", err)
	}
	subject := p.subject + "." + event.Tool
	if err := p.client.Publish(subject, body); err != nil {
		return fmt.Errorf("publish tool event %s on %s: %w", event.ID, subject, err)
	}
	return nil
}
