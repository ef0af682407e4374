// Package eventbus carries domain events between the registry and its
// asynchronous consumers over an in-process Watermill channel.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"linkboard/internal/domain/event"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// LinkEventsTopic is the single topic all link events travel on; handlers
// filter by event name.
const LinkEventsTopic = "link.events"

// Envelope is the wire form of a domain event. The payload keeps the
// concrete event's own JSON shape.
type Envelope struct {
	EventID     string          `json:"event_id"`
	EventName   string          `json:"event_name"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// EventBus publishes domain events for asynchronous handling.
type EventBus struct {
	channel *gochannel.GoChannel
}

// NewEventBus creates an in-process event bus.
func NewEventBus(logger watermill.LoggerAdapter) *EventBus {
	return &EventBus{
		channel: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 100},
			logger,
		),
	}
}

// Publish sends one or more domain events to the link events topic.
func (b *EventBus) Publish(ctx context.Context, events ...event.Event) error {
	for _, e := range events {
		msg, err := MarshalEvent(e)
		if err != nil {
			return err
		}
		msg.SetContext(ctx)
		if err := b.channel.Publish(LinkEventsTopic, msg); err != nil {
			return err
		}
	}
	return nil
}

// Subscriber exposes the consuming side for the router.
func (b *EventBus) Subscriber() message.Subscriber {
	return b.channel
}

// Close shuts the bus down; pending deliveries are dropped.
func (b *EventBus) Close() error {
	return b.channel.Close()
}

// MarshalEvent wraps a domain event in an Envelope and encodes it as a
// Watermill message keyed by the event ID.
func MarshalEvent(e event.Event) (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(Envelope{
		EventID:     e.EventID(),
		EventName:   e.EventName(),
		AggregateID: e.AggregateID(),
		OccurredAt:  e.OccurredAt(),
		Payload:     payload,
	})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(e.EventID(), data)
	msg.Metadata.Set("event_name", e.EventName())
	msg.Metadata.Set("aggregate_id", e.AggregateID())
	return msg, nil
}

// UnmarshalEnvelope decodes the Envelope carried by a Watermill message.
func UnmarshalEnvelope(msg *message.Message) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}
