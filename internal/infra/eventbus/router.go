package eventbus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventHandler consumes one kind of domain event from the bus.
type EventHandler interface {
	// HandlerName identifies the handler on the router.
	HandlerName() string
	// EventName is the event this handler subscribes to.
	EventName() string
	// Handle processes one delivered envelope.
	Handle(ctx context.Context, envelope *Envelope) error
}

// Router dispatches envelopes from the link events topic to the handlers
// whose event name matches.
type Router struct {
	inner  *message.Router
	bus    *EventBus
	logger watermill.LoggerAdapter
}

// NewRouter creates a router over the given bus.
func NewRouter(bus *EventBus, logger watermill.LoggerAdapter) (*Router, error) {
	inner, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}
	return &Router{inner: inner, bus: bus, logger: logger}, nil
}

// AddHandler subscribes a handler. Must be called before Run.
func (r *Router) AddHandler(handler EventHandler) {
	r.inner.AddNoPublisherHandler(
		handler.HandlerName(),
		LinkEventsTopic,
		r.bus.Subscriber(),
		func(msg *message.Message) error {
			envelope, err := UnmarshalEnvelope(msg)
			if err != nil {
				// An undecodable message would fail forever; ack and move on.
				r.logger.Error("dropping undecodable message", err, watermill.LogFields{
					"handler": handler.HandlerName(),
				})
				return nil
			}
			if envelope.EventName != handler.EventName() {
				return nil
			}
			if err := handler.Handle(msg.Context(), envelope); err != nil {
				r.logger.Error("event handler failed", err, watermill.LogFields{
					"handler":    handler.HandlerName(),
					"event_name": envelope.EventName,
					"event_id":   envelope.EventID,
				})
				return err
			}
			return nil
		},
	)
}

// Run blocks delivering events until the context is cancelled.
func (r *Router) Run(ctx context.Context) error {
	return r.inner.Run(ctx)
}

// Running closes the returned channel once the router accepts deliveries.
func (r *Router) Running() chan struct{} {
	return r.inner.Running()
}

// Close stops the router.
func (r *Router) Close() error {
	return r.inner.Close()
}
