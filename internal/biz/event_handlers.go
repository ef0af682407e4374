package biz

import (
	"context"
	"encoding/json"
	"errors"

	"linkboard/internal/domain"
	"linkboard/internal/domain/event"
	"linkboard/internal/infra/eventbus"

	"github.com/go-kratos/kratos/v2/log"
)

// Compile-time interface checks
var (
	_ eventbus.EventHandler = (*LoggingEventHandler)(nil)
	_ eventbus.EventHandler = (*ClickEventHandler)(nil)
)

// LoggingEventHandler logs all domain events.
type LoggingEventHandler struct {
	log       *log.Helper
	eventName string
}

// NewLoggingEventHandler creates a new logging event handler.
func NewLoggingEventHandler(logger log.Logger, eventName string) *LoggingEventHandler {
	return &LoggingEventHandler{
		log:       log.NewHelper(logger),
		eventName: eventName,
	}
}

func (h *LoggingEventHandler) HandlerName() string {
	return "logging_handler_" + h.eventName
}

func (h *LoggingEventHandler) EventName() string {
	return h.eventName
}

// Handle logs the event details.
func (h *LoggingEventHandler) Handle(ctx context.Context, envelope *eventbus.Envelope) error {
	switch envelope.EventName {
	case "link.created":
		var evt event.LinkCreated
		if err := json.Unmarshal(envelope.Payload, &evt); err != nil {
			return err
		}
		h.log.Infof("[Event] link created: %s -> %s", evt.Slug, evt.DestinationURL)
	case "link.clicked":
		var evt event.LinkClicked
		if err := json.Unmarshal(envelope.Payload, &evt); err != nil {
			return err
		}
		h.log.Infof("[Event] link clicked: %s (ip: %s, referrer: %s)", evt.Slug, evt.RemoteIP, evt.Referrer)
	case "link.renamed":
		var evt event.LinkRenamed
		if err := json.Unmarshal(envelope.Payload, &evt); err != nil {
			return err
		}
		h.log.Infof("[Event] link renamed: %s %q -> %q", evt.Slug, evt.OldTitle, evt.NewTitle)
	default:
		h.log.Infof("[Event] %s: %s", envelope.EventName, envelope.AggregateID)
	}
	return nil
}

// ClickEventHandler consumes LinkClicked events and delegates to the click
// recorder. This is the asynchronous half of resolve-and-record: the
// resolution already returned to the visitor by the time this runs.
type ClickEventHandler struct {
	recorder *Recorder
	log      *log.Helper
}

// NewClickEventHandler creates a new click event handler.
func NewClickEventHandler(recorder *Recorder, logger log.Logger) *ClickEventHandler {
	return &ClickEventHandler{
		recorder: recorder,
		log:      log.NewHelper(logger),
	}
}

func (h *ClickEventHandler) HandlerName() string {
	return "click_handler"
}

func (h *ClickEventHandler) EventName() string {
	return "link.clicked"
}

// Handle records the click. Recording failures are logged and dropped so
// the bus does not redeliver against a link that no longer resolves.
func (h *ClickEventHandler) Handle(ctx context.Context, envelope *eventbus.Envelope) error {
	var evt event.LinkClicked
	if err := json.Unmarshal(envelope.Payload, &evt); err != nil {
		return err
	}

	visit := Visit{
		UserAgent: evt.UserAgent,
		Locale:    evt.Locale,
		RemoteIP:  evt.RemoteIP,
		Referrer:  evt.Referrer,
		Country:   evt.Country,
	}
	if err := h.recorder.Record(ctx, evt.Slug, visit); err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			h.log.Warnf("dropping click for unknown slug %s", evt.Slug)
			return nil
		}
		h.log.Errorf("failed to record click for %s: %v", evt.Slug, err)
		return nil
	}
	return nil
}

// RegisterEventHandlers wires all event handlers onto the router.
func RegisterEventHandlers(router *eventbus.Router, clickHandler *ClickEventHandler, logger log.Logger) {
	router.AddHandler(clickHandler)
	router.AddHandler(NewLoggingEventHandler(logger, "link.created"))
	router.AddHandler(NewLoggingEventHandler(logger, "link.renamed"))
}
