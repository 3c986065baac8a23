package ports

import (
	"context"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/events"
)

// EventHandler is a function that handles an event
type EventHandler func(ctx context.Context, payload interface{}) error

// EventPublisher provides event publishing capabilities.
type EventPublisher interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType events.EventType, handler EventHandler) func()

	// Publish dispatches an event to all registered handlers synchronously.
	// Returns an error if any handler fails.
	Publish(ctx context.Context, eventType events.EventType, payload interface{}) error

	// PublishAsync queues an event for the worker pool and returns at once.
	// It reports false when the queue is full and the event was dropped.
	PublishAsync(eventType events.EventType, payload interface{}) bool
}
