package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/events"
	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
)

// EventType is an alias to the domain type
type EventType = events.EventType

// EventHandler is a function that handles an event.
type EventHandler = ports.EventHandler

type subscription struct {
	id      uint64
	handler EventHandler
}

type queuedEvent struct {
	eventType EventType
	payload   interface{}
}

// EventBus manages the publish-subscribe event system. Publish runs handlers
// inline; PublishAsync hands events to a bounded queue drained by a fixed
// pool of workers. It implements ports.EventPublisher.
type EventBus struct {
	handlers map[EventType][]subscription
	nextID   uint64
	mu       sync.RWMutex

	queue   chan queuedEvent
	metrics *WorkflowMetrics

	// Worker control
	stateMu  sync.Mutex
	started  bool
	closed   bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Ensure EventBus implements ports.EventPublisher at compile time
var _ ports.EventPublisher = (*EventBus)(nil)

// NewEventBus creates an EventBus whose async queue holds queueSize events.
func NewEventBus(queueSize int, metrics *WorkflowMetrics) *EventBus {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &EventBus{
		handlers: make(map[EventType][]subscription),
		queue:    make(chan queuedEvent, queueSize),
		metrics:  metrics,
		stopCh:   make(chan struct{}),
	}
}

// Subscribe registers a handler for a specific event type
// Returns an unsubscribe function
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.handlers[eventType] = append(eb.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()

		subs := eb.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				eb.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish runs every handler for eventType in subscription order. All
// handlers run even when one fails; the first error is returned.
func (eb *EventBus) Publish(ctx context.Context, eventType EventType, payload interface{}) error {
	eb.mu.RLock()
	subs := eb.handlers[eventType]
	eb.mu.RUnlock()

	var firstErr error
	for _, s := range subs {
		if err := eb.invoke(ctx, eventType, s.handler, payload); err != nil {
			eb.metrics.observeHandlerError(eventType.String())
			if firstErr == nil {
				firstErr = fmt.Errorf("EventBus handler error for %s: %w", eventType, err)
			}
		}
	}
	return firstErr
}

func (eb *EventBus) invoke(ctx context.Context, eventType EventType, handler EventHandler, payload interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔥 Panic in %s handler: %v", eventType, r)
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, payload)
}

// PublishAsync queues an event for the workers without blocking. It returns
// false when the event was dropped because the queue is full or the bus has
// been stopped.
func (eb *EventBus) PublishAsync(eventType EventType, payload interface{}) bool {
	eb.stateMu.Lock()
	defer eb.stateMu.Unlock()

	if eb.closed {
		log.Printf("⚠️ EventBus stopped, dropping %s event", eventType)
		eb.metrics.observeDrop()
		return false
	}

	select {
	case eb.queue <- queuedEvent{eventType: eventType, payload: payload}:
		return true
	default:
		log.Printf("⚠️ EventBus queue full (%d), dropping %s event", cap(eb.queue), eventType)
		eb.metrics.observeDrop()
		return false
	}
}

// Start launches workers goroutines that drain the async queue.
func (eb *EventBus) Start(workers int) {
	eb.stateMu.Lock()
	defer eb.stateMu.Unlock()
	if eb.started || eb.closed {
		return
	}
	eb.started = true

	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		eb.wg.Add(1)
		go eb.worker()
	}
	log.Printf("📤 EventBus started %d workers (queue %d)", workers, cap(eb.queue))
}

func (eb *EventBus) worker() {
	defer eb.wg.Done()
	for {
		select {
		case ev := <-eb.queue:
			eb.handleQueued(ev)
		case <-eb.stopCh:
			// drain what was accepted before Stop
			for {
				select {
				case ev := <-eb.queue:
					eb.handleQueued(ev)
				default:
					return
				}
			}
		}
	}
}

func (eb *EventBus) handleQueued(ev queuedEvent) {
	// async events are decoupled from the request that produced them
	if err := eb.Publish(context.Background(), ev.eventType, ev.payload); err != nil {
		log.Printf("⚠️ EventBus async publish error: %v", err)
	}
}

// Stop refuses new async events, lets the workers finish the queue and
// waits for them.
func (eb *EventBus) Stop() {
	eb.stateMu.Lock()
	eb.closed = true
	started := eb.started
	eb.stateMu.Unlock()

	eb.stopOnce.Do(func() {
		close(eb.stopCh)
	})
	if started {
		eb.wg.Wait()
		log.Printf("📤 EventBus stopped")
	}
}
