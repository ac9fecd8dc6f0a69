// util/event_bus.go

package util

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	logger "github.com/pbirs-tools/admin-api/logging"
)

// Event is one domain occurrence, such as a policy-list replacement or a
// catalog rename, delivered to every subscriber of its type.
type Event struct {
	Type    string
	Payload interface{}
}

// EventHandler consumes one event. Handlers run on their own goroutines; a
// returned error is routed to the bus error loop.
type EventHandler func(context.Context, Event) error

const handlerErrBuffer = 100

// EventBus decouples the write paths from their side effects: services
// publish mutations, and the audit and notification subscribers react without
// blocking the request that caused them.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]EventHandler
	errorChan   chan error
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]EventHandler),
		errorChan:   make(chan error, handlerErrBuffer),
	}
}

// Subscribe registers a handler for an event type.
func (eb *EventBus) Subscribe(eventType string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], handler)
}

// Publish fans the event out to the type's subscribers, each on its own
// goroutine. Publishing never blocks the caller; a handler registered while a
// publish is in flight only sees later events.
func (eb *EventBus) Publish(ctx context.Context, eventType string, payload interface{}) {
	eb.mu.RLock()
	handlers := make([]EventHandler, len(eb.subscribers[eventType]))
	copy(handlers, eb.subscribers[eventType])
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{Type: eventType, Payload: payload}
	for _, handler := range handlers {
		go func(h EventHandler) {
			if err := h(ctx, event); err != nil {
				select {
				case eb.errorChan <- fmt.Errorf("event handler error: %w", err):
				default:
					logger.Error("Event error channel full, dropping to log",
						zap.Error(err),
						zap.String("eventType", eventType))
				}
			}
		}(handler)
	}
}

// Start runs the handler error loop until ctx is cancelled.
func (eb *EventBus) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case err := <-eb.errorChan:
				logger.Error("Event handler error", zap.Error(err))
			case <-ctx.Done():
				return
			}
		}
	}()
}
