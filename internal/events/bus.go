// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBusClosed  = errors.New("event bus is shutting down")
	ErrBusOverrun = errors.New("event channel full")
)

// Bus is a per-session in-memory emitter. Each cache or registry owns the
// bus it was constructed with; there is no process-wide instance.
type Bus struct {
	mu         sync.RWMutex
	handlers   map[EventType]map[string]Handler
	order      map[EventType][]string
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	eventChan  chan Event
	bufferSize int
}

// NewBus creates a new event bus. bufferSize bounds the asynchronous queue.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	bus := &Bus{
		handlers:   make(map[EventType]map[string]Handler),
		order:      make(map[EventType][]string),
		logger:     logger.Named("event_bus"),
		ctx:        ctx,
		cancel:     cancel,
		eventChan:  make(chan Event, bufferSize),
		bufferSize: bufferSize,
	}

	bus.wg.Add(1)
	go bus.processEvents()

	return bus
}

// Subscribe registers a handler for a specific event type and returns its token.
func (b *Bus) Subscribe(eventType EventType, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]Handler)
	}
	b.handlers[eventType][id] = handler
	b.order[eventType] = append(b.order[eventType], id)

	b.logger.Debug("Handler subscribed",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))

	return &subscription{id: id, bus: b, typ: eventType}
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (b *Bus) SubscribeFunc(eventType EventType, fn func(context.Context, Event) error) Subscription {
	return b.Subscribe(eventType, HandlerFunc(fn))
}

// Unsubscribe removes the handler registered under token.
func (b *Bus) Unsubscribe(eventType EventType, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers, ok := b.handlers[eventType]
	if !ok {
		return
	}
	if _, ok := handlers[token]; !ok {
		return
	}
	delete(handlers, token)

	ids := b.order[eventType]
	for i, id := range ids {
		if id == token {
			b.order[eventType] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(handlers) == 0 {
		delete(b.handlers, eventType)
		delete(b.order, eventType)
	}

	b.logger.Debug("Handler unsubscribed",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", token))
}

// Publish queues an event for asynchronous delivery.
func (b *Bus) Publish(event Event) error {
	select {
	case <-b.ctx.Done():
		return ErrBusClosed
	default:
	}

	select {
	case b.eventChan <- event:
		return nil
	default:
		b.logger.Warn("Event channel full, dropping event",
			zap.String("event_type", string(event.Type())))
		return ErrBusOverrun
	}
}

// PublishSync delivers an event to all handlers in subscription order before
// returning. Handlers run without the bus lock held.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	ids := b.order[event.Type()]
	handlers := make([]Handler, 0, len(ids))
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if h, ok := b.handlers[event.Type()][id]; ok {
			handlers = append(handlers, h)
			names = append(names, id)
		}
	}
	b.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("Handler error",
				zap.String("event_type", string(event.Type())),
				zap.String("handler_id", names[i]),
				zap.Error(err))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("handlers failed: %w", errors.Join(errs...))
	}
	return nil
}

func (b *Bus) processEvents() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			for {
				select {
				case event := <-b.eventChan:
					_ = b.PublishSync(context.Background(), event)
				default:
					return
				}
			}
		case event := <-b.eventChan:
			if err := b.PublishSync(b.ctx, event); err != nil {
				b.logger.Debug("Async delivery failed",
					zap.String("event_type", string(event.Type())),
					zap.Error(err))
			}
		}
	}
}

// Shutdown drains queued events and stops the delivery goroutine.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Debug("Event bus shutdown complete")
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus shutdown timeout")
		return ctx.Err()
	}
}

// HandlerCount returns the number of live handlers for eventType.
func (b *Bus) HandlerCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
