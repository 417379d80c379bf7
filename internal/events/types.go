// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Cache events
	AccountChanged EventType = "account.changed"
	AccountRemoved EventType = "account.removed"

	// Registry events
	PoolsDiscovered EventType = "pool.discovered"
	PoolUpdated     EventType = "pool.updated"

	// Subscription events
	SubscriptionFailed EventType = "subscription.failed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// AccountChangedEvent carries only the address. Several updates may coalesce
// before a subscriber reacts, so subscribers re-read the cache.
type AccountChangedEvent struct {
	BaseEvent
	Address string
}

// NewAccountChanged builds an invalidation event for address.
func NewAccountChanged(address string) AccountChangedEvent {
	return AccountChangedEvent{
		BaseEvent: BaseEvent{EventType: AccountChanged, EventTime: time.Now()},
		Address:   address,
	}
}

// AccountRemovedEvent is emitted when an entry is deleted from the cache.
type AccountRemovedEvent struct {
	BaseEvent
	Address string
}

// NewAccountRemoved builds a deletion event for address.
func NewAccountRemoved(address string) AccountRemovedEvent {
	return AccountRemovedEvent{
		BaseEvent: BaseEvent{EventType: AccountRemoved, EventTime: time.Now()},
		Address:   address,
	}
}

// PoolsDiscoveredEvent is emitted after a discovery pass.
type PoolsDiscoveredEvent struct {
	BaseEvent
	Count  int
	Legacy int
}

// PoolUpdatedEvent is emitted when a pool record is replaced by a push.
type PoolUpdatedEvent struct {
	BaseEvent
	Address string
}

// SubscriptionFailedEvent reports a background listener that stopped.
type SubscriptionFailedEvent struct {
	BaseEvent
	Target string
	Error  error
}

// NewPoolsDiscovered builds a discovery summary event.
func NewPoolsDiscovered(count, legacy int) PoolsDiscoveredEvent {
	return PoolsDiscoveredEvent{
		BaseEvent: BaseEvent{EventType: PoolsDiscovered, EventTime: time.Now()},
		Count:     count,
		Legacy:    legacy,
	}
}

// NewPoolUpdated builds a pool replacement event.
func NewPoolUpdated(address string) PoolUpdatedEvent {
	return PoolUpdatedEvent{
		BaseEvent: BaseEvent{EventType: PoolUpdated, EventTime: time.Now()},
		Address:   address,
	}
}

// NewSubscriptionFailed builds a listener failure event.
func NewSubscriptionFailed(target string, err error) SubscriptionFailedEvent {
	return SubscriptionFailedEvent{
		BaseEvent: BaseEvent{EventType: SubscriptionFailed, EventTime: time.Now()},
		Target:    target,
		Error:     err,
	}
}
