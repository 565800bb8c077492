// Package events implements the world's synchronous, FIFO-per-subscriber
// event bus. Every index (entity, hierarchy, component membership,
// name/tag maps — spec §4.D) and the Lua "events" API surface (§4.E #8)
// subscribe here instead of scanning component columns directly.
//
// The teacher's own event_bus.go is an unimplemented TDD placeholder
// (every method returns "not implemented"); this is a working
// implementation in its naming style (EventTypeID, handler signature,
// subscription handles) built from the same event_types.go vocabulary.
package events

import (
	"sync"
	"time"
)

// TypeID identifies a kind of event.
type TypeID uint32

const (
	EntityCreated TypeID = iota
	EntityDestroyed
	EntityParentChanged
	ComponentAdded
	ComponentRemoved
	ComponentUpdated
	EntityTagged
	EntityUntagged
	EntityNamed
	EntityActiveChanged
	HookPanicked
)

// Event is the payload delivered to subscribers. Field meaning depends on
// Type; unused fields are left at their zero value.
type Event struct {
	Type      TypeID
	Entity    uint64
	Component string
	OldParent uint64
	NewParent uint64
	OldValue  any
	NewValue  any
	Tag       string
	Name      string
	Timestamp time.Time
}

// Handler processes one event. Handlers run synchronously on the
// publisher's goroutine, in the order they subscribed (FIFO per
// subscriber, matching spec §4.D's ordering requirement).
type Handler func(Event)

// SubscriptionID identifies a single Subscribe call for later Unsubscribe.
type SubscriptionID uint64

// Bus is a single world's event dispatcher.
type Bus struct {
	mu          sync.Mutex
	nextSubID   SubscriptionID
	subscribers map[TypeID][]subscription
	allSubs     []subscription
}

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[TypeID][]subscription),
	}
}

// Subscribe registers handler for one event type, returning a handle for
// Unsubscribe. Subscribers for the same type are invoked in the order
// they subscribed.
func (b *Bus) Subscribe(eventType TypeID, handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	id := b.nextSubID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers handler for every event type published on this
// bus, used by the Lua "events" API surface's wildcard listeners.
func (b *Bus) SubscribeAll(handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	id := b.nextSubID
	b.allSubs = append(b.allSubs, subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a subscription by its handle. It is a no-op if the
// id is unknown or already removed.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t, subs := range b.subscribers {
		b.subscribers[t] = removeSub(subs, id)
	}
	b.allSubs = removeSub(b.allSubs, id)
}

func removeSub(subs []subscription, id SubscriptionID) []subscription {
	out := subs[:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Publish delivers ev synchronously to every subscriber of ev.Type, then
// to every wildcard subscriber, both in subscription order. Timestamp is
// stamped to now if left zero.
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.Lock()
	typed := make([]subscription, len(b.subscribers[ev.Type]))
	copy(typed, b.subscribers[ev.Type])
	wildcard := make([]subscription, len(b.allSubs))
	copy(wildcard, b.allSubs)
	b.mu.Unlock()

	for _, s := range typed {
		s.handler(ev)
	}
	for _, s := range wildcard {
		s.handler(ev)
	}
}
