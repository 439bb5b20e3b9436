package engine

import (
	"sync"
	"time"
)

// SubscriberID uniquely identifies an EventBus subscriber.
type SubscriberID uint64

// SubscriberFunc is a callback invoked when an event is emitted.
type SubscriberFunc func(Event)

type subscription struct {
	id   SubscriberID
	fn   SubscriberFunc
	only map[EventType]struct{}
}

// EventBus provides synchronous, typed event dispatch. Subscribers run in
// registration order on the emitting goroutine; handlers must not block.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscription
	lastID SubscriberID
}

// NewEventBus creates a new EventBus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a callback for all event types.
func (eb *EventBus) Subscribe(fn SubscriberFunc) SubscriberID {
	return eb.add(fn, nil)
}

// SubscribeTypes registers a callback only for the given event types.
func (eb *EventBus) SubscribeTypes(fn SubscriberFunc, types ...EventType) SubscriberID {
	only := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		only[t] = struct{}{}
	}
	return eb.add(fn, only)
}

func (eb *EventBus) add(fn SubscriberFunc, only map[EventType]struct{}) SubscriberID {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.lastID++
	eb.subs = append(eb.subs, subscription{id: eb.lastID, fn: fn, only: only})
	return eb.lastID
}

// Unsubscribe removes a subscriber by ID.
func (eb *EventBus) Unsubscribe(id SubscriberID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, s := range eb.subs {
		if s.id == id {
			eb.subs = append(eb.subs[:i], eb.subs[i+1:]...)
			return
		}
	}
}

// Emit dispatches an event synchronously to all matching subscribers.
func (eb *EventBus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	eb.mu.RLock()
	subs := make([]subscription, len(eb.subs))
	copy(subs, eb.subs)
	eb.mu.RUnlock()

	for _, s := range subs {
		if s.only != nil {
			if _, ok := s.only[evt.Type]; !ok {
				continue
			}
		}
		s.fn(evt)
	}
}
