// Package events implements an in-process notifier for mission events.
package events

import (
	"sync"

	"go.trai.ch/armada/internal/core/domain"
)

// Bus implements ports.Notifier with synchronous fan-out to subscribers.
// Publish delivers under a lock, so each subscriber observes the events of a
// mission in publish order.
type Bus struct {
	mu   sync.Mutex
	subs []func(domain.Event)
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events. Handlers must not
// block; they run on the publisher's goroutine.
func (b *Bus) Subscribe(fn func(domain.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers the event to every subscriber, in subscription order.
func (b *Bus) Publish(event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, fn := range b.subs {
		fn(event)
	}
}
