// Package lifecycle is a synchronous, in-order broadcast of game lifecycle
// transitions. Components holding temporary hooks subscribe and release them
// when one-time configuration is complete.
package lifecycle

import "sync"

// Kind identifies a lifecycle transition.
type Kind int

const (
	// RuntimeInitializing is published once the embedded runtime has been
	// initialised and the managed handoff is about to happen.
	RuntimeInitializing Kind = iota
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case RuntimeInitializing:
		return "runtime-initializing"
	default:
		return "unknown"
	}
}

// Event is delivered to every subscriber.
type Event struct {
	Kind   Kind
	Sender any
}

// Listener receives events.
type Listener func(Event)

// Subscription identifies a registered listener.
type Subscription uint64

type entry struct {
	id       Subscription
	listener Listener
}

// Bus fans events out to listeners in subscription order.
type Bus struct {
	mu        sync.Mutex
	nextID    Subscription
	listeners []entry
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers listener and returns its handle.
func (b *Bus) Subscribe(listener Listener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners = append(b.listeners, entry{id: b.nextID, listener: listener})
	return b.nextID
}

// Unsubscribe removes the listener registered under s, if any.
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.listeners {
		if e.id == s {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Publish delivers an event of kind k to every listener before returning.
// Listeners may subscribe or unsubscribe while being called; changes apply to
// the next Publish.
func (b *Bus) Publish(sender any, k Kind) {
	b.mu.Lock()
	snapshot := make([]entry, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	ev := Event{Kind: k, Sender: sender}
	for _, e := range snapshot {
		e.listener(ev)
	}
}
