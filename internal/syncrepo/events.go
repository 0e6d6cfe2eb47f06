package syncrepo

import "sync"

// EventKind distinguishes local mutations.
type EventKind string

const (
	EventWrite  EventKind = "write"
	EventDelete EventKind = "delete"
)

// Event announces a local record mutation to subscribers.
type Event struct {
	Collection string
	ID         string
	Kind       EventKind
}

// Bus fans record-changed events out to subscribers keyed by collection.
// Delivery is best-effort: a subscriber that stops draining its channel loses
// events rather than blocking writers.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan Event
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Subscribe returns a channel of events for one collection and a cancel
// function that closes the subscription.
func (b *Bus) Subscribe(collection string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]chan Event)
	}
	id := b.next
	b.next++
	b.subs[collection][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[collection][id]; ok {
			delete(b.subs[collection], id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to the collection's subscribers without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[e.Collection] {
		select {
		case ch <- e:
		default:
		}
	}
}
