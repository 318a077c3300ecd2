// Package event implements the synchronous publish/subscribe channel the
// managers use to announce trip and person changes.
package event

import "sync"

// Kind identifies what happened.
type Kind int

const (
	TripAdded Kind = iota
	TripRemoved
	TripUpdated
	PersonAdded
	PersonRemoved
	PersonUpdated
)

func (k Kind) String() string {
	switch k {
	case TripAdded:
		return "trip_added"
	case TripRemoved:
		return "trip_removed"
	case TripUpdated:
		return "trip_updated"
	case PersonAdded:
		return "person_added"
	case PersonRemoved:
		return "person_removed"
	case PersonUpdated:
		return "person_updated"
	}
	return "unknown"
}

// Event carries the kind of change and the ID of the trip or person.
// PrevID is set on updates that changed the ID.
type Event struct {
	Kind   Kind
	ID     string
	PrevID string
}

// Renamed reports whether an update moved the record to a new ID.
func (e Event) Renamed() bool {
	return e.PrevID != "" && e.PrevID != e.ID
}

// Handler receives events. It runs on the publisher's goroutine.
type Handler func(Event)

// Bus fans events out to subscribers in subscription order.
// The zero value is ready to use.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn Handler
}

// Subscribe registers fn and returns a function that removes it again.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every subscriber before returning. A nil *Bus
// drops events.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}
