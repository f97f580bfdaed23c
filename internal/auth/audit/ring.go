package audit

import (
	"context"
	"sync"
)

// Ring keeps the most recent events in a fixed-capacity buffer for
// pattern detection (repeated failures, anomaly counts). It is an injected
// dependency rather than process-global state, so multiple instances can be
// composed or replaced with a shared store.
type Ring struct {
	mu     sync.Mutex
	events []Event
	next   int
	filled bool
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 256
	}
	return &Ring{events: make([]Event, capacity)}
}

func (r *Ring) Record(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = ev
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.filled = true
	}
}

// Recent returns the buffered events, oldest first.
func (r *Ring) Recent() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.filled {
		out := make([]Event, r.next)
		copy(out, r.events[:r.next])
		return out
	}

	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	out = append(out, r.events[:r.next]...)
	return out
}

// CountByType tallies buffered events per type, a cheap primitive for
// brute-force heuristics in the calling layer.
func (r *Ring) CountByType() map[EventType]int {
	counts := make(map[EventType]int)
	for _, ev := range r.Recent() {
		counts[ev.Type]++
	}
	return counts
}
