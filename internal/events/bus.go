package events

import (
	"sync"
	"sync/atomic"

	"github.com/adamavenir/gram/internal/types"
)

// Kind is the mutation an event describes.
type Kind string

const (
	Created           Kind = "created"
	Deleted           Kind = "deleted"
	Updated           Kind = "updated"
	MembershipChanged Kind = "membership-changed"
)

// Event is one authoritative mutation. Seq is assigned by the Bus.
type Event struct {
	Seq     uint64
	Kind    Kind
	Entity  types.Ref
	Post    *types.Post
	Profile *types.Profile
}

// Handler receives events. Handlers run on the publishing goroutine and must
// not block.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
	active  atomic.Bool
}

// Stats describes the bus for diagnostics.
type Stats struct {
	Subscribers int
	LastSeq     uint64
}

// Bus fans events out to subscribers in publish order. Events published while
// a dispatch is running, from a handler or from another goroutine, are queued
// and delivered by the goroutine already dispatching, so every subscriber
// sees events in sequence order.
type Bus struct {
	mu          sync.Mutex
	seq         uint64
	nextID      uint64
	subs        []*subscription
	queue       []Event
	dispatching bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns a function that removes it. The returned
// function is safe to call more than once and from inside a handler; once it
// returns, h receives nothing further.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, handler: h}
	sub.active.Store(true)
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return func() {
		if !sub.active.Swap(false) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == sub.id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				break
			}
		}
	}
}

// Publish stamps evt with the next sequence number and delivers it. When
// another dispatch is already running the event is queued behind it and
// Publish returns before delivery.
func (b *Bus) Publish(evt Event) Event {
	b.mu.Lock()
	b.seq++
	evt.Seq = b.seq
	b.queue = append(b.queue, evt)
	if b.dispatching {
		b.mu.Unlock()
		return evt
	}
	b.dispatching = true
	b.drainLocked()
	b.mu.Unlock()
	return evt
}

// drainLocked is entered with b.mu held and returns with it held.
func (b *Bus) drainLocked() {
	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		subs := make([]*subscription, len(b.subs))
		copy(subs, b.subs)

		b.mu.Unlock()
		for _, sub := range subs {
			if !sub.active.Load() {
				continue
			}
			sub.handler(next)
		}
		b.mu.Lock()
	}
	b.queue = nil
	b.dispatching = false
}

// Stats returns the current subscriber count and last sequence number.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Subscribers: len(b.subs), LastSeq: b.seq}
}
