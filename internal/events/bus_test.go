package events

import (
	"sync"
	"testing"

	"github.com/adamavenir/gram/internal/types"
)

func TestPublishAssignsIncreasingSequence(t *testing.T) {
	bus := New()
	var seen []uint64
	bus.Subscribe(func(e Event) { seen = append(seen, e.Seq) })

	for i := 0; i < 5; i++ {
		evt := bus.Publish(Event{Kind: Updated, Entity: types.PostRef("p1")})
		if evt.Seq != uint64(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, evt.Seq)
		}
	}
	for i, seq := range seen {
		if seq != uint64(i+1) {
			t.Fatalf("expected delivery order 1..5, got %v", seen)
		}
	}
	if stats := bus.Stats(); stats.LastSeq != 5 || stats.Subscribers != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestFanOutToEverySubscriber(t *testing.T) {
	bus := New()
	counts := make([]int, 3)
	for i := range counts {
		i := i
		bus.Subscribe(func(Event) { counts[i]++ })
	}
	bus.Publish(Event{Kind: Created, Entity: types.PostRef("p1")})
	for i, n := range counts {
		if n != 1 {
			t.Fatalf("subscriber %d got %d events", i, n)
		}
	}
}

func TestReentrantPublishKeepsOrderPerSubscriber(t *testing.T) {
	bus := New()
	var first, second []uint64
	bus.Subscribe(func(e Event) {
		first = append(first, e.Seq)
		if e.Seq == 1 {
			bus.Publish(Event{Kind: Updated, Entity: types.PostRef("p2")})
		}
	})
	bus.Subscribe(func(e Event) { second = append(second, e.Seq) })

	bus.Publish(Event{Kind: Updated, Entity: types.PostRef("p1")})

	want := []uint64{1, 2}
	for name, got := range map[string][]uint64{"first": first, "second": second} {
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("%s subscriber saw %v, want %v", name, got, want)
		}
	}
}

func TestUnsubscribeMidDispatchStopsDelivery(t *testing.T) {
	bus := New()
	var unsubscribeB func()
	var gotB int
	bus.Subscribe(func(Event) { unsubscribeB() })
	unsubscribeB = bus.Subscribe(func(Event) { gotB++ })

	bus.Publish(Event{Kind: Deleted, Entity: types.PostRef("p1")})
	bus.Publish(Event{Kind: Deleted, Entity: types.PostRef("p2")})

	if gotB != 0 {
		t.Fatalf("expected unsubscribed handler to receive nothing, got %d", gotB)
	}
	if stats := bus.Stats(); stats.Subscribers != 1 {
		t.Fatalf("expected 1 subscriber left, got %d", stats.Subscribers)
	}
	unsubscribeB()
}

func TestLateSubscriberGetsNoReplay(t *testing.T) {
	bus := New()
	bus.Publish(Event{Kind: Created, Entity: types.PostRef("p1")})

	var got []Event
	bus.Subscribe(func(e Event) { got = append(got, e) })
	if len(got) != 0 {
		t.Fatalf("expected no replay, got %v", got)
	}
	bus.Publish(Event{Kind: Created, Entity: types.PostRef("p2")})
	if len(got) != 1 || got[0].Seq != 2 {
		t.Fatalf("expected only seq 2, got %v", got)
	}
}

func TestConcurrentPublishersPreserveSequenceOrder(t *testing.T) {
	bus := New()
	var mu sync.Mutex
	var seen []uint64
	bus.Subscribe(func(e Event) {
		mu.Lock()
		seen = append(seen, e.Seq)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(Event{Kind: Updated, Entity: types.PostRef("p")})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 400 {
		t.Fatalf("expected 400 deliveries, got %d", len(seen))
	}
	for i, seq := range seen {
		if seq != uint64(i+1) {
			t.Fatalf("delivery %d had seq %d", i, seq)
		}
	}
}
