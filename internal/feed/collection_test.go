package feed

import (
	"reflect"
	"testing"

	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/types"
)

func post(id string) types.Post {
	return types.Post{ID: id, Author: types.Author{ID: "u-" + id, Username: "user" + id}, Caption: id}
}

func loaded(ids ...string) *Collection {
	c := NewCollection(nil)
	posts := make([]types.Post, len(ids))
	for i, id := range ids {
		posts[i] = post(id)
	}
	c.Reset(posts)
	return c
}

func updated(seq uint64, p types.Post) events.Event {
	return events.Event{Seq: seq, Kind: events.Updated, Entity: p.Ref(), Post: &p}
}

func deleted(seq uint64, id string) events.Event {
	return events.Event{Seq: seq, Kind: events.Deleted, Entity: types.PostRef(id)}
}

func created(seq uint64, p types.Post) events.Event {
	return events.Event{Seq: seq, Kind: events.Created, Entity: p.Ref(), Post: &p}
}

func TestCreatedPrependsAndIgnoresDuplicates(t *testing.T) {
	c := loaded("A", "B")
	if got := c.Apply(created(1, post("N"))); got != Applied {
		t.Fatalf("expected applied, got %s", got)
	}
	if got := c.Apply(created(2, post("A"))); got != Duplicate {
		t.Fatalf("expected duplicate, got %s", got)
	}
	if want := []string{"N", "A", "B"}; !reflect.DeepEqual(c.IDs(), want) {
		t.Fatalf("expected %v, got %v", want, c.IDs())
	}
}

func TestDeletedAndUpdatedMissingAreNotFoundLocally(t *testing.T) {
	c := loaded("A")
	if got := c.Apply(deleted(1, "Z")); got != NotFoundLocally {
		t.Fatalf("expected not found locally, got %s", got)
	}
	if got := c.Apply(updated(2, post("Z"))); got != NotFoundLocally {
		t.Fatalf("expected not found locally, got %s", got)
	}
	if c.Len() != 1 {
		t.Fatalf("expected collection untouched")
	}
}

func TestUpdatedReplacesWholesaleInPlace(t *testing.T) {
	c := loaded("A", "B", "C")
	next := post("B")
	next.Caption = "edited"
	next.Likes = types.IDSet{"u1"}
	c.Apply(updated(1, next))

	got, ok := c.Get("B")
	if !ok || got.Caption != "edited" || !got.LikedBy("u1") {
		t.Fatalf("unexpected post %+v", got)
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(c.IDs(), want) {
		t.Fatalf("order changed: %v", c.IDs())
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	edited := post("B")
	edited.Caption = "edited"

	cases := []struct {
		name  string
		event func(seq uint64) events.Event
	}{
		{"updated", func(seq uint64) events.Event { return updated(seq, edited) }},
		{"deleted", func(seq uint64) events.Event { return deleted(seq, "B") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once := loaded("A", "B", "C")
			once.Apply(tc.event(1))

			sameSeq := loaded("A", "B", "C")
			sameSeq.Apply(tc.event(1))
			if got := sameSeq.Apply(tc.event(1)); got != Stale {
				t.Fatalf("expected redelivery to be stale, got %s", got)
			}

			retried := loaded("A", "B", "C")
			retried.Apply(tc.event(1))
			retried.Apply(tc.event(2))

			for name, c := range map[string]*Collection{"same seq": sameSeq, "retried": retried} {
				if !reflect.DeepEqual(c.Posts(), once.Posts()) {
					t.Fatalf("%s: expected %v, got %v", name, once.IDs(), c.IDs())
				}
			}
		})
	}
}

func TestSequenceOrderDeterminesFinalState(t *testing.T) {
	first := post("A")
	first.Caption = "one"
	second := post("A")
	second.Caption = "two"
	evts := []events.Event{
		created(1, post("N")),
		updated(2, first),
		deleted(3, "B"),
		updated(4, second),
	}

	c := loaded("A", "B")
	for _, e := range evts {
		c.Apply(e)
	}
	got, _ := c.Get("A")
	if got.Caption != "two" || !reflect.DeepEqual(c.IDs(), []string{"N", "A"}) {
		t.Fatalf("unexpected final state %v caption=%q", c.IDs(), got.Caption)
	}
	if c.LastSeq() != 4 {
		t.Fatalf("expected last seq 4, got %d", c.LastSeq())
	}
}

func TestAcceptFilterAndNonPostEvents(t *testing.T) {
	c := NewCollection(func(p types.Post) bool { return p.Author.ID == "me" })
	c.Reset(nil)

	other := post("X")
	if got := c.Apply(created(1, other)); got != Ignored {
		t.Fatalf("expected foreign post ignored, got %s", got)
	}
	mine := post("M")
	mine.Author.ID = "me"
	if got := c.Apply(created(2, mine)); got != Applied {
		t.Fatalf("expected own post applied, got %s", got)
	}
	profile := types.Profile{ID: "me"}
	if got := c.Apply(events.Event{Seq: 3, Kind: events.MembershipChanged, Entity: types.UserRef("me"), Profile: &profile}); got != Ignored {
		t.Fatalf("expected membership change ignored, got %s", got)
	}
}

func TestCollectionDoesNotAliasEventPayload(t *testing.T) {
	c := loaded("A")
	p := post("A")
	p.Likes = types.IDSet{"u1"}
	evt := updated(1, p)
	c.Apply(evt)
	evt.Post.Likes[0] = "mutated"

	got, _ := c.Get("A")
	if got.Likes[0] != "u1" {
		t.Fatalf("collection shares memory with event payload")
	}
}

func TestResetDropsDuplicateIDs(t *testing.T) {
	c := NewCollection(nil)
	c.Reset([]types.Post{post("A"), post("A"), post("B")})
	if !reflect.DeepEqual(c.IDs(), []string{"A", "B"}) {
		t.Fatalf("unexpected ids %v", c.IDs())
	}
}
