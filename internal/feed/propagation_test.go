package feed

import (
	"context"
	"reflect"
	"testing"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/apitest"
	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/types"
)

func TestCreateAppearsInFeedAndOwnGridWithoutRefetch(t *testing.T) {
	me := types.Profile{ID: "me", Username: "alice"}
	remote := apitest.NewRemote(me)
	remote.AddPost(types.Post{ID: "A", Author: types.Author{ID: "u2", Username: "bob"}})
	remote.AddPost(types.Post{ID: "B", Author: types.Author{ID: "me", Username: "alice"}})
	bus := events.New()
	coord := coordinator.New(remote, bus)

	home := NewFeed(bus, remote.Feed)
	grid := NewProfileGrid(bus, types.Author{ID: me.ID, Username: me.Username}, func(ctx context.Context) ([]types.Post, error) {
		return remote.UserPosts(ctx, me.Username)
	})
	other := NewProfileGrid(bus, types.Author{ID: "u2", Username: "bob"}, func(ctx context.Context) ([]types.Post, error) {
		return remote.UserPosts(ctx, "bob")
	})
	explore := NewExplore(bus, remote.Explore)
	for _, s := range []*Subscriber{home, grid, other, explore} {
		if err := s.Mount(context.Background()); err != nil {
			t.Fatalf("mount %s: %v", s.Name(), err)
		}
	}
	feedCalls, gridCalls := remote.Calls("Feed"), remote.Calls("UserPosts")

	post, err := coord.CreatePost(context.Background(), api.NewPost{
		Image:   api.Upload{Filename: "x.png", Data: []byte("x")},
		Caption: "fresh",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := home.IDs(); !reflect.DeepEqual(got, []string{post.ID, "A", "B"}) {
		t.Fatalf("feed: expected new post at head, got %v", got)
	}
	if got := grid.IDs(); !reflect.DeepEqual(got, []string{post.ID, "B"}) {
		t.Fatalf("own grid: expected new post at head, got %v", got)
	}
	if got := other.IDs(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("other grid should be untouched, got %v", got)
	}
	if got := explore.IDs(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("explore should ignore created, got %v", got)
	}
	if remote.Calls("Feed") != feedCalls || remote.Calls("UserPosts") != gridCalls {
		t.Fatalf("lists re-fetched after create")
	}
}

func TestDeletePropagatesToEveryList(t *testing.T) {
	me := types.Profile{ID: "me", Username: "alice"}
	remote := apitest.NewRemote(me)
	for _, id := range []string{"A", "B", "C"} {
		remote.AddPost(types.Post{ID: id, Author: types.Author{ID: "me", Username: "alice"}})
	}
	bus := events.New()
	coord := coordinator.New(remote, bus)

	home := NewFeed(bus, remote.Feed)
	explore := NewExplore(bus, remote.Explore)
	for _, s := range []*Subscriber{home, explore} {
		if err := s.Mount(context.Background()); err != nil {
			t.Fatalf("mount: %v", err)
		}
	}

	if err := coord.DeletePost(context.Background(), "B"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, s := range []*Subscriber{home, explore} {
		if got := s.IDs(); !reflect.DeepEqual(got, []string{"A", "C"}) {
			t.Fatalf("%s: expected [A C], got %v", s.Name(), got)
		}
	}
}

func TestFailedLikeLeavesListsUntouched(t *testing.T) {
	remote := apitest.NewRemote(types.Profile{ID: "me"})
	remote.AddPost(types.Post{ID: "A", Likes: types.IDSet{"u1"}})
	remote.Fail["ToggleLike"] = &api.APIError{Status: 503, Message: "down"}
	bus := events.New()
	coord := coordinator.New(remote, bus)
	home := NewFeed(bus, remote.Feed)
	if err := home.Mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	before := home.Posts()

	if _, err := coord.ToggleLike(context.Background(), "A"); err == nil {
		t.Fatalf("expected failure")
	}
	if !reflect.DeepEqual(home.Posts(), before) {
		t.Fatalf("list changed after failed mutation")
	}
}
