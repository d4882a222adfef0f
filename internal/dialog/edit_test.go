package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/adamavenir/gram/internal/apitest"
	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/types"
)

func TestEditDialogSavesTrimmedCaption(t *testing.T) {
	remote := apitest.NewRemote(types.Profile{ID: "me"})
	post := types.Post{ID: "p1", Author: types.Author{ID: "me"}, Caption: "old"}
	remote.AddPost(post)
	bus := events.New()
	var updated []string
	bus.Subscribe(func(e events.Event) {
		if e.Kind == events.Updated && e.Post != nil {
			updated = append(updated, e.Post.Caption)
		}
	})

	d := NewEditDialog(coordinator.New(remote, bus))
	d.Open(post)
	if d.Changed() {
		t.Fatalf("expected fresh draft to be unchanged")
	}
	d.SetCaption("  new caption  ")
	if !d.Changed() {
		t.Fatalf("expected draft to be changed")
	}
	if err := d.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if d.State() != Closed {
		t.Fatalf("expected closed after save, got %s", d.State())
	}
	if saved := d.Saved(); saved == nil || saved.Caption != "new caption" {
		t.Fatalf("expected saved caption %q, got %+v", "new caption", saved)
	}
	if len(updated) != 1 || updated[0] != "new caption" {
		t.Fatalf("expected one updated event, got %v", updated)
	}
}

func TestEditDialogKeepsDraftOnFailure(t *testing.T) {
	remote := apitest.NewRemote(types.Profile{ID: "me"})
	post := types.Post{ID: "p1", Caption: "old"}
	remote.AddPost(post)
	remote.Fail["UpdateCaption"] = errors.New("boom")

	d := NewEditDialog(coordinator.New(remote, events.New()))
	d.Open(post)
	d.SetCaption("draft")
	if err := d.Submit(context.Background()); err == nil {
		t.Fatalf("expected save error")
	}
	if d.State() != Ready {
		t.Fatalf("expected ready after failure, got %s", d.State())
	}
	if d.Err() == nil {
		t.Fatalf("expected error to be kept for display")
	}
	if d.Caption() != "draft" {
		t.Fatalf("expected draft to survive, got %q", d.Caption())
	}

	d.Dismiss()
	if d.Err() != nil {
		t.Fatalf("expected dismiss to clear the error")
	}
}

func TestEditDialogRefusesCloseWhileSaving(t *testing.T) {
	remote := apitest.NewRemote(types.Profile{ID: "me"})
	post := types.Post{ID: "p1", Caption: "old"}
	remote.AddPost(post)

	d := NewEditDialog(coordinator.New(remote, events.New()))
	d.Open(post)
	run, err := d.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := d.Close(); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("expected ErrSubmitting, got %v", err)
	}
	d.Finish(run(context.Background()))
	if d.State() != Closed {
		t.Fatalf("expected closed, got %s", d.State())
	}
}
