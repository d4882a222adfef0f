package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/apitest"
	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/types"
)

func editorFixture(t *testing.T) (*ProfileEditor, *apitest.Remote, *events.Bus) {
	t.Helper()
	remote := apitest.NewRemote(types.Profile{ID: "me", Username: "alice", About: "hi"})
	bus := events.New()
	editor := NewProfileEditor(remote, coordinator.New(remote, bus))
	if err := editor.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return editor, remote, bus
}

func TestProfileEditorSave(t *testing.T) {
	editor, remote, bus := editorFixture(t)
	if editor.Dirty() {
		t.Fatalf("expected clean draft after load")
	}

	var seen []events.Event
	bus.Subscribe(func(e events.Event) { seen = append(seen, e) })

	d := editor.Draft()
	d.Username = "alice2"
	d.About = strings.Repeat("x", core.MaxAboutLength+5)
	d.AvatarPath = writeImage(t)
	editor.SetDraft(d)
	if !editor.Dirty() {
		t.Fatalf("expected dirty draft")
	}
	if core.RuneLen(editor.Draft().About) != core.MaxAboutLength {
		t.Fatalf("expected about cut to limit")
	}

	if err := editor.Submit(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if editor.State() != Closed {
		t.Fatalf("expected closed after save, got %s", editor.State())
	}
	if remote.Calls("UpdateMe") != 1 || remote.Calls("UpdateAvatar") != 1 || remote.Calls("Me") != 2 {
		t.Fatalf("unexpected calls me=%d update=%d avatar=%d", remote.Calls("Me"), remote.Calls("UpdateMe"), remote.Calls("UpdateAvatar"))
	}
	p := editor.Profile()
	if p.Username != "alice2" || p.Avatar != "/uploads/photo.png" {
		t.Fatalf("expected reloaded profile, got %+v", p)
	}
	if len(seen) != 2 {
		t.Fatalf("expected two profile events, got %d", len(seen))
	}
}

func TestProfileEditorSkipsAvatarWhenUnset(t *testing.T) {
	editor, remote, _ := editorFixture(t)
	d := editor.Draft()
	d.Website = "https://alice.example"
	editor.SetDraft(d)
	if err := editor.Submit(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if remote.Calls("UpdateAvatar") != 0 {
		t.Fatalf("expected no avatar upload")
	}
}

func TestProfileEditorFailureKeepsDraft(t *testing.T) {
	editor, remote, _ := editorFixture(t)
	remote.Fail["UpdateMe"] = &api.APIError{Status: 409, Message: "username taken"}
	d := editor.Draft()
	d.Username = "bob"
	editor.SetDraft(d)

	err := editor.Submit(context.Background())
	var remoteErr *coordinator.RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Message != "username taken" {
		t.Fatalf("expected username taken, got %v", err)
	}
	if editor.State() != Ready || editor.Draft().Username != "bob" {
		t.Fatalf("expected draft kept in ready state")
	}
}

func TestProfileEditorRejectsBlankUsername(t *testing.T) {
	editor, remote, _ := editorFixture(t)
	d := editor.Draft()
	d.Username = "  "
	editor.SetDraft(d)
	var validation *coordinator.ValidationError
	if err := editor.Submit(context.Background()); !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if remote.Calls("UpdateMe") != 0 {
		t.Fatalf("validation error reached the network")
	}
}
