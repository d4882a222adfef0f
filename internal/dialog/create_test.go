package dialog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/apitest"
	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/feed"
	"github.com/adamavenir/gram/internal/types"
)

func TestInsertEmoji(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		start, end int
		wantText   string
		wantCursor int
	}{
		{"append", "hi", 2, 2, "hi🔥", 3},
		{"replace selection", "hello world", 6, 11, "hello 🔥", 7},
		{"middle", "ab", 1, 1, "a🔥b", 2},
		{"clamped", "ab", -4, 99, "🔥", 1},
		{"multibyte text", "héllo", 2, 2, "hé🔥llo", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, cursor := InsertEmoji(tc.text, "🔥", tc.start, tc.end)
			if got != tc.wantText || cursor != tc.wantCursor {
				t.Fatalf("expected %q@%d, got %q@%d", tc.wantText, tc.wantCursor, got, cursor)
			}
		})
	}
}

func TestInsertEmojiTruncatesAtLimit(t *testing.T) {
	full := strings.Repeat("a", core.MaxCaptionLength)
	got, cursor := InsertEmoji(full, "🔥", 0, 0)
	if core.RuneLen(got) != core.MaxCaptionLength {
		t.Fatalf("expected %d runes, got %d", core.MaxCaptionLength, core.RuneLen(got))
	}
	if !strings.HasPrefix(got, "🔥") || cursor != 1 {
		t.Fatalf("expected emoji at head with cursor 1, got cursor %d", cursor)
	}

	_, cursor = InsertEmoji(full, "🔥", core.MaxCaptionLength, core.MaxCaptionLength)
	if cursor != core.MaxCaptionLength {
		t.Fatalf("expected cursor clamped to limit, got %d", cursor)
	}
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func TestCreateDialogShareFlow(t *testing.T) {
	me := types.Profile{ID: "me", Username: "alice"}
	remote := apitest.NewRemote(me)
	remote.AddPost(types.Post{ID: "A", Author: types.Author{ID: "me", Username: "alice"}})
	bus := events.New()
	coord := coordinator.New(remote, bus)

	home := feed.NewFeed(bus, remote.Feed)
	grid := feed.NewProfileGrid(bus, types.Author{ID: "me", Username: "alice"}, func(ctx context.Context) ([]types.Post, error) {
		return remote.UserPosts(ctx, "alice")
	})
	for _, s := range []*feed.Subscriber{home, grid} {
		if err := s.Mount(context.Background()); err != nil {
			t.Fatalf("mount: %v", err)
		}
	}

	d := NewCreateDialog(coord)
	d.Open()
	if d.CanShare() {
		t.Fatalf("expected share disabled without image")
	}
	var validation *coordinator.ValidationError
	if _, err := d.Begin(); !errors.As(err, &validation) {
		t.Fatalf("expected validation error without image, got %v", err)
	}

	if err := d.SetImage(writeImage(t)); err != nil {
		t.Fatalf("set image: %v", err)
	}
	d.SetCaption("  sunset  ")
	if !d.CanShare() {
		t.Fatalf("expected share enabled")
	}

	run, err := d.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if d.CanShare() || d.State() != Submitting {
		t.Fatalf("expected share disabled while submitting")
	}
	if err := d.Close(); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("expected close refused, got %v", err)
	}
	runErr := run(context.Background())
	d.Finish(runErr)
	if runErr != nil {
		t.Fatalf("share: %v", runErr)
	}

	created := d.Created()
	if created == nil || created.Caption != "sunset" {
		t.Fatalf("unexpected created post %+v", created)
	}
	if d.State() != Closed || d.Caption() != "" {
		t.Fatalf("expected closed and cleared, got %s %q", d.State(), d.Caption())
	}
	for _, s := range []*feed.Subscriber{home, grid} {
		if want := []string{created.ID, "A"}; !reflect.DeepEqual(s.IDs(), want) {
			t.Fatalf("%s: expected %v, got %v", s.Name(), want, s.IDs())
		}
	}
	if remote.Calls("Feed") != 1 || remote.Calls("UserPosts") != 1 {
		t.Fatalf("expected no re-fetch")
	}
}

func TestCreateDialogFailureKeepsDraft(t *testing.T) {
	remote := apitest.NewRemote(types.Profile{ID: "me"})
	remote.Fail["CreatePost"] = &api.APIError{Status: 413, Message: "image too large"}
	d := NewCreateDialog(coordinator.New(remote, events.New()))
	d.Open()
	d.SetUpload("x.png", api.Upload{Filename: "x.png", Data: []byte("x")})
	d.SetCaption("keep me")

	err := d.Submit(context.Background())
	var remoteErr *coordinator.RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Status != 413 {
		t.Fatalf("expected 413 RemoteError, got %v", err)
	}
	if d.State() != Ready || d.Err() == nil {
		t.Fatalf("expected ready with error, got %s", d.State())
	}
	if d.Caption() != "keep me" || d.ImagePath() != "x.png" {
		t.Fatalf("expected draft kept")
	}
	d.Dismiss()
	if d.Err() != nil {
		t.Fatalf("expected error dismissed")
	}
}

func TestCreateDialogCaptionLimit(t *testing.T) {
	d := NewCreateDialog(nil)
	d.Open()
	d.SetCaption(strings.Repeat("é", core.MaxCaptionLength+10))
	if core.RuneLen(d.Caption()) != core.MaxCaptionLength || d.Remaining() != 0 {
		t.Fatalf("expected caption cut to limit, got %d", core.RuneLen(d.Caption()))
	}
	cursor := d.InsertEmoji("😀", 0, 0)
	if cursor != 1 || core.RuneLen(d.Caption()) != core.MaxCaptionLength {
		t.Fatalf("unexpected insert result cursor=%d len=%d", cursor, core.RuneLen(d.Caption()))
	}
}
