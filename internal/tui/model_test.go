package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/adamavenir/gram/internal/app"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/dialog"
	"github.com/adamavenir/gram/internal/types"
	tea "github.com/charmbracelet/bubbletea"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

type fakeServer struct {
	deletes atomic.Int32
	deleted atomic.Bool
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	bob := map[string]any{"_id": "u2", "username": "bob"}
	alice := map[string]any{"_id": "me", "username": "alice"}
	postA := map[string]any{"_id": "A", "author": bob, "caption": "sunset over the bay", "likes": []string{}}
	postB := map[string]any{"_id": "B", "author": alice, "caption": "my lunch", "likes": []string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"_id": "me", "username": "alice", "following": []string{"u2"}})
	})
	mux.HandleFunc("GET /api/users/alice", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"user": alice, "stats": map[string]int{"posts": 1, "followers": 3, "following": 1}})
	})
	mux.HandleFunc("GET /api/posts/feed", func(w http.ResponseWriter, r *http.Request) {
		if f.deleted.Load() {
			writeJSON(t, w, []any{postA})
			return
		}
		writeJSON(t, w, []any{postA, postB})
	})
	mux.HandleFunc("GET /api/posts/explore", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []any{postA})
	})
	mux.HandleFunc("GET /api/posts/user/alice", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []any{postB})
	})
	mux.HandleFunc("GET /api/posts/B", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, postB)
	})
	mux.HandleFunc("DELETE /api/posts/B", func(w http.ResponseWriter, r *http.Request) {
		f.deletes.Add(1)
		f.deleted.Store(true)
		writeJSON(t, w, map[string]string{"message": "deleted"})
	})
	return mux
}

func newTestModel(t *testing.T) (*Model, *fakeServer) {
	t.Helper()
	t.Setenv("GRAM_TOKEN", "")
	t.Setenv("GRAM_CONFIG_DIR", t.TempDir())
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	cfg := core.DefaultConfig()
	cfg.APIURL = srv.URL + "/api"
	cfg.WebURL = "https://gram.example"
	s, err := app.New(cfg, nil, app.WithCredentials(&core.Credentials{Token: "tok"}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("open session: %v", err)
	}

	m := NewModel(context.Background(), Options{Session: s})
	t.Cleanup(m.Close)
	m.clipboard = &fakeClipboard{}
	run(t, m, m.Init())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, fake
}

// run executes cmd and feeds the messages this package produces back into
// Update. Cursor blinks and ticks are dropped so the loop ends.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(t, m, c)
		}
	case loadedMsg, submitResultMsg, actionResultMsg, refreshMsg:
		_, next := m.Update(msg)
		run(t, m, next)
	}
}

func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := m.Update(msg)
		run(t, m, cmd)
	}
}

type fakeClipboard struct {
	text string
}

func (f *fakeClipboard) WriteAll(text string) error {
	f.text = text
	return nil
}

func TestModelMountsListsAndRenders(t *testing.T) {
	m, _ := newTestModel(t)
	if want := []string{"A", "B"}; !reflect.DeepEqual(m.feed.IDs(), want) {
		t.Fatalf("expected feed %v, got %v", want, m.feed.IDs())
	}
	if want := []string{"B"}; !reflect.DeepEqual(m.grid.IDs(), want) {
		t.Fatalf("expected grid %v, got %v", want, m.grid.IDs())
	}
	view := m.View()
	for _, want := range []string{"sunset over the bay", "@bob", "Feed", "@alice"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q", want)
		}
	}

	press(t, m, "3")
	if m.tab != tabProfile {
		t.Fatalf("expected profile tab, got %d", m.tab)
	}
	if view := m.View(); !strings.Contains(view, "3 followers") {
		t.Fatalf("expected profile header stats in view")
	}
}

func TestSheetDeleteRemovesPostEverywhere(t *testing.T) {
	m, fake := newTestModel(t)
	press(t, m, "j", "a")
	if m.modal != modalSheet {
		t.Fatalf("expected actions sheet, got modal %d", m.modal)
	}
	items := m.sheet.Items()
	if len(items) == 0 || items[0].Action != dialog.ActionDelete {
		t.Fatalf("expected delete first for own post, got %+v", items)
	}

	press(t, m, "enter")
	if m.modal != modalNone {
		t.Fatalf("expected sheet closed after delete, got modal %d", m.modal)
	}
	if fake.deletes.Load() != 1 {
		t.Fatalf("expected one delete request, got %d", fake.deletes.Load())
	}
	if want := []string{"A"}; !reflect.DeepEqual(m.feed.IDs(), want) {
		t.Fatalf("expected feed %v, got %v", want, m.feed.IDs())
	}
	if len(m.grid.IDs()) != 0 {
		t.Fatalf("expected empty grid, got %v", m.grid.IDs())
	}
	if m.selected[tabFeed] != 0 {
		t.Fatalf("expected selection clamped, got %d", m.selected[tabFeed])
	}
	if m.status != "Post deleted" {
		t.Fatalf("expected delete status, got %q", m.status)
	}
}

func TestSheetOffersNoDeleteForOthersPost(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "a")
	for _, item := range m.sheet.Items() {
		if item.Action == dialog.ActionDelete || item.Action == dialog.ActionEdit {
			t.Fatalf("unexpected owner item %q on another user's post", item.Label)
		}
	}
	press(t, m, "esc")
	if m.modal != modalNone {
		t.Fatalf("expected sheet closed")
	}
}

func TestSheetCopyLink(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "a")
	for i, item := range m.sheet.Items() {
		if item.Action == dialog.ActionCopyLink {
			m.sheetIndex = i
		}
	}
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cb := m.clipboard.(*fakeClipboard)
	if cb.text != core.PostURL("https://gram.example", "A") {
		t.Fatalf("unexpected copied link %q", cb.text)
	}
	if m.modal != modalNone {
		t.Fatalf("expected sheet closed after copy")
	}
}

func TestCreateWithoutImageKeepsModalOpen(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "n")
	if m.modal != modalCreate {
		t.Fatalf("expected create modal")
	}
	press(t, m, "ctrl+s")
	if m.modal != modalCreate || !m.statusErr {
		t.Fatalf("expected validation error with modal open, got modal %d status %q", m.modal, m.status)
	}
	press(t, m, "esc")
	if m.modal != modalNone {
		t.Fatalf("expected create modal closed")
	}
}

func TestEmojiPickerInsertsAtCursor(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "n")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	press(t, m, "hi")
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	if !m.emojiOpen {
		t.Fatalf("expected emoji picker open")
	}
	press(t, m, "enter")
	want := "hi" + dialog.Emojis[0]
	if m.create.Caption() != want || m.captionInput.Value() != want {
		t.Fatalf("expected caption %q, got dialog %q input %q", want, m.create.Caption(), m.captionInput.Value())
	}
}

func TestAlignLine(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
		width int
		want  string
	}{
		{name: "pads", left: "ab", right: "cd", width: 8, want: "ab    cd"},
		{name: "no right", left: "ab", right: "", width: 8, want: "ab"},
		{name: "too narrow", left: "abcd", right: "efgh", width: 8, want: "abcd"},
		{name: "zero width", left: "ab", right: "cd", width: 0, want: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := alignLine(tt.left, tt.right, tt.width); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestColorForUserIsStable(t *testing.T) {
	if colorForUser("Bob") != colorForUser(" bob ") {
		t.Fatalf("expected case and space insensitive colour")
	}
	if colorForUser("") != dimColor {
		t.Fatalf("expected dim colour for empty username")
	}
}

func TestSharedBody(t *testing.T) {
	if got := sharedBody(types.Post{}); got != "Your photo is live" {
		t.Fatalf("unexpected body %q", got)
	}
	long := types.Post{Caption: strings.Repeat("a ", 100)}
	if got := sharedBody(long); core.RuneLen(got) != notifyBodyLength {
		t.Fatalf("expected body cut to %d runes, got %d", notifyBodyLength, core.RuneLen(got))
	}
}

func TestNotifierIgnoresChangesBeforeAttach(t *testing.T) {
	n := &notifier{}
	n.changed()
	if n.pending.Load() {
		t.Fatalf("expected no pending send without a program")
	}
}

func TestDetailStaysOpenWhileDeleting(t *testing.T) {
	m, fake := newTestModel(t)
	press(t, m, "j", "enter")
	if m.modal != modalDetail || m.detail.State() != dialog.Ready {
		t.Fatalf("expected ready detail, got modal %d state %s", m.modal, m.detail.State())
	}

	// Start the delete but hold its command.
	_, deleteCmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if m.detail.State() != dialog.Submitting {
		t.Fatalf("expected submitting, got %s", m.detail.State())
	}

	for _, key := range []string{"p", "a", "esc"} {
		press(t, m, key)
		if m.modal != modalDetail {
			t.Fatalf("%s: expected detail to stay open, got modal %d", key, m.modal)
		}
		if m.detail.State() != dialog.Submitting {
			t.Fatalf("%s: expected viewer still submitting, got %s", key, m.detail.State())
		}
		if m.status != deletingStatus {
			t.Fatalf("%s: expected wait status, got %q", key, m.status)
		}
	}
	if m.tab != tabFeed {
		t.Fatalf("expected to stay on the feed tab, got %d", m.tab)
	}

	run(t, m, deleteCmd)
	if m.modal != modalNone {
		t.Fatalf("expected detail closed after delete, got modal %d", m.modal)
	}
	if fake.deletes.Load() != 1 {
		t.Fatalf("expected one delete request, got %d", fake.deletes.Load())
	}
	if m.status != "Post deleted" {
		t.Fatalf("expected delete status, got %q", m.status)
	}
}
