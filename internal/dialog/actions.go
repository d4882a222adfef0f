package dialog

import (
	"context"
	"errors"
	"sync"

	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/types"
)

// Clipboard receives copied links. The TUI backs it with the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// CopyState is the copy-link item's feedback.
type CopyState int

const (
	CopyIdle CopyState = iota
	CopyOK
	CopyFailed
)

// Action identifies an actions sheet item.
type Action string

const (
	ActionDelete   Action = "delete"
	ActionEdit     Action = "edit"
	ActionGoTo     Action = "goto"
	ActionCopyLink Action = "copy"
	ActionCancel   Action = "cancel"
)

// Item is one row of the actions sheet.
type Item struct {
	Action   Action
	Label    string
	Disabled bool
	Danger   bool
}

// SheetOptions gates which items are offered.
type SheetOptions struct {
	CanEdit      bool
	CanDelete    bool
	ShowGoTo     bool
	ShowCopyLink bool
}

// ActionsSheet is the per-post menu. Delete is its submission; every item is
// disabled and close is refused while the delete is in flight.
type ActionsSheet struct {
	mut    Mutator
	webURL string

	mu      sync.Mutex
	m       Machine
	post    types.Post
	opts    SheetOptions
	copy    CopyState
	deleted bool
}

// NewActionsSheet returns a closed sheet. Links are built under webURL.
func NewActionsSheet(mut Mutator, webURL string) *ActionsSheet {
	return &ActionsSheet{mut: mut, webURL: webURL}
}

// OptionsFor derives the default gating: owners may edit and delete.
func OptionsFor(post types.Post, viewerID string, showGoTo bool) SheetOptions {
	mine := viewerID != "" && post.Author.ID == viewerID
	return SheetOptions{CanEdit: mine, CanDelete: mine, ShowGoTo: showGoTo, ShowCopyLink: true}
}

// Open shows the sheet for post.
func (s *ActionsSheet) Open(post types.Post, opts SheetOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.post = post.Clone()
	s.opts = opts
	s.copy = CopyIdle
	s.deleted = false
	s.m.Open(false)
}

// Close is refused while deleting.
func (s *ActionsSheet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.m.Close(); err != nil {
		return err
	}
	s.copy = CopyIdle
	return nil
}

// Post is the post the sheet acts on.
func (s *ActionsSheet) Post() types.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.post.Clone()
}

// PostURL is the shareable link, or "" when it cannot be built.
func (s *ActionsSheet) PostURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.PostURL(s.webURL, s.post.ID)
}

// Items lists the offered rows in display order.
func (s *ActionsSheet) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleting := s.m.State() == Submitting
	var items []Item
	if s.opts.CanDelete {
		label := "Delete"
		if deleting {
			label = "Deleting..."
		}
		items = append(items, Item{Action: ActionDelete, Label: label, Disabled: deleting, Danger: true})
	}
	if s.opts.CanEdit {
		items = append(items, Item{Action: ActionEdit, Label: "Edit", Disabled: deleting})
	}
	if s.opts.ShowGoTo {
		items = append(items, Item{Action: ActionGoTo, Label: "Go to post", Disabled: deleting})
	}
	if s.opts.ShowCopyLink {
		label := "Copy link"
		switch s.copy {
		case CopyOK:
			label = "Copied"
		case CopyFailed:
			label = "Copy failed"
		}
		canCopy := core.PostURL(s.webURL, s.post.ID) != ""
		items = append(items, Item{Action: ActionCopyLink, Label: label, Disabled: deleting || !canCopy})
	}
	items = append(items, Item{Action: ActionCancel, Label: "Cancel", Disabled: deleting})
	return items
}

// Choose handles a navigation item (edit, go to post, cancel): it closes the
// sheet and reports whether the caller should act on it. Delete and copy have
// their own methods.
func (s *ActionsSheet) Choose(action Action) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m.State() == Submitting {
		return false, ErrSubmitting
	}
	allowed := false
	switch action {
	case ActionEdit:
		allowed = s.opts.CanEdit
	case ActionGoTo:
		allowed = s.opts.ShowGoTo
	case ActionCancel:
		allowed = true
	}
	if !allowed || !s.m.IsOpen() {
		return false, nil
	}
	_ = s.m.Close()
	s.copy = CopyIdle
	return action != ActionCancel, nil
}

// CopyLink writes the post link to cb. Success closes the sheet; failure keeps
// it open showing "Copy failed".
func (s *ActionsSheet) CopyLink(cb Clipboard) error {
	s.mu.Lock()
	if s.m.State() == Submitting {
		s.mu.Unlock()
		return ErrSubmitting
	}
	link := core.PostURL(s.webURL, s.post.ID)
	enabled := s.opts.ShowCopyLink
	s.mu.Unlock()

	if !enabled || link == "" {
		return errors.New("no link to copy")
	}
	err := cb.WriteAll(link)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.copy = CopyFailed
		return err
	}
	s.copy = CopyOK
	_ = s.m.Close()
	return nil
}

// ResetCopy returns the copy item to its idle label.
func (s *ActionsSheet) ResetCopy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.copy = CopyIdle
}

// CopyState returns the copy feedback.
func (s *ActionsSheet) CopyState() CopyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copy
}

func (s *ActionsSheet) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.State()
}

func (s *ActionsSheet) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Err()
}

func (s *ActionsSheet) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Dismiss()
}

// Deleted reports whether the last delete succeeded.
func (s *ActionsSheet) Deleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleted
}

// Begin starts deleting the post.
func (s *ActionsSheet) Begin() (func(context.Context) error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opts.CanDelete {
		return nil, errors.New("you cannot delete this post")
	}
	if err := s.m.Submit(); err != nil {
		return nil, err
	}
	postID := s.post.ID
	return func(ctx context.Context) error {
		return s.mut.DeletePost(ctx, postID)
	}, nil
}

// Finish records the delete outcome. Success closes the sheet.
func (s *ActionsSheet) Finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m.State() != Submitting {
		return
	}
	s.m.Finish(err)
	if err == nil {
		s.deleted = true
		s.copy = CopyIdle
	}
}

// Submit deletes synchronously.
func (s *ActionsSheet) Submit(ctx context.Context) error {
	return submitSync(ctx, s.Begin, s.Finish)
}
