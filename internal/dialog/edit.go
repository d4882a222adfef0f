package dialog

import (
	"context"
	"strings"
	"sync"

	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/types"
)

// EditDialog edits one post's caption.
type EditDialog struct {
	mut Mutator

	mu       sync.Mutex
	m        Machine
	postID   string
	original string
	caption  string
	saved    *types.Post
}

// NewEditDialog returns a closed edit dialog.
func NewEditDialog(mut Mutator) *EditDialog {
	return &EditDialog{mut: mut}
}

// Open loads post's current caption into the draft.
func (d *EditDialog) Open(post types.Post) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postID = post.ID
	d.original = post.Caption
	d.caption = post.Caption
	d.saved = nil
	d.m.Open(false)
}

// Close abandons the edit. It is refused while saving.
func (d *EditDialog) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.Close()
}

// PostID is the post being edited.
func (d *EditDialog) PostID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.postID
}

// SetCaption replaces the draft, cut to the maximum length.
func (d *EditDialog) SetCaption(caption string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.caption = core.TruncateRunes(caption, core.MaxCaptionLength)
}

// Caption returns the draft.
func (d *EditDialog) Caption() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caption
}

// Changed reports whether the trimmed draft differs from the loaded caption.
func (d *EditDialog) Changed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(d.caption) != strings.TrimSpace(d.original)
}

func (d *EditDialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.State()
}

func (d *EditDialog) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.Err()
}

func (d *EditDialog) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m.Dismiss()
}

// Saved is the snapshot returned by the last successful save.
func (d *EditDialog) Saved() *types.Post {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saved
}

// Begin moves to Submitting and returns the save step.
func (d *EditDialog) Begin() (func(context.Context) error, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.m.Submit(); err != nil {
		return nil, err
	}
	postID := d.postID
	caption := strings.TrimSpace(d.caption)
	return func(ctx context.Context) error {
		post, err := d.mut.EditCaption(ctx, postID, caption)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.saved = post
		d.mu.Unlock()
		return nil
	}, nil
}

// Finish records the save outcome. The draft survives a failure.
func (d *EditDialog) Finish(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m.Finish(err)
}

// Submit saves synchronously.
func (d *EditDialog) Submit(ctx context.Context) error {
	return submitSync(ctx, d.Begin, d.Finish)
}
