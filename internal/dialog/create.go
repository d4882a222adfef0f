package dialog

import (
	"context"
	"sync"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/types"
)

// Emojis is the palette offered by the create dialog.
var Emojis = []string{
	"😀", "😁", "😂", "🤣", "😊", "😍", "😘", "😎", "😭", "😡",
	"👍", "🔥", "❤️", "🎉", "✨", "😴", "🤝", "🥲", "🙏",
}

// InsertEmoji replaces text[start:end] with emoji and cuts the result to
// core.MaxCaptionLength. Positions are in runes and are clamped. It returns
// the new text and the cursor position after the inserted emoji.
func InsertEmoji(text, emoji string, start, end int) (string, int) {
	runes := []rune(text)
	start = clamp(start, 0, len(runes))
	end = clamp(end, start, len(runes))

	inserted := []rune(emoji)
	next := make([]rune, 0, len(runes)+len(inserted))
	next = append(next, runes[:start]...)
	next = append(next, inserted...)
	next = append(next, runes[end:]...)
	if len(next) > core.MaxCaptionLength {
		next = next[:core.MaxCaptionLength]
	}
	cursor := start + len(inserted)
	if cursor > len(next) {
		cursor = len(next)
	}
	return string(next), cursor
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CreateDialog composes a new post from an image and a caption.
type CreateDialog struct {
	mut Mutator

	mu        sync.Mutex
	m         Machine
	imagePath string
	image     api.Upload
	caption   string
	created   *types.Post
}

// NewCreateDialog returns a closed create dialog.
func NewCreateDialog(mut Mutator) *CreateDialog {
	return &CreateDialog{mut: mut}
}

// Open resets the draft and opens the dialog.
func (d *CreateDialog) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
	d.m.Open(false)
}

func (d *CreateDialog) resetLocked() {
	d.imagePath = ""
	d.image = api.Upload{}
	d.caption = ""
	d.created = nil
}

// Close discards the draft. It is refused while sharing.
func (d *CreateDialog) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.m.Close(); err != nil {
		return err
	}
	d.resetLocked()
	return nil
}

// SetImage reads the image at path. A read failure is kept as the dialog error
// and leaves the previous image in place.
func (d *CreateDialog) SetImage(path string) error {
	upload, err := api.OpenUpload(path)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.m.State() != Ready {
		return ErrNotReady
	}
	if err != nil {
		d.m.err = err
		return err
	}
	d.imagePath = path
	d.image = upload
	d.m.Dismiss()
	return nil
}

// SetUpload sets the image from memory.
func (d *CreateDialog) SetUpload(name string, upload api.Upload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.imagePath = name
	d.image = upload
}

// SetCaption replaces the caption, cut to the maximum length.
func (d *CreateDialog) SetCaption(caption string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.caption = core.TruncateRunes(caption, core.MaxCaptionLength)
}

// InsertEmoji inserts emoji over the rune selection [start, end) and returns
// the new cursor.
func (d *CreateDialog) InsertEmoji(emoji string, start, end int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, cursor := InsertEmoji(d.caption, emoji, start, end)
	d.caption = next
	return cursor
}

// Caption returns the draft caption.
func (d *CreateDialog) Caption() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caption
}

// Remaining is how many more runes the caption accepts.
func (d *CreateDialog) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return core.MaxCaptionLength - core.RuneLen(d.caption)
}

// ImagePath is the chosen image, or "" when none.
func (d *CreateDialog) ImagePath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.imagePath
}

// CanShare is false while sharing or before an image is chosen.
func (d *CreateDialog) CanShare() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canShareLocked()
}

func (d *CreateDialog) canShareLocked() bool {
	return d.m.State() == Ready && !d.image.Empty() && core.RuneLen(d.caption) <= core.MaxCaptionLength
}

// State returns the dialog state.
func (d *CreateDialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.State()
}

// Err is the retained error, if any.
func (d *CreateDialog) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.Err()
}

// Dismiss clears the retained error.
func (d *CreateDialog) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m.Dismiss()
}

// Created is the post from the last successful share.
func (d *CreateDialog) Created() *types.Post {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created
}

// Begin moves to Submitting and returns the share step.
func (d *CreateDialog) Begin() (func(context.Context) error, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.m.State() == Ready && d.image.Empty() {
		return nil, &coordinator.ValidationError{Field: "image", Message: "choose an image first"}
	}
	if !d.canShareLocked() {
		return nil, ErrNotReady
	}
	if err := d.m.Submit(); err != nil {
		return nil, err
	}
	in := api.NewPost{Image: d.image, Caption: d.caption}
	return func(ctx context.Context) error {
		post, err := d.mut.CreatePost(ctx, in)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.created = post
		d.mu.Unlock()
		return nil
	}, nil
}

// Finish records the share outcome. Success closes and clears the draft.
func (d *CreateDialog) Finish(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.m.State() != Submitting {
		return
	}
	d.m.Finish(err)
	if err == nil {
		d.imagePath = ""
		d.image = api.Upload{}
		d.caption = ""
	}
}

// Submit shares the post synchronously.
func (d *CreateDialog) Submit(ctx context.Context) error {
	return submitSync(ctx, d.Begin, d.Finish)
}
