// Package dialog holds the state of modal controllers: create, edit, the post
// actions sheet, the post detail viewer and the profile editor.
//
// Every controller is safe for concurrent use. Submissions are split into
// Begin, which moves to Submitting and returns the network step, and Finish,
// which records its outcome. A UI runs the network step off its event loop;
// Submit does all three in one call.
package dialog

import (
	"context"
	"errors"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/types"
)

// State is a dialog's lifecycle position.
type State int

const (
	Closed State = iota
	Loading
	Ready
	Submitting
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

var (
	// ErrSubmitting is returned when closing during a submission.
	ErrSubmitting = errors.New("cannot close while submitting")
	// ErrNotReady is returned when submitting from any state but Ready.
	ErrNotReady = errors.New("dialog is not ready")
)

// Mutator is the mutation surface dialogs submit through.
// *coordinator.Coordinator satisfies it.
type Mutator interface {
	CreatePost(ctx context.Context, in api.NewPost) (*types.Post, error)
	DeletePost(ctx context.Context, postID string) error
	ToggleLike(ctx context.Context, postID string) (*types.Post, error)
	ToggleCommentLike(ctx context.Context, postID, commentID string) (*types.Post, error)
	EditCaption(ctx context.Context, postID, caption string) (*types.Post, error)
	AddComment(ctx context.Context, postID, text string) (*types.Post, error)
	UpdateProfile(ctx context.Context, update types.ProfileUpdate) (*types.Profile, error)
	UpdateAvatar(ctx context.Context, avatar api.Upload) (*types.Profile, error)
}

// Machine is the shared Closed/Loading/Ready/Submitting state machine. It is
// not safe for concurrent use; controllers guard it.
type Machine struct {
	state State
	err   error
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Err is the error retained from the last failed load or submission.
func (m *Machine) Err() error { return m.err }

// IsOpen reports any state but Closed.
func (m *Machine) IsOpen() bool { return m.state != Closed }

// Open moves to Ready, or to Loading when a background fetch must finish first.
func (m *Machine) Open(loading bool) {
	m.err = nil
	if loading {
		m.state = Loading
		return
	}
	m.state = Ready
}

// Loaded moves Loading to Ready. A failed load keeps its error for display.
// It reports false when the machine was no longer loading.
func (m *Machine) Loaded(err error) bool {
	if m.state != Loading {
		return false
	}
	m.state = Ready
	m.err = err
	return true
}

// Submit moves Ready to Submitting.
func (m *Machine) Submit() error {
	if m.state != Ready {
		return ErrNotReady
	}
	m.state = Submitting
	m.err = nil
	return nil
}

// Finish ends a submission: success closes, failure returns to Ready with the
// error kept. A rejected duplicate returns to Ready without an error. Finish
// is a no-op unless submitting.
func (m *Machine) Finish(err error) {
	if m.state != Submitting {
		return
	}
	switch {
	case err == nil:
		m.state = Closed
	case errors.Is(err, coordinator.ErrBusy):
		m.state = Ready
	default:
		m.state = Ready
		m.err = err
	}
}

// Close closes from any state except Submitting.
func (m *Machine) Close() error {
	if m.state == Submitting {
		return ErrSubmitting
	}
	m.reset()
	return nil
}

// Dismiss clears the retained error.
func (m *Machine) Dismiss() { m.err = nil }

// reset closes unconditionally. Used when the dialog's entity disappears.
func (m *Machine) reset() {
	m.state = Closed
	m.err = nil
}

// submitSync runs a Begin/Finish pair inline.
func submitSync(ctx context.Context, begin func() (func(context.Context) error, error), finish func(error)) error {
	run, err := begin()
	if err != nil {
		return err
	}
	err = run(ctx)
	finish(err)
	return err
}
