package dialog

import (
	"context"
	"strings"
	"sync"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/types"
)

// MeSource reads the caller's own profile.
type MeSource interface {
	Me(ctx context.Context) (*types.Profile, error)
}

// ProfileDraft is the editable part of the caller's profile.
type ProfileDraft struct {
	Username   string
	Website    string
	About      string
	AvatarPath string
}

func draftFrom(p types.Profile) ProfileDraft {
	return ProfileDraft{Username: p.Username, Website: p.Website, About: p.About}
}

// ProfileEditor edits the caller's profile. Saving sends the text fields, then
// the avatar when one was chosen, and reloads the profile.
type ProfileEditor struct {
	source MeSource
	mut    Mutator
	opts   options

	mu         sync.Mutex
	m          Machine
	generation uint64
	profile    types.Profile
	draft      ProfileDraft
}

// NewProfileEditor returns a closed editor.
func NewProfileEditor(source MeSource, mut Mutator, opts ...Option) *ProfileEditor {
	return &ProfileEditor{source: source, mut: mut, opts: buildOptions(opts)}
}

// Open moves to Loading and returns the fetch step.
func (e *ProfileEditor) Open() func(context.Context) error {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.profile = types.Profile{}
	e.draft = ProfileDraft{}
	e.m.Open(true)
	e.mu.Unlock()

	return func(ctx context.Context) error {
		return e.load(ctx, gen)
	}
}

// Load opens the editor and fetches synchronously.
func (e *ProfileEditor) Load(ctx context.Context) error {
	return e.Open()(ctx)
}

func (e *ProfileEditor) load(ctx context.Context, gen uint64) error {
	me, err := e.source.Me(ctx)
	if err != nil {
		err = coordinator.Normalize(err)
	}
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return nil
	}
	if err == nil && me != nil {
		e.profile = me.Clone()
		e.draft = draftFrom(*me)
	}
	e.m.Loaded(err)
	e.mu.Unlock()
	e.notify()
	return err
}

func (e *ProfileEditor) notify() {
	if e.opts.onChange != nil {
		e.opts.onChange()
	}
}

// Close abandons the edit. It is refused while saving.
func (e *ProfileEditor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.m.Close(); err != nil {
		return err
	}
	e.generation++
	return nil
}

// Draft returns the current draft.
func (e *ProfileEditor) Draft() ProfileDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// SetDraft replaces the draft. About is cut to its maximum length.
func (e *ProfileEditor) SetDraft(d ProfileDraft) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d.About = core.TruncateRunes(d.About, core.MaxAboutLength)
	e.draft = d
}

// Profile is the last loaded profile.
func (e *ProfileEditor) Profile() types.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Clone()
}

// Dirty reports unsaved changes.
func (e *ProfileEditor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	saved := draftFrom(e.profile)
	d := e.draft
	return strings.TrimSpace(d.Username) != saved.Username ||
		strings.TrimSpace(d.Website) != saved.Website ||
		d.About != saved.About ||
		strings.TrimSpace(d.AvatarPath) != ""
}

func (e *ProfileEditor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.State()
}

func (e *ProfileEditor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.Err()
}

func (e *ProfileEditor) Dismiss() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.m.Dismiss()
}

// Begin moves to Submitting and returns the save step.
func (e *ProfileEditor) Begin() (func(context.Context) error, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.m.Submit(); err != nil {
		return nil, err
	}
	gen := e.generation
	draft := e.draft
	update := types.ProfileUpdate{Username: draft.Username, Website: draft.Website, About: draft.About}
	avatarPath := strings.TrimSpace(draft.AvatarPath)

	return func(ctx context.Context) error {
		var avatar api.Upload
		if avatarPath != "" {
			upload, err := api.OpenUpload(avatarPath)
			if err != nil {
				return &coordinator.ValidationError{Field: "avatar", Message: err.Error()}
			}
			avatar = upload
		}
		if _, err := e.mut.UpdateProfile(ctx, update); err != nil {
			return err
		}
		if !avatar.Empty() {
			if _, err := e.mut.UpdateAvatar(ctx, avatar); err != nil {
				return err
			}
		}
		return e.reload(ctx, gen)
	}, nil
}

// reload refreshes the stored profile after a save. A failed reload does not
// fail the save.
func (e *ProfileEditor) reload(ctx context.Context, gen uint64) error {
	me, err := e.source.Me(ctx)
	if err != nil {
		e.opts.log.Debugf("profile editor: reload after save failed: %v", err)
		return nil
	}
	e.mu.Lock()
	if gen == e.generation && me != nil {
		e.profile = me.Clone()
		e.draft = draftFrom(*me)
	}
	e.mu.Unlock()
	return nil
}

// Finish records the save outcome. The draft survives a failure.
func (e *ProfileEditor) Finish(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.m.Finish(err)
}

// Submit saves synchronously.
func (e *ProfileEditor) Submit(ctx context.Context) error {
	return submitSync(ctx, e.Begin, e.Finish)
}
