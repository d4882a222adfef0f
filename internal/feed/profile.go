package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/optimistic"
	"github.com/adamavenir/gram/internal/types"
)

// ProfileSource reads public profiles.
type ProfileSource interface {
	GetProfile(ctx context.Context, username string) (*types.ProfileView, error)
}

// Follower toggles follow state. *coordinator.Coordinator satisfies it.
type Follower interface {
	ToggleFollow(ctx context.Context, userID string) (*types.Profile, error)
}

// HeaderState is what a profile header renders.
type HeaderState struct {
	View      types.ProfileView
	Following bool
}

// IsSelf reports whether the header shows the viewer's own profile.
func (h HeaderState) IsSelf(viewerID string) bool {
	return viewerID != "" && h.View.User.ID == viewerID
}

// ProfileHeader shows one user's stats and whether the viewer follows them.
// Follow toggles are optimistic and reconcile to the server's counts.
type ProfileHeader struct {
	username string
	viewer   types.Profile
	bus      *events.Bus
	source   ProfileSource
	follower Follower
	opts     options

	mu          sync.Mutex
	state       optimistic.Value[HeaderState]
	loaded      bool
	following   bool
	unsubscribe func()
	generation  uint64
	err         error
}

// NewProfileHeader creates an unmounted header for username as seen by viewer.
func NewProfileHeader(bus *events.Bus, source ProfileSource, follower Follower, username string, viewer types.Profile, opts ...Option) *ProfileHeader {
	return &ProfileHeader{
		username: username,
		viewer:   viewer.Clone(),
		bus:      bus,
		source:   source,
		follower: follower,
		opts:     buildOptions(opts),
	}
}

// Mount subscribes to membership changes and fetches the profile.
func (h *ProfileHeader) Mount(ctx context.Context) error {
	h.mu.Lock()
	if h.unsubscribe != nil {
		h.mu.Unlock()
		return nil
	}
	h.generation++
	gen := h.generation
	h.unsubscribe = h.bus.Subscribe(func(e events.Event) { h.handle(gen, e) })
	h.mu.Unlock()

	view, err := h.source.GetProfile(ctx, h.username)

	h.mu.Lock()
	if gen != h.generation {
		h.mu.Unlock()
		return ErrUnmounted
	}
	if err != nil {
		h.err = err
		h.mu.Unlock()
		h.notify()
		return err
	}
	h.state.Set(HeaderState{View: *view, Following: h.viewerLocked().Follows(view.User.ID)})
	h.loaded = true
	h.err = nil
	h.mu.Unlock()
	h.notify()
	return nil
}

// Unmount stops listening for events.
func (h *ProfileHeader) Unmount() {
	h.mu.Lock()
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.generation++
	h.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// handle re-derives Following from the viewer's updated following set.
func (h *ProfileHeader) handle(gen uint64, e events.Event) {
	if e.Kind != events.MembershipChanged || e.Profile == nil {
		return
	}
	h.mu.Lock()
	if gen != h.generation || !h.loaded || e.Entity.ID != h.viewerLocked().ID {
		h.mu.Unlock()
		return
	}
	h.viewer = e.Profile.Clone()
	next := h.state.Confirmed()
	next.Following = h.viewer.Follows(next.View.User.ID)
	h.state.Confirm(next)
	h.mu.Unlock()
	h.notify()
}

// viewerLocked returns the viewer, switching to the session's current user
// when the account has changed. h.mu must be held.
func (h *ProfileHeader) viewerLocked() types.Profile {
	if h.opts.viewer != nil {
		if current := h.opts.viewer(); current.ID != h.viewer.ID {
			h.viewer = current.Clone()
		}
	}
	return h.viewer
}

// Follow toggles follow state: the count and flag flip at once, then settle
// on the server's values. Errors restore the previous state. A second call
// while one is in flight returns coordinator.ErrBusy and changes nothing.
func (h *ProfileHeader) Follow(ctx context.Context) error {
	h.mu.Lock()
	if !h.loaded {
		h.mu.Unlock()
		return errors.New("profile not loaded")
	}
	if h.following {
		h.mu.Unlock()
		return coordinator.ErrBusy
	}
	current := h.state.Get()
	if current.IsSelf(h.viewerLocked().ID) {
		h.mu.Unlock()
		return errors.New("cannot follow yourself")
	}
	h.following = true
	targetID := current.View.User.ID
	before := h.state.Confirmed()
	tok := h.state.Apply(func(s HeaderState) HeaderState {
		if s.Following {
			s.View.Stats.Followers--
		} else {
			s.View.Stats.Followers++
		}
		if s.View.Stats.Followers < 0 {
			s.View.Stats.Followers = 0
		}
		s.Following = !s.Following
		return s
	})
	h.mu.Unlock()
	h.notify()

	me, err := h.follower.ToggleFollow(ctx, targetID)
	if err != nil {
		h.mu.Lock()
		h.state.Rollback(tok)
		h.following = false
		h.mu.Unlock()
		h.notify()
		return err
	}

	following := me.Follows(targetID)
	view, fetchErr := h.source.GetProfile(ctx, h.username)

	h.mu.Lock()
	h.following = false
	if fetchErr != nil {
		// Derive the count from the last fetched value and the flag the
		// server just confirmed.
		settled := h.state.Confirmed()
		followers := before.View.Stats.Followers
		if before.Following != following {
			followers += followDelta(following)
		}
		settled.View.Stats.Followers = max(followers, 0)
		settled.Following = following
		h.state.Commit(tok, settled)
		h.opts.log.Debugf("profile %s: re-fetch after follow failed: %v", h.username, fetchErr)
	} else {
		h.state.Commit(tok, HeaderState{View: *view, Following: following})
	}
	h.mu.Unlock()
	h.notify()
	return nil
}

func followDelta(following bool) int {
	if following {
		return 1
	}
	return -1
}

func (h *ProfileHeader) notify() {
	if h.opts.onChange != nil {
		h.opts.onChange()
	}
}

// State returns what should be displayed now.
func (h *ProfileHeader) State() HeaderState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Get()
}

// Pending reports whether an optimistic follow is awaiting the server.
func (h *ProfileHeader) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Pending()
}

// Loaded reports whether the profile was fetched.
func (h *ProfileHeader) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded
}

// Err is the last fetch error.
func (h *ProfileHeader) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Viewer returns the viewer's latest profile as seen through events.
func (h *ProfileHeader) Viewer() types.Profile {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewerLocked().Clone()
}
