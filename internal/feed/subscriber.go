// Package feed holds the locally loaded lists (feed, explore grid, profile
// grid) and keeps them consistent with mutation events.
package feed

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/types"
)

// ErrUnmounted is returned when a fetch resolves after its subscriber was
// unmounted or remounted; the result is discarded.
var ErrUnmounted = errors.New("list unmounted")

// Loader fetches a list's initial contents.
type Loader func(ctx context.Context) ([]types.Post, error)

// Option configures subscribers and profile headers.
type Option func(*options)

type options struct {
	onChange func()
	log      *core.Logger
	viewer   func() types.Profile
}

// WithOnChange is called, without locks held, whenever visible state changes.
func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// WithLogger traces lifecycle at debug level.
func WithLogger(log *core.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithViewer reads the signed-in user at use time, so a header outlives an
// account switch. Only ProfileHeader uses it.
func WithViewer(fn func() types.Profile) Option {
	return func(o *options) { o.viewer = fn }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Subscriber is a mounted list: it fetches once at mount, then patches its
// collection from bus events. Events arriving while a fetch is in flight are
// buffered and replayed over the fetched contents.
type Subscriber struct {
	name   string
	bus    *events.Bus
	load   Loader
	accept func(types.Post) bool
	opts   options

	mu          sync.Mutex
	coll        *Collection
	unsubscribe func()
	generation  uint64
	fetchID     uint64
	loading     bool
	loaded      bool
	pending     []events.Event
	err         error
}

// NewSubscriber creates an unmounted list. accept filters created events.
func NewSubscriber(name string, bus *events.Bus, load Loader, accept func(types.Post) bool, opts ...Option) *Subscriber {
	return &Subscriber{
		name:   name,
		bus:    bus,
		load:   load,
		accept: accept,
		opts:   buildOptions(opts),
		coll:   NewCollection(accept),
	}
}

// NewFeed is the home feed. New posts are prepended.
func NewFeed(bus *events.Bus, load Loader, opts ...Option) *Subscriber {
	return NewSubscriber("feed", bus, load, nil, opts...)
}

// NewExplore is the explore grid. Its contents are curated by the server, so
// created events are not inserted.
func NewExplore(bus *events.Bus, load Loader, opts ...Option) *Subscriber {
	return NewSubscriber("explore", bus, load, func(types.Post) bool { return false }, opts...)
}

// NewProfileGrid is one user's grid. Created posts are inserted only when
// authored by owner.
func NewProfileGrid(bus *events.Bus, owner types.Author, load Loader, opts ...Option) *Subscriber {
	return NewSubscriber("profile:"+owner.Username, bus, load, func(p types.Post) bool {
		return OwnedBy(p, owner)
	}, opts...)
}

// OwnedBy matches a post's author against owner by id, or by username when
// either side lacks an id.
func OwnedBy(p types.Post, owner types.Author) bool {
	if p.Author.ID != "" && owner.ID != "" {
		return p.Author.ID == owner.ID
	}
	return p.Author.Username != "" && strings.EqualFold(p.Author.Username, owner.Username)
}

// Name identifies the list in logs.
func (s *Subscriber) Name() string { return s.name }

// Mount subscribes to the bus and performs the initial fetch. Mounting an
// already-mounted list is a no-op.
func (s *Subscriber) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return nil
	}
	s.generation++
	gen := s.generation
	s.coll = NewCollection(s.accept)
	s.loaded = false
	s.loading = true
	s.err = nil
	s.pending = nil
	s.unsubscribe = s.bus.Subscribe(func(e events.Event) { s.handle(gen, e) })
	s.mu.Unlock()

	s.opts.log.Debugf("%s: mounted", s.name)
	return s.fetch(ctx, gen)
}

// Refresh re-fetches the list. It is the fallback recovery path, not the
// normal way to pick up mutations.
func (s *Subscriber) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubscribe == nil {
		s.mu.Unlock()
		return ErrUnmounted
	}
	gen := s.generation
	s.mu.Unlock()
	return s.fetch(ctx, gen)
}

func (s *Subscriber) fetch(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	s.fetchID++
	id := s.fetchID
	s.loading = true
	s.mu.Unlock()
	s.notify()

	posts, err := s.load(ctx)

	s.mu.Lock()
	if gen != s.generation || s.unsubscribe == nil {
		s.mu.Unlock()
		s.opts.log.Debugf("%s: discarding fetch after unmount", s.name)
		return ErrUnmounted
	}
	if id != s.fetchID {
		// A newer fetch owns the result.
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	if err != nil {
		s.err = err
	} else {
		s.coll.Reset(posts)
		s.loaded = true
		s.err = nil
	}
	pending := s.pending
	s.pending = nil
	for _, e := range pending {
		s.coll.Apply(e)
	}
	s.mu.Unlock()

	s.notify()
	return err
}

func (s *Subscriber) handle(gen uint64, e events.Event) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	if s.loading {
		s.pending = append(s.pending, e)
		s.mu.Unlock()
		return
	}
	outcome := s.coll.Apply(e)
	s.mu.Unlock()

	if outcome == Applied {
		s.notify()
	}
}

// Unmount unsubscribes, drops the collection and invalidates any in-flight fetch.
func (s *Subscriber) Unmount() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.generation++
	s.coll = NewCollection(s.accept)
	s.pending = nil
	s.loading = false
	s.loaded = false
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		s.opts.log.Debugf("%s: unmounted", s.name)
	}
}

func (s *Subscriber) notify() {
	if s.opts.onChange != nil {
		s.opts.onChange()
	}
}

// Posts returns the current contents.
func (s *Subscriber) Posts() []types.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Posts()
}

// IDs returns the current post ids in order.
func (s *Subscriber) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.IDs()
}

// Get returns one post from the list.
func (s *Subscriber) Get(id string) (types.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Get(id)
}

// Mounted reports whether the list is subscribed.
func (s *Subscriber) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribe != nil
}

// Loading reports whether a fetch is in flight.
func (s *Subscriber) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Loaded reports whether a fetch has succeeded since mount.
func (s *Subscriber) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Err is the last fetch error, if any.
func (s *Subscriber) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
