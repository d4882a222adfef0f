package dialog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/optimistic"
	"github.com/adamavenir/gram/internal/types"
)

// PostSource fetches a single post.
type PostSource interface {
	GetPost(ctx context.Context, id string) (*types.Post, error)
}

// Option configures event-driven dialogs.
type Option func(*options)

type options struct {
	onChange func()
	log      *core.Logger
	viewerID func() string
}

// WithOnChange is called, without locks held, when the dialog changes from
// outside a direct method call (bus events, background loads).
func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// WithLogger traces lifecycle at debug level.
func WithLogger(log *core.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithViewerID reads the signed-in user's id at use time instead of the id
// given at construction.
func WithViewerID(fn func() string) Option {
	return func(o *options) { o.viewerID = fn }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DetailViewer shows one post with its comments. While open it listens on the
// bus: a deleted event for its post closes it, an updated event replaces the
// post. Likes are optimistic; deleting is its submission.
type DetailViewer struct {
	bus      *events.Bus
	source   PostSource
	mut      Mutator
	viewerID string
	opts     options

	mu            sync.Mutex
	m             Machine
	postID        string
	post          optimistic.Value[types.Post]
	hasPost       bool
	generation    uint64
	unsubscribe   func()
	liking        bool
	likingComment string
	sending       bool
	draft         string
	notice        error
}

// NewDetailViewer returns a closed viewer acting as viewerID.
func NewDetailViewer(bus *events.Bus, source PostSource, mut Mutator, viewerID string, opts ...Option) *DetailViewer {
	return &DetailViewer{
		bus:      bus,
		source:   source,
		mut:      mut,
		viewerID: viewerID,
		opts:     buildOptions(opts),
	}
}

// Open moves to Loading for postID, subscribes to the bus and returns the
// fetch step, which moves to Ready when it completes.
func (v *DetailViewer) Open(postID string) func(context.Context) error {
	v.mu.Lock()
	prev := v.unsubscribe
	v.generation++
	gen := v.generation
	v.postID = strings.TrimSpace(postID)
	v.post = optimistic.Value[types.Post]{}
	v.hasPost = false
	v.liking = false
	v.likingComment = ""
	v.sending = false
	v.draft = ""
	v.notice = nil
	v.m.Open(true)
	v.unsubscribe = v.bus.Subscribe(func(e events.Event) { v.handle(gen, e) })
	id := v.postID
	v.mu.Unlock()

	if prev != nil {
		prev()
	}
	v.opts.log.Debugf("detail %s: opened", id)
	return func(ctx context.Context) error {
		return v.load(ctx, gen, id)
	}
}

// Show opens postID and fetches it synchronously.
func (v *DetailViewer) Show(ctx context.Context, postID string) error {
	return v.Open(postID)(ctx)
}

func (v *DetailViewer) load(ctx context.Context, gen uint64, id string) error {
	post, err := v.source.GetPost(ctx, id)
	if err != nil {
		err = coordinator.Normalize(err)
	}

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		return nil
	}
	if err == nil && post != nil {
		v.post.Set(post.Clone())
		v.hasPost = true
	}
	v.m.Loaded(err)
	v.mu.Unlock()
	v.notify()
	return err
}

func (v *DetailViewer) handle(gen uint64, e events.Event) {
	if e.Entity.Kind != types.KindPost {
		return
	}
	v.mu.Lock()
	if gen != v.generation || !v.m.IsOpen() || e.Entity.ID != v.postID {
		v.mu.Unlock()
		return
	}
	var unsubscribe func()
	switch e.Kind {
	case events.Deleted:
		v.m.reset()
		v.hasPost = false
		v.generation++
		unsubscribe = v.unsubscribe
		v.unsubscribe = nil
	case events.Updated:
		if e.Post == nil {
			v.mu.Unlock()
			return
		}
		v.post.Confirm(e.Post.Clone())
		v.hasPost = true
	default:
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		v.opts.log.Debugf("detail %s: closed after delete", e.Entity.ID)
	}
	v.notify()
}

// Close closes from any state except Submitting and stops listening.
func (v *DetailViewer) Close() error {
	v.mu.Lock()
	if err := v.m.Close(); err != nil {
		v.mu.Unlock()
		return err
	}
	v.generation++
	v.hasPost = false
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return nil
}

func (v *DetailViewer) notify() {
	if v.opts.onChange != nil {
		v.opts.onChange()
	}
}

// Post returns the displayed post, including optimistic likes.
func (v *DetailViewer) Post() (types.Post, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasPost {
		return types.Post{}, false
	}
	return v.post.Get().Clone(), true
}

// PostID is the post the viewer was opened for.
func (v *DetailViewer) PostID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.postID
}

// IsMine reports whether the viewer owns the displayed post.
func (v *DetailViewer) IsMine() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isMineLocked()
}

func (v *DetailViewer) isMineLocked() bool {
	viewer := v.viewerIDLocked()
	return v.hasPost && viewer != "" && v.post.Get().Author.ID == viewer
}

func (v *DetailViewer) viewerIDLocked() string {
	if v.opts.viewerID != nil {
		return v.opts.viewerID()
	}
	return v.viewerID
}

// Liked reports whether the viewer likes the displayed post.
func (v *DetailViewer) Liked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hasPost && v.post.Get().LikedBy(v.viewerIDLocked())
}

func (v *DetailViewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.m.State()
}

// Err is the retained load or delete error.
func (v *DetailViewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.m.Err()
}

// Notice is the last inline action error (like, comment).
func (v *DetailViewer) Notice() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.notice
}

// Dismiss clears retained errors.
func (v *DetailViewer) Dismiss() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.m.Dismiss()
	v.notice = nil
}

// ToggleLike flips the like at once and settles on the server's snapshot.
// Failure restores the previous likes. A second toggle while one is in flight
// returns coordinator.ErrBusy without changing anything.
func (v *DetailViewer) ToggleLike(ctx context.Context) error {
	v.mu.Lock()
	if !v.hasPost || v.m.State() != Ready {
		v.mu.Unlock()
		return ErrNotReady
	}
	if v.liking {
		v.mu.Unlock()
		return coordinator.ErrBusy
	}
	v.liking = true
	gen := v.generation
	id := v.postID
	viewer := v.viewerIDLocked()
	tok := v.post.Apply(func(p types.Post) types.Post { return p.WithLikeToggled(viewer) })
	v.mu.Unlock()

	post, err := v.mut.ToggleLike(ctx, id)
	v.settle(gen, tok, post, err, func() { v.liking = false })
	return err
}

// ToggleCommentLike flips the viewer's like on one comment.
func (v *DetailViewer) ToggleCommentLike(ctx context.Context, commentID string) error {
	v.mu.Lock()
	if !v.hasPost || v.m.State() != Ready {
		v.mu.Unlock()
		return ErrNotReady
	}
	if _, ok := v.post.Get().Comment(commentID); !ok {
		v.mu.Unlock()
		return &coordinator.ValidationError{Field: "comment", Message: "comment not found"}
	}
	if v.likingComment != "" {
		v.mu.Unlock()
		return coordinator.ErrBusy
	}
	v.likingComment = commentID
	gen := v.generation
	id := v.postID
	viewer := v.viewerIDLocked()
	tok := v.post.Apply(func(p types.Post) types.Post { return p.WithCommentLikeToggled(commentID, viewer) })
	v.mu.Unlock()

	post, err := v.mut.ToggleCommentLike(ctx, id, commentID)
	v.settle(gen, tok, post, err, func() { v.likingComment = "" })
	return err
}

// settle commits or rolls back an optimistic change made under gen.
func (v *DetailViewer) settle(gen uint64, tok optimistic.Token, post *types.Post, err error, done func()) {
	v.mu.Lock()
	done()
	if gen != v.generation {
		v.mu.Unlock()
		return
	}
	switch {
	case err != nil:
		v.post.Rollback(tok)
		if !errors.Is(err, coordinator.ErrBusy) {
			v.notice = err
		}
	case post != nil:
		v.post.Commit(tok, post.Clone())
		v.notice = nil
	default:
		v.post.Rollback(tok)
	}
	v.mu.Unlock()
	v.notify()
}

// SetDraft replaces the comment draft.
func (v *DetailViewer) SetDraft(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draft = text
}

// Draft returns the comment draft.
func (v *DetailViewer) Draft() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

// Sending reports whether a comment is in flight.
func (v *DetailViewer) Sending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sending
}

// AddComment posts the draft. The draft is cleared only on success.
func (v *DetailViewer) AddComment(ctx context.Context) error {
	v.mu.Lock()
	if !v.hasPost || v.m.State() != Ready {
		v.mu.Unlock()
		return ErrNotReady
	}
	if v.sending {
		v.mu.Unlock()
		return coordinator.ErrBusy
	}
	text := strings.TrimSpace(v.draft)
	if text == "" {
		v.mu.Unlock()
		return &coordinator.ValidationError{Field: "comment", Message: "comment cannot be empty"}
	}
	v.sending = true
	gen := v.generation
	id := v.postID
	v.mu.Unlock()

	post, err := v.mut.AddComment(ctx, id, text)

	v.mu.Lock()
	v.sending = false
	if gen == v.generation {
		if err != nil {
			if !errors.Is(err, coordinator.ErrBusy) {
				v.notice = err
			}
		} else {
			v.draft = ""
			v.notice = nil
			if post != nil {
				v.post.Confirm(post.Clone())
			}
		}
	}
	v.mu.Unlock()
	v.notify()
	return err
}

// Begin starts deleting the displayed post. The viewer closes when the
// deleted event arrives.
func (v *DetailViewer) Begin() (func(context.Context) error, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.isMineLocked() {
		return nil, errors.New("you cannot delete this post")
	}
	if err := v.m.Submit(); err != nil {
		return nil, err
	}
	id := v.postID
	return func(ctx context.Context) error {
		return v.mut.DeletePost(ctx, id)
	}, nil
}

// Finish records the delete outcome.
func (v *DetailViewer) Finish(err error) {
	v.mu.Lock()
	if v.m.State() != Submitting {
		v.mu.Unlock()
		return
	}
	v.m.Finish(err)
	var unsubscribe func()
	if err == nil {
		v.generation++
		v.hasPost = false
		unsubscribe = v.unsubscribe
		v.unsubscribe = nil
	}
	v.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Submit deletes synchronously.
func (v *DetailViewer) Submit(ctx context.Context) error {
	return submitSync(ctx, v.Begin, v.Finish)
}
