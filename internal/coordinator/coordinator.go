// Package coordinator is the single funnel for mutations. Each successful
// mutation publishes exactly one event on the bus; failures publish nothing.
package coordinator

import (
	"context"
	"strings"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/types"
)

// Remote is the mutation surface of the API.
type Remote interface {
	CreatePost(ctx context.Context, in api.NewPost) (*types.Post, error)
	DeletePost(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id string) (*types.Post, error)
	ToggleCommentLike(ctx context.Context, postID, commentID string) (*types.Post, error)
	AddComment(ctx context.Context, id, text string) (*types.Post, error)
	UpdateCaption(ctx context.Context, id, caption string) (*types.Post, error)
	ToggleFollow(ctx context.Context, userID string) (*types.Profile, error)
	UpdateMe(ctx context.Context, update types.ProfileUpdate) (*types.Profile, error)
	UpdateAvatar(ctx context.Context, avatar api.Upload) (*types.Profile, error)
}

// Coordinator owns all entity mutations.
type Coordinator struct {
	remote Remote
	bus    *events.Bus
	busy   busySet
	log    *core.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger logs rejections and failures at debug level.
func WithLogger(log *core.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// New wires a coordinator to its remote and bus.
func New(remote Remote, bus *events.Bus, opts ...Option) *Coordinator {
	c := &Coordinator{remote: remote, bus: bus}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether op on id is in flight, for disabling controls.
func (c *Coordinator) Busy(op Op, id string) bool {
	return c.busy.has(op, id)
}

// InFlight counts outstanding mutations.
func (c *Coordinator) InFlight() int {
	return c.busy.size()
}

// run executes call under the busy key and publishes its event on success,
// before the key is released.
func (c *Coordinator) run(ctx context.Context, op Op, id string, call func(context.Context) (events.Event, error)) error {
	if !c.busy.acquire(op, id) {
		c.log.Debugf("%s %s rejected: already in flight", op, id)
		return ErrBusy
	}
	defer c.busy.release(op, id)

	evt, err := call(ctx)
	if err != nil {
		err = Normalize(err)
		c.log.Debugf("%s %s failed: %v", op, id, err)
		return err
	}
	published := c.bus.Publish(evt)
	c.log.Debugf("%s %s ok: published %s #%d", op, id, published.Kind, published.Seq)
	return nil
}

func postEvent(kind events.Kind, post *types.Post) events.Event {
	if post == nil {
		return events.Event{Kind: kind}
	}
	snapshot := post.Clone()
	return events.Event{Kind: kind, Entity: snapshot.Ref(), Post: &snapshot}
}

func requireID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid(field, "id is required")
	}
	return id, nil
}

func remoteEmpty() error {
	return &RemoteError{Message: "empty response from server"}
}

// CreatePost uploads a new post. The caption is trimmed and cut to
// core.MaxCaptionLength code points before sending.
func (c *Coordinator) CreatePost(ctx context.Context, in api.NewPost) (*types.Post, error) {
	if in.Image.Empty() {
		return nil, invalid("image", "an image is required")
	}
	in.Caption = core.NormalizeCaption(in.Caption)

	var created *types.Post
	err := c.run(ctx, OpCreatePost, "", func(ctx context.Context) (events.Event, error) {
		post, err := c.remote.CreatePost(ctx, in)
		if err != nil {
			return events.Event{}, err
		}
		if post == nil {
			return events.Event{}, remoteEmpty()
		}
		created = post
		return postEvent(events.Created, post), nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeletePost removes a post. Open viewers of the post close themselves when
// they observe the deleted event.
func (c *Coordinator) DeletePost(ctx context.Context, postID string) error {
	id, err := requireID("post", postID)
	if err != nil {
		return err
	}
	return c.run(ctx, OpDeletePost, id, func(ctx context.Context) (events.Event, error) {
		if err := c.remote.DeletePost(ctx, id); err != nil {
			return events.Event{}, err
		}
		return events.Event{Kind: events.Deleted, Entity: types.PostRef(id)}, nil
	})
}

// ToggleLike flips the caller's like on a post.
func (c *Coordinator) ToggleLike(ctx context.Context, postID string) (*types.Post, error) {
	id, err := requireID("post", postID)
	if err != nil {
		return nil, err
	}
	return c.postMutation(ctx, OpLike, id, func(ctx context.Context) (*types.Post, error) {
		return c.remote.ToggleLike(ctx, id)
	})
}

// ToggleCommentLike flips the caller's like on a comment.
func (c *Coordinator) ToggleCommentLike(ctx context.Context, postID, commentID string) (*types.Post, error) {
	pid, err := requireID("post", postID)
	if err != nil {
		return nil, err
	}
	cid, err := requireID("comment", commentID)
	if err != nil {
		return nil, err
	}
	return c.postMutation(ctx, OpCommentLike, cid, func(ctx context.Context) (*types.Post, error) {
		return c.remote.ToggleCommentLike(ctx, pid, cid)
	})
}

// EditCaption replaces a post's caption.
func (c *Coordinator) EditCaption(ctx context.Context, postID, caption string) (*types.Post, error) {
	id, err := requireID("post", postID)
	if err != nil {
		return nil, err
	}
	caption = core.NormalizeCaption(caption)
	return c.postMutation(ctx, OpEditCaption, id, func(ctx context.Context) (*types.Post, error) {
		return c.remote.UpdateCaption(ctx, id, caption)
	})
}

// AddComment appends a comment. Blank text is rejected locally.
func (c *Coordinator) AddComment(ctx context.Context, postID, text string) (*types.Post, error) {
	id, err := requireID("post", postID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("comment", "comment cannot be empty")
	}
	return c.postMutation(ctx, OpAddComment, id, func(ctx context.Context) (*types.Post, error) {
		return c.remote.AddComment(ctx, id, text)
	})
}

func (c *Coordinator) postMutation(ctx context.Context, op Op, key string, call func(context.Context) (*types.Post, error)) (*types.Post, error) {
	var updated *types.Post
	err := c.run(ctx, op, key, func(ctx context.Context) (events.Event, error) {
		post, err := call(ctx)
		if err != nil {
			return events.Event{}, err
		}
		if post == nil {
			return events.Event{}, remoteEmpty()
		}
		updated = post
		return postEvent(events.Updated, post), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleFollow follows or unfollows userID. The returned profile is the
// caller's own, and the membership-changed event is keyed by the caller's id.
func (c *Coordinator) ToggleFollow(ctx context.Context, userID string) (*types.Profile, error) {
	id, err := requireID("user", userID)
	if err != nil {
		return nil, err
	}
	return c.profileMutation(ctx, OpFollow, id, events.MembershipChanged, func(ctx context.Context) (*types.Profile, error) {
		return c.remote.ToggleFollow(ctx, id)
	})
}

// UpdateProfile saves the caller's text fields.
func (c *Coordinator) UpdateProfile(ctx context.Context, update types.ProfileUpdate) (*types.Profile, error) {
	update.Username = strings.TrimSpace(update.Username)
	update.Website = strings.TrimSpace(update.Website)
	if update.Username == "" {
		return nil, invalid("username", "username is required")
	}
	if core.RuneLen(update.About) > core.MaxAboutLength {
		return nil, invalid("about", "about must be at most 100 characters")
	}
	return c.profileMutation(ctx, OpUpdateProfile, "", events.Updated, func(ctx context.Context) (*types.Profile, error) {
		return c.remote.UpdateMe(ctx, update)
	})
}

// UpdateAvatar uploads a new avatar for the caller.
func (c *Coordinator) UpdateAvatar(ctx context.Context, avatar api.Upload) (*types.Profile, error) {
	if avatar.Empty() {
		return nil, invalid("avatar", "an image is required")
	}
	return c.profileMutation(ctx, OpUpdateAvatar, "", events.Updated, func(ctx context.Context) (*types.Profile, error) {
		return c.remote.UpdateAvatar(ctx, avatar)
	})
}

func (c *Coordinator) profileMutation(ctx context.Context, op Op, key string, kind events.Kind, call func(context.Context) (*types.Profile, error)) (*types.Profile, error) {
	var me *types.Profile
	err := c.run(ctx, op, key, func(ctx context.Context) (events.Event, error) {
		profile, err := call(ctx)
		if err != nil {
			return events.Event{}, err
		}
		if profile == nil {
			return events.Event{}, remoteEmpty()
		}
		me = profile
		snapshot := profile.Clone()
		return events.Event{Kind: kind, Entity: snapshot.Ref(), Profile: &snapshot}, nil
	})
	if err != nil {
		return nil, err
	}
	return me, nil
}
