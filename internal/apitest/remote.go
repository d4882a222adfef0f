// Package apitest provides an in-memory stand-in for the REST API.
package apitest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/types"
)

// Remote implements the read and mutation surface of api.Client in memory.
// Fail injects per-method errors; Block holds a method until its channel is
// closed.
type Remote struct {
	mu       sync.Mutex
	posts    map[string]types.Post
	order    []string
	profiles map[string]types.ProfileView
	me       types.Profile
	calls    map[string]int
	nextID   int

	Fail  map[string]error
	Block map[string]chan struct{}
	// FollowerSkew is added to a target's follower count on every follow
	// toggle, simulating other clients racing.
	FollowerSkew int
}

// NewRemote returns a remote signed in as me.
func NewRemote(me types.Profile) *Remote {
	return &Remote{
		posts:    make(map[string]types.Post),
		profiles: make(map[string]types.ProfileView),
		me:       me,
		calls:    make(map[string]int),
		Fail:     make(map[string]error),
		Block:    make(map[string]chan struct{}),
	}
}

// AddPost appends a post in server order.
func (r *Remote) AddPost(p types.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[p.ID] = p.Clone()
	r.order = append(r.order, p.ID)
}

// AddProfile registers a public profile.
func (r *Remote) AddProfile(view types.ProfileView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[view.User.Username] = view
}

// Calls returns how often method was invoked.
func (r *Remote) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *Remote) enter(ctx context.Context, method string) error {
	r.mu.Lock()
	r.calls[method]++
	block := r.Block[method]
	err := r.Fail[method]
	r.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (r *Remote) listLocked(keep func(types.Post) bool) []types.Post {
	out := make([]types.Post, 0, len(r.order))
	for _, id := range r.order {
		p, ok := r.posts[id]
		if !ok || (keep != nil && !keep(p)) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

func notFound(what string) error {
	return &api.APIError{Status: 404, Message: what + " not found"}
}

func (r *Remote) Feed(ctx context.Context) ([]types.Post, error) {
	if err := r.enter(ctx, "Feed"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked(nil), nil
}

func (r *Remote) Explore(ctx context.Context) ([]types.Post, error) {
	if err := r.enter(ctx, "Explore"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked(nil), nil
}

func (r *Remote) UserPosts(ctx context.Context, username string) ([]types.Post, error) {
	if err := r.enter(ctx, "UserPosts"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked(func(p types.Post) bool { return p.Author.Username == username }), nil
}

func (r *Remote) GetPost(ctx context.Context, id string) (*types.Post, error) {
	if err := r.enter(ctx, "GetPost"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, notFound("post")
	}
	out := p.Clone()
	return &out, nil
}

func (r *Remote) CreatePost(ctx context.Context, in api.NewPost) (*types.Post, error) {
	if err := r.enter(ctx, "CreatePost"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p := types.Post{
		ID:      "new-" + strconv.Itoa(r.nextID),
		Author:  types.Author{ID: r.me.ID, Username: r.me.Username},
		Image:   "/uploads/" + in.Image.Filename,
		Caption: in.Caption,
	}
	r.posts[p.ID] = p
	r.order = append([]string{p.ID}, r.order...)
	out := p.Clone()
	return &out, nil
}

func (r *Remote) DeletePost(ctx context.Context, id string) error {
	if err := r.enter(ctx, "DeletePost"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return notFound("post")
	}
	delete(r.posts, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Remote) mutatePost(ctx context.Context, method, id string, fn func(types.Post) (types.Post, error)) (*types.Post, error) {
	if err := r.enter(ctx, method); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, notFound("post")
	}
	next, err := fn(p)
	if err != nil {
		return nil, err
	}
	r.posts[id] = next
	out := next.Clone()
	return &out, nil
}

func (r *Remote) ToggleLike(ctx context.Context, id string) (*types.Post, error) {
	return r.mutatePost(ctx, "ToggleLike", id, func(p types.Post) (types.Post, error) {
		return p.WithLikeToggled(r.me.ID), nil
	})
}

func (r *Remote) ToggleCommentLike(ctx context.Context, postID, commentID string) (*types.Post, error) {
	return r.mutatePost(ctx, "ToggleCommentLike", postID, func(p types.Post) (types.Post, error) {
		if _, ok := p.Comment(commentID); !ok {
			return p, notFound("comment")
		}
		return p.WithCommentLikeToggled(commentID, r.me.ID), nil
	})
}

func (r *Remote) AddComment(ctx context.Context, id, text string) (*types.Post, error) {
	return r.mutatePost(ctx, "AddComment", id, func(p types.Post) (types.Post, error) {
		out := p.Clone()
		r.nextID++
		out.Comments = append(out.Comments, types.Comment{
			ID:     fmt.Sprintf("c-%d", r.nextID),
			Author: types.Author{ID: r.me.ID, Username: r.me.Username},
			Text:   text,
		})
		return out, nil
	})
}

func (r *Remote) UpdateCaption(ctx context.Context, id, caption string) (*types.Post, error) {
	return r.mutatePost(ctx, "UpdateCaption", id, func(p types.Post) (types.Post, error) {
		out := p.Clone()
		out.Caption = caption
		return out, nil
	})
}

func (r *Remote) ToggleFollow(ctx context.Context, userID string) (*types.Profile, error) {
	if err := r.enter(ctx, "ToggleFollow"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delta := 1
	if r.me.Follows(userID) {
		r.me.Following = r.me.Following.Without(userID)
		delta = -1
	} else {
		r.me.Following = r.me.Following.With(userID)
	}
	for name, view := range r.profiles {
		if view.User.ID == userID {
			view.Stats.Followers += delta + r.FollowerSkew
			r.profiles[name] = view
		}
	}
	out := r.me.Clone()
	return &out, nil
}

func (r *Remote) GetProfile(ctx context.Context, username string) (*types.ProfileView, error) {
	if err := r.enter(ctx, "GetProfile"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	view, ok := r.profiles[username]
	if !ok {
		return nil, notFound("user")
	}
	return &view, nil
}

func (r *Remote) Me(ctx context.Context) (*types.Profile, error) {
	if err := r.enter(ctx, "Me"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.me.Clone()
	return &out, nil
}

func (r *Remote) UpdateMe(ctx context.Context, update types.ProfileUpdate) (*types.Profile, error) {
	if err := r.enter(ctx, "UpdateMe"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.me.Username = update.Username
	r.me.Website = update.Website
	r.me.About = update.About
	out := r.me.Clone()
	return &out, nil
}

func (r *Remote) UpdateAvatar(ctx context.Context, avatar api.Upload) (*types.Profile, error) {
	if err := r.enter(ctx, "UpdateAvatar"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.me.Avatar = "/uploads/" + strings.TrimSpace(avatar.Filename)
	out := r.me.Clone()
	return &out, nil
}
