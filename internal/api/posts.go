package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/adamavenir/gram/internal/types"
)

// NewPost is the input for creating a post.
type NewPost struct {
	Image   Upload
	Caption string
}

type commentRequest struct {
	Text string `json:"text"`
}

type captionRequest struct {
	Caption string `json:"caption"`
}

// Feed fetches the home feed of followed authors.
func (c *Client) Feed(ctx context.Context) ([]types.Post, error) {
	return c.postList(ctx, "/posts/feed")
}

// Explore fetches the explore grid.
func (c *Client) Explore(ctx context.Context) ([]types.Post, error) {
	return c.postList(ctx, "/posts/explore")
}

// UserPosts fetches the posts of one user, newest first.
func (c *Client) UserPosts(ctx context.Context, username string) ([]types.Post, error) {
	return c.postList(ctx, "/posts/user/"+url.PathEscape(username))
}

// GetPost fetches a post with its comments and likes.
func (c *Client) GetPost(ctx context.Context, id string) (*types.Post, error) {
	var post types.Post
	if err := c.doJSON(ctx, http.MethodGet, postPath(id), nil, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost uploads an image with a caption.
func (c *Client) CreatePost(ctx context.Context, in NewPost) (*types.Post, error) {
	form, err := newMultipartBody("image", in.Image, formField{name: "caption", value: in.Caption})
	if err != nil {
		return nil, err
	}
	var post types.Post
	if err := c.do(ctx, request{method: http.MethodPost, path: "/posts", form: form}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post owned by the caller.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, postPath(id), nil, nil, nil)
}

// ToggleLike flips the caller's like and returns the updated post.
func (c *Client) ToggleLike(ctx context.Context, id string) (*types.Post, error) {
	return c.postMutation(ctx, http.MethodPost, postPath(id)+"/like", nil)
}

// AddComment appends a comment and returns the updated post.
func (c *Client) AddComment(ctx context.Context, id, text string) (*types.Post, error) {
	return c.postMutation(ctx, http.MethodPost, postPath(id)+"/comments", commentRequest{Text: text})
}

// ToggleCommentLike flips the caller's like on a comment and returns the updated post.
func (c *Client) ToggleCommentLike(ctx context.Context, postID, commentID string) (*types.Post, error) {
	path := postPath(postID) + "/comments/" + url.PathEscape(commentID) + "/like"
	return c.postMutation(ctx, http.MethodPost, path, nil)
}

// UpdateCaption replaces a post's caption and returns the updated post.
func (c *Client) UpdateCaption(ctx context.Context, id, caption string) (*types.Post, error) {
	return c.postMutation(ctx, http.MethodPut, postPath(id)+"/caption", captionRequest{Caption: caption})
}

func (c *Client) postMutation(ctx context.Context, method, path string, body any) (*types.Post, error) {
	var post types.Post
	if err := c.doJSON(ctx, method, path, nil, body, &post); err != nil {
		return nil, err
	}
	if post.ID == "" {
		return nil, fmt.Errorf("%s %s: response carried no post", method, path)
	}
	return &post, nil
}

// postList tolerates non-array bodies by treating them as empty.
func (c *Client) postList(ctx context.Context, path string) ([]types.Post, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	posts := []types.Post{}
	if len(raw) == 0 || raw[0] != '[' {
		return posts, nil
	}
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return posts, nil
}

func postPath(id string) string {
	return "/posts/" + url.PathEscape(id)
}
