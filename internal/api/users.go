package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/adamavenir/gram/internal/types"
)

// GetProfile fetches a user's public profile and stats.
func (c *Client) GetProfile(ctx context.Context, username string) (*types.ProfileView, error) {
	var view types.ProfileView
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(username), nil, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Me fetches the caller's own profile.
func (c *Client) Me(ctx context.Context) (*types.Profile, error) {
	var me types.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// UpdateMe patches the caller's text fields and returns the re-read profile.
func (c *Client) UpdateMe(ctx context.Context, update types.ProfileUpdate) (*types.Profile, error) {
	if err := c.doJSON(ctx, http.MethodPatch, "/users/me", nil, update, nil); err != nil {
		return nil, err
	}
	return c.Me(ctx)
}

// UpdateAvatar uploads a new avatar and returns the re-read profile.
func (c *Client) UpdateAvatar(ctx context.Context, avatar Upload) (*types.Profile, error) {
	form, err := newMultipartBody("avatar", avatar)
	if err != nil {
		return nil, err
	}
	if err := c.do(ctx, request{method: http.MethodPatch, path: "/users/me/avatar", form: form}, nil); err != nil {
		return nil, err
	}
	return c.Me(ctx)
}

// ToggleFollow follows or unfollows userID and returns the caller's updated profile.
func (c *Client) ToggleFollow(ctx context.Context, userID string) (*types.Profile, error) {
	var me types.Profile
	path := "/users/u/" + url.PathEscape(userID) + "/follow"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}
