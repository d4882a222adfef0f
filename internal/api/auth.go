package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/adamavenir/gram/internal/types"
)

// Registration is the sign-up form.
type Registration struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type resetRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
}

// Login exchanges an email or username and password for a bearer token.
func (c *Client) Login(ctx context.Context, emailOrUsername, password string) (string, error) {
	var resp loginResponse
	req := request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Email: strings.TrimSpace(emailOrUsername), Password: password},
		public: true,
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return resp.Token, nil
}

// Register creates an account and returns the server's message.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	var resp messageResponse
	req := request{method: http.MethodPost, path: "/auth/register", body: reg, public: true}
	if err := c.do(ctx, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetPassword asks the server to send a reset link.
func (c *Client) ResetPassword(ctx context.Context, emailOrUsername string) (string, error) {
	var resp messageResponse
	req := request{
		method: http.MethodPost,
		path:   "/auth/reset-password",
		body:   resetRequest{EmailOrUsername: strings.TrimSpace(emailOrUsername)},
		public: true,
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// AuthMe validates the token and returns the signed-in user.
func (c *Client) AuthMe(ctx context.Context) (*types.Profile, error) {
	var me types.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}
