package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adamavenir/gram/internal/core"
	"github.com/google/uuid"
)

// ErrUnauthenticated is returned without touching the network when no bearer
// token is available.
var ErrUnauthenticated = errors.New("not logged in")

// APIError represents a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("api error: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error: %s (%d)", e.Code, e.Status)
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

type apiErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed token.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client talks to the photo-sharing REST API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	log        *core.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger logs each request at debug level.
func WithLogger(log *core.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient constructs an API client.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	normalized, err := core.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api url: %w", err)
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL: normalized,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: core.DefaultTimeout * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API base.
func (c *Client) BaseURL() string { return c.baseURL }

// HasToken reports whether authenticated calls can be made.
func (c *Client) HasToken() bool {
	return strings.TrimSpace(c.tokens.Token()) != ""
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	form   *multipartBody
	public bool
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) error {
	return c.do(ctx, request{method: method, path: path, query: query, body: reqBody}, respBody)
}

func (c *Client) do(ctx context.Context, r request, respBody any) error {
	token := strings.TrimSpace(c.tokens.Token())
	if token == "" && !r.public {
		return ErrUnauthenticated
	}

	endpoint, err := c.buildURL(r.path, r.query)
	if err != nil {
		return err
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.form != nil:
		body = bytes.NewReader(r.form.data)
		contentType = r.form.contentType
	case r.body != nil:
		data, err := json.Marshal(r.body)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if r.method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debugf("%s %s failed after %s: %v", r.method, r.path, time.Since(start), err)
		return err
	}
	defer resp.Body.Close()
	c.log.Debugf("%s %s -> %d (%s)", r.method, r.path, resp.StatusCode, time.Since(start))

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
			if apiErr.Message == "" {
				apiErr.Message, apiErr.Code = payload.Error, ""
			}
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	return json.Unmarshal(respData, respBody)
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	path = strings.TrimPrefix(path, "/")
	endpoint, err := url.Parse(c.baseURL + "/" + path)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}
