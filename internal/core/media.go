package core

import (
	"fmt"
	"net/url"
	"strings"
)

// PlaceholderAvatar is shown when a media reference cannot be resolved.
const PlaceholderAvatar = "/icons/profile.png"

// NormalizeBaseURL validates a base URL, requires a scheme and strips trailing slashes.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url must include scheme and host (https://...)")
	}
	return strings.TrimRight(value, "/"), nil
}

// MediaResolver turns the relative media paths the API returns into absolute URLs.
type MediaResolver struct {
	base        string
	placeholder string
}

// NewMediaResolver derives the media base from mediaURL, or from apiURL with a
// trailing /api segment removed. An unusable base makes every relative
// reference resolve to the placeholder.
func NewMediaResolver(apiURL, mediaURL, placeholder string) MediaResolver {
	r := MediaResolver{placeholder: placeholder}
	candidate := strings.TrimSpace(mediaURL)
	if candidate == "" {
		candidate = strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(apiURL), "/"), "/api")
	}
	if base, err := NormalizeBaseURL(candidate); err == nil {
		r.base = base
	}
	return r
}

// Resolve returns an absolute URL for ref, or the placeholder when ref is
// empty or cannot be resolved.
func (r MediaResolver) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return r.placeholder
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if r.base == "" {
		return r.placeholder
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return r.base + ref
}

// PostURL returns the shareable web link for a post.
func PostURL(webURL, postID string) string {
	base := strings.TrimRight(strings.TrimSpace(webURL), "/")
	if base == "" || postID == "" {
		return ""
	}
	return base + "/posts/" + url.PathEscape(postID)
}
