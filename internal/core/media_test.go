package core

import "testing"

func TestMediaResolver(t *testing.T) {
	cases := []struct {
		name     string
		apiURL   string
		mediaURL string
		ref      string
		want     string
	}{
		{"absolute passthrough", "http://h/api", "", "https://cdn/x.png", "https://cdn/x.png"},
		{"strips api suffix", "http://h:5000/api", "", "/uploads/a.png", "http://h:5000/uploads/a.png"},
		{"strips api suffix with slash", "http://h:5000/api/", "", "uploads/a.png", "http://h:5000/uploads/a.png"},
		{"media url wins", "http://h/api", "https://media.h", "/a.png", "https://media.h/a.png"},
		{"empty ref", "http://h/api", "", "", PlaceholderAvatar},
		{"unusable base", "", "", "/a.png", PlaceholderAvatar},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewMediaResolver(tc.apiURL, tc.mediaURL, PlaceholderAvatar)
			if got := r.Resolve(tc.ref); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPostURL(t *testing.T) {
	if got := PostURL("https://gram.example/", "p1"); got != "https://gram.example/posts/p1" {
		t.Fatalf("unexpected post url %q", got)
	}
	if got := PostURL("", "p1"); got != "" {
		t.Fatalf("expected empty url without web base, got %q", got)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	got, err := NormalizeBaseURL(" https://h/api/ ")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "https://h/api" {
		t.Fatalf("unexpected %q", got)
	}
	if _, err := NormalizeBaseURL("h/api"); err == nil {
		t.Fatalf("expected error without scheme")
	}
}
