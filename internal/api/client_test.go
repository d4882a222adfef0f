package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamavenir/gram/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL+"/api", StaticToken(token))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestMissingTokenShortCircuits(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, "")

	if _, err := client.Feed(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := client.ToggleLike(context.Background(), "p1"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no network calls, got %d", calls.Load())
	}
}

func TestRequestsCarryBearerAndIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts/p1/like" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization %q", got)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Errorf("expected idempotency key on mutation")
		}
		_, _ = io.WriteString(w, `{"_id":"p1","likes":["me"]}`)
	}, "tok")

	post, err := client.ToggleLike(context.Background(), "p1")
	if err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	if post.ID != "p1" || !post.LikedBy("me") {
		t.Fatalf("unexpected post %+v", post)
	}
}

func TestAPIErrorCarriesStatusAndMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Post not found"}`)
	}, "tok")

	_, err := client.GetPost(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Post not found" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestAPIErrorPlainTextBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, "tok")

	err := client.DeletePost(context.Background(), "p1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "boom" {
		t.Fatalf("expected plain-text api error, got %v", err)
	}
}

func TestPostListToleratesNonArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/posts/feed":
			_, _ = io.WriteString(w, `{"posts":[]}`)
		case "/api/posts/explore":
			_, _ = io.WriteString(w, `[{"_id":"a"},{"id":"b"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, "tok")

	feed, err := client.Feed(context.Background())
	if err != nil || len(feed) != 0 {
		t.Fatalf("expected empty feed, got %v %v", feed, err)
	}
	explore, err := client.Explore(context.Background())
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if len(explore) != 2 || explore[0].ID != "a" || explore[1].ID != "b" {
		t.Fatalf("unexpected explore %+v", explore)
	}
}

func TestCreatePostSendsMultipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/posts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "cat.png" || string(data) != "PNGDATA" {
			t.Errorf("unexpected upload %s %q", header.Filename, data)
		}
		if got := r.FormValue("caption"); got != "hello" {
			t.Errorf("unexpected caption %q", got)
		}
		_, _ = io.WriteString(w, `{"_id":"new","caption":"hello","author":{"_id":"me"}}`)
	}, "tok")

	post, err := client.CreatePost(context.Background(), NewPost{
		Image:   Upload{Filename: "cat.png", Data: []byte("PNGDATA")},
		Caption: "hello",
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ID != "new" || post.Author.ID != "me" {
		t.Fatalf("unexpected post %+v", post)
	}
}

func TestUpdateMeRereadsProfile(t *testing.T) {
	var patched atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPatch && r.URL.Path == "/api/users/me":
			var body types.ProfileUpdate
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode: %v", err)
			}
			if body.About != "hi" {
				t.Errorf("unexpected about %q", body.About)
			}
			patched.Store(true)
			_, _ = io.WriteString(w, `{"ok":true}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/users/me":
			_, _ = io.WriteString(w, `{"_id":"me","username":"alice","about":"hi"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, "tok")

	me, err := client.UpdateMe(context.Background(), types.ProfileUpdate{Username: "alice", About: "hi"})
	if err != nil {
		t.Fatalf("update me: %v", err)
	}
	if !patched.Load() || me.About != "hi" || me.ID != "me" {
		t.Fatalf("unexpected profile %+v", me)
	}
}

func TestLoginIsPublic(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login should not send a bearer token")
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "alice" || body["password"] != "pw" {
			t.Errorf("unexpected login body %v", body)
		}
		_, _ = io.WriteString(w, `{"token":"jwt"}`)
	}, "")

	token, err := client.Login(context.Background(), " alice ", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "jwt" {
		t.Fatalf("expected jwt, got %q", token)
	}
}

func TestTimeoutSurfacesAsError(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	}, "tok")
	defer close(release)
	WithTimeout(50 * time.Millisecond)(client)

	_, err := client.GetPost(context.Background(), "p1")
	if err == nil || !strings.Contains(err.Error(), "Client.Timeout") {
		t.Fatalf("expected client timeout, got %v", err)
	}
}
