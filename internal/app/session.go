// Package app builds the explicitly constructed context shared by every
// surface: configuration, the API client, the event bus, the coordinator and
// the signed-in user.
package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/dialog"
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/feed"
	"github.com/adamavenir/gram/internal/types"
)

// Option configures a Session.
type Option func(*settings)

type settings struct {
	httpClient    *http.Client
	credentials   *core.Credentials
	watch         bool
	onCredentials func(signedIn bool)
}

// WithHTTPClient replaces the API transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithCredentials uses creds instead of reading the credentials file.
func WithCredentials(creds *core.Credentials) Option {
	return func(s *settings) { s.credentials = creds }
}

// WithCredentialWatch reloads the token when the credentials file changes and
// calls fn with whether a token is now present.
func WithCredentialWatch(fn func(signedIn bool)) Option {
	return func(s *settings) {
		s.watch = true
		s.onCredentials = fn
	}
}

// Session owns the shared state for one run of the program. Create it at
// startup and Close it at shutdown.
type Session struct {
	Config core.Config
	Log    *core.Logger
	Client *api.Client
	Bus    *events.Bus
	Coord  *coordinator.Coordinator
	Media  core.MediaResolver

	settings settings

	mu      sync.RWMutex
	creds   *core.Credentials
	me      *types.Profile
	watcher *core.CredentialsWatcher
}

// New wires a session from cfg. Credentials are read from disk unless
// supplied.
func New(cfg core.Config, log *core.Logger, opts ...Option) (*Session, error) {
	var st settings
	for _, opt := range opts {
		opt(&st)
	}

	s := &Session{
		Config:   cfg,
		Log:      log,
		Bus:      events.New(),
		Media:    core.NewMediaResolver(cfg.APIURL, cfg.MediaURL, core.PlaceholderAvatar),
		settings: st,
	}
	if st.credentials != nil {
		s.creds = st.credentials
	} else {
		creds, err := core.LoadCredentials()
		if err != nil {
			return nil, err
		}
		s.creds = creds
	}

	clientOpts := []api.Option{api.WithTimeout(cfg.Timeout()), api.WithLogger(log)}
	if st.httpClient != nil {
		clientOpts = append([]api.Option{api.WithHTTPClient(st.httpClient)}, clientOpts...)
	}
	client, err := api.NewClient(cfg.APIURL, api.TokenFunc(s.token), clientOpts...)
	if err != nil {
		return nil, err
	}
	s.Client = client
	s.Coord = coordinator.New(client, s.Bus, coordinator.WithLogger(log))
	s.Bus.Subscribe(s.trackMe)
	return s, nil
}

// trackMe keeps the signed-in profile current from profile and follow events.
func (s *Session) trackMe(e events.Event) {
	if e.Entity.Kind != types.KindUser || e.Profile == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.me == nil || s.me.ID != e.Entity.ID {
		return
	}
	snapshot := e.Profile.Clone()
	s.me = &snapshot
}

func (s *Session) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Token
}

// SignedIn reports whether a token is available.
func (s *Session) SignedIn() bool {
	return strings.TrimSpace(s.token()) != ""
}

// Open fetches the signed-in user and starts the credentials watcher when
// requested. Without a token it returns api.ErrUnauthenticated and makes no
// network call.
func (s *Session) Open(ctx context.Context) error {
	if s.settings.watch {
		if err := s.startWatcher(ctx); err != nil {
			s.Log.Warnf("credentials watcher unavailable: %v", err)
		}
	}
	_, err := s.RefreshMe(ctx)
	return err
}

// RefreshMe re-reads the signed-in user's profile.
func (s *Session) RefreshMe(ctx context.Context) (*types.Profile, error) {
	me, err := s.Client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			return nil, err
		}
		return nil, coordinator.Normalize(err)
	}
	s.mu.Lock()
	s.me = me
	s.mu.Unlock()
	return me, nil
}

// Me returns the signed-in user, or the zero profile before Open succeeds.
func (s *Session) Me() types.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.me == nil {
		return types.Profile{}
	}
	return s.me.Clone()
}

// SetMe records a newer snapshot of the signed-in user.
func (s *Session) SetMe(p types.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := p.Clone()
	s.me = &snapshot
}

func (s *Session) startWatcher(ctx context.Context) error {
	path, err := core.CredentialsPath()
	if err != nil {
		return err
	}
	w, err := core.WatchCredentials(ctx, path, s.Log, s.reloadCredentials)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return nil
}

func (s *Session) reloadCredentials() {
	creds, err := core.LoadCredentials()
	if err != nil {
		s.Log.Warnf("reload credentials: %v", err)
		return
	}
	s.mu.Lock()
	s.creds = creds
	switched := creds != nil && s.me != nil && creds.Username != "" && !strings.EqualFold(creds.Username, s.me.Username)
	if creds == nil || switched {
		s.me = nil
	}
	s.mu.Unlock()

	if switched {
		if _, err := s.RefreshMe(context.Background()); err != nil {
			s.Log.Warnf("reload signed-in user: %v", err)
		}
	}

	signedIn := s.SignedIn()
	s.Log.Debugf("credentials changed (signed in: %v)", signedIn)
	if s.settings.onCredentials != nil {
		s.settings.onCredentials(signedIn)
	}
}

// Close stops the credentials watcher.
func (s *Session) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		return w.Close()
	}
	return nil
}

func (s *Session) author() types.Author {
	me := s.Me()
	return types.Author{ID: me.ID, Username: me.Username, FullName: me.FullName, Avatar: me.Avatar}
}

// Feed returns an unmounted home feed.
func (s *Session) Feed(opts ...feed.Option) *feed.Subscriber {
	return feed.NewFeed(s.Bus, s.Client.Feed, append([]feed.Option{feed.WithLogger(s.Log)}, opts...)...)
}

// Explore returns an unmounted explore grid.
func (s *Session) Explore(opts ...feed.Option) *feed.Subscriber {
	return feed.NewExplore(s.Bus, s.Client.Explore, append([]feed.Option{feed.WithLogger(s.Log)}, opts...)...)
}

// ProfileGrid returns an unmounted grid for username. The signed-in user's own
// grid is matched by id so new posts appear without a fetch.
func (s *Session) ProfileGrid(username string, opts ...feed.Option) *feed.Subscriber {
	owner := types.Author{Username: username}
	if me := s.author(); strings.EqualFold(me.Username, username) {
		owner = me
	}
	load := func(ctx context.Context) ([]types.Post, error) {
		return s.Client.UserPosts(ctx, username)
	}
	return feed.NewProfileGrid(s.Bus, owner, load, append([]feed.Option{feed.WithLogger(s.Log)}, opts...)...)
}

// ProfileHeader returns an unmounted header for username.
func (s *Session) ProfileHeader(username string, opts ...feed.Option) *feed.ProfileHeader {
	base := []feed.Option{feed.WithLogger(s.Log), feed.WithViewer(s.Me)}
	return feed.NewProfileHeader(s.Bus, s.Client, s.Coord, username, s.Me(), append(base, opts...)...)
}

// CreateDialog returns a closed create dialog.
func (s *Session) CreateDialog() *dialog.CreateDialog {
	return dialog.NewCreateDialog(s.Coord)
}

// EditDialog returns a closed caption editor.
func (s *Session) EditDialog() *dialog.EditDialog {
	return dialog.NewEditDialog(s.Coord)
}

// ActionsSheet returns a closed actions sheet linking under the web URL.
func (s *Session) ActionsSheet() *dialog.ActionsSheet {
	return dialog.NewActionsSheet(s.Coord, s.Config.WebURL)
}

// DetailViewer returns a closed viewer acting as the signed-in user.
func (s *Session) DetailViewer(opts ...dialog.Option) *dialog.DetailViewer {
	base := []dialog.Option{dialog.WithLogger(s.Log), dialog.WithViewerID(func() string { return s.Me().ID })}
	return dialog.NewDetailViewer(s.Bus, s.Client, s.Coord, s.Me().ID, append(base, opts...)...)
}

// ProfileEditor returns a closed profile editor.
func (s *Session) ProfileEditor(opts ...dialog.Option) *dialog.ProfileEditor {
	return dialog.NewProfileEditor(s.Client, s.Coord, append([]dialog.Option{dialog.WithLogger(s.Log)}, opts...)...)
}
