// Package tui is the interactive terminal client: feed, explore and profile
// tabs with modal dialogs for posting, editing and viewing posts.
package tui

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adamavenir/gram/internal/app"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/dialog"
	"github.com/adamavenir/gram/internal/feed"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// Options configure the TUI.
type Options struct {
	Session *app.Session
	// Profile opens the profile tab on this username instead of the
	// signed-in user.
	Profile string
	// Notify sends a desktop notification when a post is shared.
	Notify bool
}

// Run starts the TUI and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	model := NewModel(ctx, opts)
	fmt.Printf("\033]0;%s\007", "gram")

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	model.notifier.attach(program)
	_, err := program.Run()
	model.Close()
	return err
}

type tab int

const (
	tabFeed tab = iota
	tabExplore
	tabProfile
)

var tabNames = []string{"Feed", "Explore", "Profile"}

type modalKind int

const (
	modalNone modalKind = iota
	modalCreate
	modalEdit
	modalSheet
	modalDetail
	modalProfile
)

// refreshMsg tells Update that list or dialog state changed off the loop.
type refreshMsg struct{}

// notifier forwards change callbacks to the program. Callbacks may fire from
// any goroutine, including inside Update, so sends are coalesced and never
// block the caller.
type notifier struct {
	mu      sync.Mutex
	program *tea.Program
	pending atomic.Bool
}

func (n *notifier) attach(p *tea.Program) {
	n.mu.Lock()
	n.program = p
	n.mu.Unlock()
}

func (n *notifier) changed() {
	n.mu.Lock()
	p := n.program
	n.mu.Unlock()
	if p == nil || !n.pending.CompareAndSwap(false, true) {
		return
	}
	go p.Send(refreshMsg{})
}

func (n *notifier) delivered() {
	n.pending.Store(false)
}

// Model implements the gram TUI.
type Model struct {
	ctx         context.Context
	session     *app.Session
	notifier    *notifier
	notify      bool
	zoneManager *zone.Manager
	clipboard   dialog.Clipboard
	viewport    viewport.Model
	width       int
	height      int

	tab      tab
	feed     *feed.Subscriber
	explore  *feed.Subscriber
	grid     *feed.Subscriber
	header   *feed.ProfileHeader
	profile  string
	selected [3]int

	status    string
	statusErr bool

	modal        modalKind
	sheetReturn  modalKind
	create       *dialog.CreateDialog
	edit         *dialog.EditDialog
	sheet        *dialog.ActionsSheet
	sheetIndex   int
	detail       *dialog.DetailViewer
	commentIndex int
	commenting   bool
	editor       *dialog.ProfileEditor

	focus         int
	emojiOpen     bool
	emojiIndex    int
	imageInput    textinput.Model
	captionInput  textinput.Model
	editInput     textarea.Model
	commentInput  textinput.Model
	profileInputs []textinput.Model

	lastClickID string
	lastClickAt time.Time
}

// NewModel builds the model around an opened session.
func NewModel(ctx context.Context, opts Options) *Model {
	s := opts.Session
	n := &notifier{}
	onChange := feed.WithOnChange(n.changed)
	dialogChange := dialog.WithOnChange(n.changed)

	profile := opts.Profile
	if profile == "" {
		profile = s.Me().Username
	}

	m := &Model{
		ctx:          ctx,
		session:      s,
		notifier:     n,
		notify:       opts.Notify,
		zoneManager:  zone.New(),
		clipboard:    systemClipboard{},
		viewport:     viewport.New(0, 0),
		feed:         s.Feed(onChange),
		explore:      s.Explore(onChange),
		profile:      profile,
		create:       s.CreateDialog(),
		edit:         s.EditDialog(),
		sheet:        s.ActionsSheet(),
		detail:       s.DetailViewer(dialogChange),
		editor:       s.ProfileEditor(dialogChange),
		imageInput:   newImageInput(),
		captionInput: newCaptionInput(),
		editInput:    newEditInput(),
		commentInput: newCommentInput(),
	}
	m.profileInputs = newProfileInputs()
	if profile != "" {
		m.grid = s.ProfileGrid(profile, onChange)
		m.header = s.ProfileHeader(profile, onChange)
	}
	if opts.Profile != "" {
		m.tab = tabProfile
	}
	return m
}

func newImageInput() textinput.Model {
	in := textinput.New()
	in.Placeholder = "path/to/photo.jpg"
	in.Prompt = "image › "
	return in
}

func newCaptionInput() textinput.Model {
	in := textinput.New()
	in.Placeholder = "Write a caption..."
	in.Prompt = "caption › "
	in.CharLimit = core.MaxCaptionLength
	return in
}

func newEditInput() textarea.Model {
	in := textarea.New()
	in.Placeholder = "Write a caption..."
	in.ShowLineNumbers = false
	in.CharLimit = core.MaxCaptionLength
	in.SetHeight(5)
	return in
}

func newCommentInput() textinput.Model {
	in := textinput.New()
	in.Placeholder = "Add a comment..."
	in.Prompt = "› "
	return in
}

var profileFields = []string{"username", "website", "about", "avatar"}

func newProfileInputs() []textinput.Model {
	inputs := make([]textinput.Model, len(profileFields))
	for i, name := range profileFields {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%-9s› ", name)
		if name == "about" {
			in.CharLimit = core.MaxAboutLength
		}
		if name == "avatar" {
			in.Placeholder = "path to a new avatar (optional)"
		}
		inputs[i] = in
	}
	return inputs
}

// Init mounts the lists.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.mountCmd("feed", m.feed.Mount),
		m.mountCmd("explore", m.explore.Mount),
	}
	if m.grid != nil {
		cmds = append(cmds, m.mountCmd("profile", m.grid.Mount), m.mountCmd("header", m.header.Mount))
	}
	return tea.Batch(cmds...)
}

// Close unmounts every list and closes open dialogs.
func (m *Model) Close() {
	m.feed.Unmount()
	m.explore.Unmount()
	if m.grid != nil {
		m.grid.Unmount()
		m.header.Unmount()
	}
	_ = m.detail.Close()
}

func (m *Model) list(t tab) *feed.Subscriber {
	switch t {
	case tabFeed:
		return m.feed
	case tabExplore:
		return m.explore
	default:
		return m.grid
	}
}

// openProfile switches the profile tab to username, remounting its grid.
func (m *Model) openProfile(username string) tea.Cmd {
	if username == "" {
		return nil
	}
	m.tab = tabProfile
	if m.grid != nil && username == m.profile {
		return nil
	}
	if m.grid != nil {
		m.grid.Unmount()
		m.header.Unmount()
	}
	onChange := feed.WithOnChange(m.notifier.changed)
	m.profile = username
	m.grid = m.session.ProfileGrid(username, onChange)
	m.header = m.session.ProfileHeader(username, onChange)
	m.selected[tabProfile] = 0
	return tea.Batch(m.mountCmd("profile", m.grid.Mount), m.mountCmd("header", m.header.Mount))
}
