package tui

import (
	"fmt"
	"strings"

	"github.com/adamavenir/gram/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

const (
	// tab bar, blank line and status line
	bodyChrome    = 3
	modalMaxWidth = 72
)

// View renders the UI.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	var body string
	if m.modal != modalNone {
		body = lipgloss.Place(m.width, max(m.height-bodyChrome, 1), lipgloss.Center, lipgloss.Center, m.renderModal())
	} else {
		m.viewport.SetContent(m.renderBody())
		m.keepSelectionVisible()
		body = m.viewport.View()
	}
	output := lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), "", body, m.renderStatusLine())
	return m.zoneManager.Scan(output)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(tabNames)+1)
	for i, name := range tabNames {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(inactiveTabFg)
		if tab(i) == m.tab {
			style = style.Bold(true).Background(activeTabBg).Foreground(lipgloss.Color("255"))
		}
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == tabProfile && m.profile != "" {
			label = fmt.Sprintf("%d @%s", i+1, m.profile)
		}
		parts = append(parts, m.zoneManager.Mark(tabZone(i), style.Render(label)))
	}
	left := strings.Join(parts, " ")
	me := m.session.Me()
	right := ""
	if me.Username != "" {
		right = lipgloss.NewStyle().Foreground(colorForUser(me.Username)).Render("@" + me.Username)
	}
	return alignLine(left, right, m.width)
}

func (m *Model) renderBody() string {
	var lines []string
	if m.tab == tabProfile {
		lines = append(lines, m.renderProfileHeader()...)
	}
	l := m.list(m.tab)
	if l == nil {
		return strings.Join(append(lines, dim("sign in to see your profile")), "\n")
	}
	if err := l.Err(); err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(errorColor).Render("error: "+err.Error()))
	}
	posts := l.Posts()
	if len(posts) == 0 {
		if l.Loading() {
			return strings.Join(append(lines, dim("loading...")), "\n")
		}
		return strings.Join(append(lines, dim("no posts yet")), "\n")
	}
	meID := m.session.Me().ID
	for i, post := range posts {
		lines = append(lines, m.renderPostRow(post, meID, i == m.selected[m.tab]))
	}
	return strings.Join(lines, "\n")
}

// headerLines is how many body lines precede the first post row.
func (m *Model) headerLines() int {
	if m.tab != tabProfile {
		return 0
	}
	return len(m.renderProfileHeader())
}

func (m *Model) keepSelectionVisible() {
	row := m.headerLines() + m.selected[m.tab]
	switch {
	case row < m.viewport.YOffset:
		m.viewport.SetYOffset(row)
	case row >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(row - m.viewport.Height + 1)
	}
}

func (m *Model) renderPostRow(post types.Post, meID string, selected bool) string {
	author := lipgloss.NewStyle().Foreground(colorForUser(post.Author.Username)).Render("@" + displayName(post.Author))
	heart := "♡"
	heartStyle := lipgloss.NewStyle().Foreground(statusColor)
	if post.LikedBy(meID) {
		heart = "♥"
		heartStyle = heartStyle.Foreground(likedColor)
	}
	like := m.zoneManager.Mark("like-"+post.ID, heartStyle.Render(fmt.Sprintf("%s %d", heart, post.LikeCount())))
	meta := fmt.Sprintf("%s  💬 %d", like, post.CommentCount())
	if !post.CreatedAt.IsZero() {
		meta += "  " + dim(humanize.Time(post.CreatedAt))
	}

	caption := strings.Join(strings.Fields(post.Caption), " ")
	if caption == "" {
		caption = dim("(no caption)")
	}
	marker := "  "
	if selected {
		marker = "▸ "
	}
	left := ansi.Truncate(marker+author+"  "+caption, max(m.width-ansi.StringWidth(meta)-2, 10), "…")
	line := alignLine(left, meta, m.width)
	if selected {
		line = lipgloss.NewStyle().Background(selectedBg).Width(m.width).Render(line)
	}
	return m.zoneManager.Mark(postZone(post.ID), line)
}

func (m *Model) renderProfileHeader() []string {
	if m.header == nil {
		return nil
	}
	if !m.header.Loaded() {
		if err := m.header.Err(); err != nil {
			return []string{lipgloss.NewStyle().Foreground(errorColor).Render("error: " + err.Error()), ""}
		}
		return []string{dim("loading @" + m.profile + "..."), ""}
	}
	st := m.header.State()
	user := st.View.User
	name := lipgloss.NewStyle().Bold(true).Foreground(colorForUser(user.Username)).Render("@" + user.Username)
	if user.FullName != "" {
		name += "  " + user.FullName
	}
	stats := fmt.Sprintf("%s posts  %s followers  %s following",
		humanize.Comma(int64(st.View.Stats.Posts)),
		humanize.Comma(int64(st.View.Stats.Followers)),
		humanize.Comma(int64(st.View.Stats.Following)))

	right := ""
	if st.IsSelf(m.session.Me().ID) {
		right = dim("e edit profile")
	} else {
		label := "[ Follow ]"
		if st.Following {
			label = "[ Following ]"
		}
		if m.header.Pending() {
			label = dim(label)
		}
		right = m.zoneManager.Mark("follow", label)
	}

	lines := []string{alignLine(name, right, m.width), stats}
	if user.About != "" {
		lines = append(lines, user.About)
	}
	if user.Website != "" {
		lines = append(lines, dim(user.Website))
	}
	return append(lines, "")
}

func (m *Model) renderStatusLine() string {
	left := m.status
	style := lipgloss.NewStyle().Foreground(statusColor)
	if m.statusErr {
		style = style.Foreground(errorColor)
	}
	return alignLine(style.Render(left), dim(m.keyHints()), m.width)
}

func (m *Model) keyHints() string {
	switch m.modal {
	case modalCreate:
		if m.emojiOpen {
			return "←/→ pick · enter insert · esc back"
		}
		return "tab field · ctrl+o emoji · ctrl+s share · esc cancel"
	case modalEdit:
		return "ctrl+s save · esc cancel"
	case modalSheet:
		return "↑/↓ move · enter choose · esc close"
	case modalDetail:
		if m.commenting {
			return "enter send · esc back"
		}
		return "l like · c comment · L like comment · a actions · esc close"
	case modalProfile:
		return "tab field · ctrl+s save · esc cancel"
	}
	hints := "enter open · l like · a actions · n new · e profile · q quit"
	if m.tab == tabProfile {
		hints = "f follow · " + hints
	}
	return hints
}

func displayName(a types.Author) string {
	if a.Username != "" {
		return a.Username
	}
	return a.ID
}

func dim(s string) string {
	return lipgloss.NewStyle().Foreground(dimColor).Render(s)
}

func alignLine(left, right string, width int) string {
	if width <= 0 || right == "" {
		return left
	}
	leftWidth := ansi.StringWidth(left)
	rightWidth := ansi.StringWidth(right)
	if leftWidth+rightWidth+1 > width {
		return left
	}
	return left + strings.Repeat(" ", width-leftWidth-rightWidth) + right
}
