package tui

import (
	"fmt"
	"strings"

	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/dialog"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

func (m *Model) modalWidth() int {
	return max(min(m.width-4, modalMaxWidth), 20)
}

func (m *Model) renderModal() string {
	var title, content string
	switch m.modal {
	case modalCreate:
		title, content = "New post", m.renderCreate()
	case modalEdit:
		title, content = "Edit caption", m.renderEdit()
	case modalSheet:
		title, content = "", m.renderSheet()
	case modalDetail:
		title, content = "Post", m.renderDetail()
	case modalProfile:
		title, content = "Edit profile", m.renderProfileEditor()
	}
	header := m.zoneManager.Mark("modal-close", dim("✕"))
	if title != "" {
		header = alignLine(lipgloss.NewStyle().Bold(true).Render(title), header, m.modalWidth()-4)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(modalBorder).
		Padding(0, 1).
		Width(m.modalWidth())
	return box.Render(header + "\n\n" + content)
}

func errorLine(err error) string {
	if err == nil {
		return ""
	}
	return "\n" + lipgloss.NewStyle().Foreground(errorColor).Render(err.Error())
}

func (m *Model) renderCreate() string {
	var b strings.Builder
	b.WriteString(m.imageInput.View())
	if path := m.create.ImagePath(); path != "" {
		b.WriteString("\n" + dim("attached "+path))
	}
	b.WriteString("\n\n" + m.captionInput.View())

	remaining := m.create.Remaining()
	counter := fmt.Sprintf("%d left", remaining)
	if remaining < 100 {
		counter = lipgloss.NewStyle().Foreground(dangerColor).Render(counter)
	} else {
		counter = dim(counter)
	}
	b.WriteString("\n" + alignLine("", counter, m.modalWidth()-4))

	if m.emojiOpen {
		b.WriteString("\n" + m.renderEmojiPicker())
	}
	if m.create.State() == dialog.Submitting {
		b.WriteString("\n" + dim("Sharing..."))
	} else if m.create.CanShare() {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(activeTabBg).Render("ctrl+s to share"))
	}
	b.WriteString(errorLine(m.create.Err()))
	return b.String()
}

func (m *Model) renderEmojiPicker() string {
	cells := make([]string, len(dialog.Emojis))
	for i, emoji := range dialog.Emojis {
		cell := " " + emoji + " "
		if i == m.emojiIndex {
			cell = lipgloss.NewStyle().Background(selectedBg).Render(cell)
		}
		cells[i] = m.zoneManager.Mark(emojiZone(i), cell)
	}
	return lipgloss.NewStyle().Width(m.modalWidth() - 4).Render(strings.Join(cells, ""))
}

func (m *Model) renderEdit() string {
	var b strings.Builder
	b.WriteString(m.editInput.View())
	left := core.MaxCaptionLength - core.RuneLen(m.edit.Caption())
	b.WriteString("\n" + alignLine("", dim(fmt.Sprintf("%d left", left)), m.modalWidth()-4))
	if m.edit.State() == dialog.Submitting {
		b.WriteString("\n" + dim("Saving..."))
	}
	b.WriteString(errorLine(m.edit.Err()))
	return b.String()
}

func (m *Model) renderSheet() string {
	items := m.sheet.Items()
	lines := make([]string, 0, len(items))
	for i, item := range items {
		style := lipgloss.NewStyle().Width(m.modalWidth() - 4).Align(lipgloss.Center)
		switch {
		case item.Disabled:
			style = style.Foreground(dimColor)
		case item.Danger:
			style = style.Foreground(dangerColor).Bold(true)
		}
		if i == m.sheetIndex {
			style = style.Background(selectedBg)
		}
		lines = append(lines, m.zoneManager.Mark(itemZone(i), style.Render(item.Label)))
	}
	return strings.Join(lines, "\n") + errorLine(m.sheet.Err())
}

func (m *Model) renderDetail() string {
	post, ok := m.detail.Post()
	if !ok {
		if err := m.detail.Err(); err != nil {
			return errorLine(err)
		}
		return dim("loading...")
	}
	width := m.modalWidth() - 4
	var b strings.Builder

	author := lipgloss.NewStyle().Bold(true).Foreground(colorForUser(post.Author.Username)).Render("@" + displayName(post.Author))
	when := ""
	if !post.CreatedAt.IsZero() {
		when = dim(humanize.Time(post.CreatedAt))
	}
	b.WriteString(alignLine(author, when, width))
	if post.Image != "" {
		b.WriteString("\n" + dim(m.session.Media.Resolve(post.Image)))
	}
	if post.Caption != "" {
		b.WriteString("\n\n" + lipgloss.NewStyle().Width(width).Render(post.Caption))
	}

	heart := "♡"
	heartStyle := lipgloss.NewStyle()
	if m.detail.Liked() {
		heart = "♥"
		heartStyle = heartStyle.Foreground(likedColor)
	}
	likes := m.zoneManager.Mark("detail-like", heartStyle.Render(fmt.Sprintf("%s %s", heart, humanize.Comma(int64(post.LikeCount())))))
	b.WriteString("\n\n" + likes + dim(fmt.Sprintf("  💬 %d", post.CommentCount())))

	meID := m.session.Me().ID
	if len(post.Comments) > 0 {
		b.WriteString("\n")
	}
	for i, c := range post.Comments {
		name := lipgloss.NewStyle().Foreground(colorForUser(c.Author.Username)).Render(displayName(c.Author))
		mark := "♡"
		if c.LikedBy(meID) {
			mark = lipgloss.NewStyle().Foreground(likedColor).Render("♥")
		}
		like := m.zoneManager.Mark("comment-like-"+c.ID, fmt.Sprintf("%s %d", mark, len(c.Likes)))
		line := alignLine(name+" "+c.Text, like, width)
		if i == m.commentIndex && !m.commenting {
			line = lipgloss.NewStyle().Background(selectedBg).Render(line)
		}
		b.WriteString("\n" + line)
	}

	if m.commenting {
		b.WriteString("\n\n" + m.commentInput.View())
		if m.detail.Sending() {
			b.WriteString("\n" + dim("Sending..."))
		}
	}
	switch m.detail.State() {
	case dialog.Submitting:
		b.WriteString("\n" + dim("Deleting..."))
	case dialog.Ready:
		if m.detail.IsMine() {
			b.WriteString("\n" + dim("d delete"))
		}
	}
	b.WriteString(errorLine(m.detail.Err()))
	b.WriteString(errorLine(m.detail.Notice()))
	return b.String()
}

func (m *Model) renderProfileEditor() string {
	switch m.editor.State() {
	case dialog.Loading:
		return dim("loading...")
	case dialog.Closed:
		return ""
	}
	var b strings.Builder
	for i, in := range m.profileInputs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(in.View())
	}
	if m.editor.State() == dialog.Submitting {
		b.WriteString("\n\n" + dim("Saving..."))
	} else if m.editor.Dirty() {
		b.WriteString("\n\n" + dim("unsaved changes"))
	}
	b.WriteString(errorLine(m.editor.Err()))
	return b.String()
}
