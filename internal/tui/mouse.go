package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/adamavenir/gram/internal/dialog"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.modal == modalNone {
			m.moveSelection(-1)
		}
		return m, nil
	case tea.MouseButtonWheelDown:
		if m.modal == modalNone {
			m.moveSelection(1)
		}
		return m, nil
	}
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if m.modal != modalNone {
		return m, m.handleModalClick(msg)
	}

	for i := range tabNames {
		if m.zoneManager.Get(tabZone(i)).InBounds(msg) {
			if tab(i) == tabProfile && m.grid == nil {
				return m, m.openProfile(m.session.Me().Username)
			}
			m.tab = tab(i)
			return m, nil
		}
	}
	if m.tab == tabProfile && m.header != nil && m.zoneManager.Get("follow").InBounds(msg) {
		return m, m.actionCmd("follow", m.header.Follow)
	}

	l := m.list(m.tab)
	if l == nil {
		return m, nil
	}
	for i, id := range l.IDs() {
		if m.zoneManager.Get("like-" + id).InBounds(msg) {
			postID := id
			return m, m.actionCmd("like", func(ctx context.Context) error {
				_, err := m.session.Coord.ToggleLike(ctx, postID)
				return err
			})
		}
		if !m.zoneManager.Get(postZone(id)).InBounds(msg) {
			continue
		}
		m.selected[m.tab] = i
		if m.isDoubleClick(id) {
			return m, m.openDetail(id)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) isDoubleClick(id string) bool {
	now := time.Now()
	double := m.lastClickID == id && now.Sub(m.lastClickAt) < doubleClickWindow
	m.lastClickID = id
	m.lastClickAt = now
	if double {
		m.lastClickID = ""
	}
	return double
}

func (m *Model) handleModalClick(msg tea.MouseMsg) tea.Cmd {
	if m.zoneManager.Get("modal-close").InBounds(msg) {
		switch m.modal {
		case modalSheet:
			return m.closeSheet()
		default:
			_, cmd := m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEsc})
			return cmd
		}
	}
	switch m.modal {
	case modalSheet:
		for i, item := range m.sheet.Items() {
			if m.zoneManager.Get(itemZone(i)).InBounds(msg) {
				m.sheetIndex = i
				return m.activateItem(item)
			}
		}
	case modalCreate:
		if !m.emojiOpen {
			return nil
		}
		for i := range dialog.Emojis {
			if m.zoneManager.Get(emojiZone(i)).InBounds(msg) {
				m.emojiIndex = i
				_, cmd := m.handleEmojiKey(tea.KeyMsg{Type: tea.KeyEnter})
				return cmd
			}
		}
	case modalDetail:
		if m.zoneManager.Get("detail-like").InBounds(msg) {
			return m.actionCmd("like", m.detail.ToggleLike)
		}
		if post, ok := m.detail.Post(); ok {
			for i, c := range post.Comments {
				if m.zoneManager.Get("comment-like-" + c.ID).InBounds(msg) {
					m.commentIndex = i
					id := c.ID
					return m.actionCmd("comment like", func(ctx context.Context) error {
						return m.detail.ToggleCommentLike(ctx, id)
					})
				}
			}
		}
	}
	return nil
}

func tabZone(i int) string   { return "tab-" + strconv.Itoa(i) }
func itemZone(i int) string  { return "item-" + strconv.Itoa(i) }
func emojiZone(i int) string { return "emoji-" + strconv.Itoa(i) }

func postZone(id string) string {
	return "post-" + strings.TrimSpace(id)
}
