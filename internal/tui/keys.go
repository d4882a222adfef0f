package tui

import (
	"context"

	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/dialog"
	"github.com/adamavenir/gram/internal/types"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.modal {
	case modalCreate:
		return m.handleCreateKey(msg)
	case modalEdit:
		return m.handleEditKey(msg)
	case modalSheet:
		return m.handleSheetKey(msg)
	case modalDetail:
		return m.handleDetailKey(msg)
	case modalProfile:
		return m.handleProfileKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "right":
		m.tab = (m.tab + 1) % tab(len(tabNames))
	case "shift+tab", "left":
		m.tab = (m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames))
	case "1":
		m.tab = tabFeed
	case "2":
		m.tab = tabExplore
	case "3":
		return m, m.openProfile(m.session.Me().Username)
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "g", "home":
		m.selected[m.tab] = 0
	case "G", "end":
		m.moveSelection(1 << 20)
	case "enter":
		if post, ok := m.selectedPost(); ok {
			return m, m.openDetail(post.ID)
		}
	case "l":
		if post, ok := m.selectedPost(); ok {
			id := post.ID
			return m, m.actionCmd("like", func(ctx context.Context) error {
				_, err := m.session.Coord.ToggleLike(ctx, id)
				return err
			})
		}
	case "a", ".":
		if post, ok := m.selectedPost(); ok {
			m.openSheet(post, modalNone)
		}
	case "p":
		if post, ok := m.selectedPost(); ok {
			return m, m.openProfile(post.Author.Username)
		}
	case "n":
		m.openCreate()
		return m, m.imageInput.Focus()
	case "e":
		return m, m.openEditor()
	case "f":
		if m.tab == tabProfile && m.header != nil {
			return m, m.actionCmd("follow", m.header.Follow)
		}
	case "r":
		if l := m.list(m.tab); l != nil {
			return m, m.mountCmd(l.Name(), l.Refresh)
		}
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	l := m.list(m.tab)
	if l == nil {
		return
	}
	n := len(l.IDs())
	m.selected[m.tab] = max(min(m.selected[m.tab]+delta, n-1), 0)
}

func (m *Model) selectedPost() (types.Post, bool) {
	l := m.list(m.tab)
	if l == nil {
		return types.Post{}, false
	}
	ids := l.IDs()
	i := m.selected[m.tab]
	if i < 0 || i >= len(ids) {
		return types.Post{}, false
	}
	return l.Get(ids[i])
}

func (m *Model) openDetail(postID string) tea.Cmd {
	m.blurInputs()
	m.modal = modalDetail
	m.commentIndex = 0
	m.commenting = false
	m.commentInput.SetValue("")
	return m.mountCmd("post", m.detail.Open(postID))
}

func (m *Model) openSheet(post types.Post, from modalKind) {
	m.sheet.Open(post, dialog.OptionsFor(post, m.session.Me().ID, true))
	m.sheetIndex = 0
	m.sheetReturn = from
	m.modal = modalSheet
}

func (m *Model) openCreate() {
	m.create.Open()
	m.imageInput.SetValue("")
	m.captionInput.SetValue("")
	m.focus = 0
	m.emojiOpen = false
	m.modal = modalCreate
}

func (m *Model) openEditor() tea.Cmd {
	for i := range m.profileInputs {
		m.profileInputs[i].SetValue("")
	}
	m.focus = 0
	m.modal = modalProfile
	return m.mountCmd("editor", m.editor.Open())
}

func (m *Model) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.emojiOpen {
		return m.handleEmojiKey(msg)
	}
	switch msg.String() {
	case "esc":
		if err := m.create.Close(); err != nil {
			m.setStatus("Sharing... wait for it to finish")
			return m, nil
		}
		m.closeModal()
		return m, nil
	case "tab", "shift+tab":
		return m, m.switchCreateFocus()
	case "enter":
		if m.focus == 0 {
			if m.attachImage() {
				return m, m.switchCreateFocus()
			}
			return m, nil
		}
	case "ctrl+o":
		if m.focus == 1 {
			m.emojiOpen = true
		}
		return m, nil
	case "ctrl+s":
		return m, m.shareCmd()
	}
	return m, m.updateFocusedInput(msg)
}

func (m *Model) switchCreateFocus() tea.Cmd {
	if m.focus == 0 {
		m.focus = 1
		m.imageInput.Blur()
		return m.captionInput.Focus()
	}
	m.focus = 0
	m.captionInput.Blur()
	return m.imageInput.Focus()
}

// attachImage reads the typed path into the dialog when it changed.
func (m *Model) attachImage() bool {
	path := m.imageInput.Value()
	if path == "" || path == m.create.ImagePath() {
		return path != ""
	}
	if err := m.create.SetImage(path); err != nil {
		m.setError(err)
		return false
	}
	m.setStatus("Image attached")
	return true
}

func (m *Model) shareCmd() tea.Cmd {
	if m.imageInput.Value() != "" && !m.attachImage() {
		return nil
	}
	run, err := m.create.Begin()
	if err != nil {
		m.setError(err)
		return nil
	}
	m.setStatus("Sharing...")
	return m.submitCmd(modalCreate, run)
}

func (m *Model) handleEmojiKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+o":
		m.emojiOpen = false
	case "left", "h":
		m.emojiIndex = (m.emojiIndex + len(dialog.Emojis) - 1) % len(dialog.Emojis)
	case "right", "l", "tab":
		m.emojiIndex = (m.emojiIndex + 1) % len(dialog.Emojis)
	case "enter", " ":
		pos := m.captionInput.Position()
		cursor := m.create.InsertEmoji(dialog.Emojis[m.emojiIndex], pos, pos)
		m.captionInput.SetValue(m.create.Caption())
		m.captionInput.SetCursor(cursor)
		m.emojiOpen = false
	}
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if err := m.edit.Close(); err != nil {
			m.setStatus("Saving... wait for it to finish")
			return m, nil
		}
		m.closeModal()
		return m, nil
	case "ctrl+s":
		run, err := m.edit.Begin()
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Saving...")
		return m, m.submitCmd(modalEdit, run)
	}
	return m, m.updateFocusedInput(msg)
}

func (m *Model) handleSheetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.sheet.Items()
	switch msg.String() {
	case "esc", "q":
		return m, m.closeSheet()
	case "j", "down", "tab":
		m.sheetIndex = min(m.sheetIndex+1, len(items)-1)
	case "k", "up", "shift+tab":
		m.sheetIndex = max(m.sheetIndex-1, 0)
	case "enter", " ":
		if m.sheetIndex < len(items) {
			return m, m.activateItem(items[m.sheetIndex])
		}
	}
	return m, nil
}

func (m *Model) closeSheet() tea.Cmd {
	if err := m.sheet.Close(); err != nil {
		m.setStatus(deletingStatus)
		return nil
	}
	m.modal = m.sheetReturn
	m.sheetReturn = modalNone
	return nil
}

func (m *Model) activateItem(item dialog.Item) tea.Cmd {
	if item.Disabled {
		return nil
	}
	post := m.sheet.Post()
	switch item.Action {
	case dialog.ActionDelete:
		run, err := m.sheet.Begin()
		if err != nil {
			m.setError(err)
			return nil
		}
		m.setStatus("Deleting...")
		return m.submitCmd(modalSheet, run)
	case dialog.ActionEdit:
		if m.sheetReturn == modalDetail && !m.leaveDetail() {
			return nil
		}
		if _, err := m.sheet.Choose(dialog.ActionEdit); err != nil {
			m.setError(err)
			return nil
		}
		m.sheetReturn = modalNone
		m.edit.Open(post)
		m.editInput.SetValue(post.Caption)
		m.modal = modalEdit
		return m.editInput.Focus()
	case dialog.ActionGoTo:
		if m.sheetReturn == modalDetail && !m.leaveDetail() {
			return nil
		}
		if _, err := m.sheet.Choose(dialog.ActionGoTo); err != nil {
			m.setError(err)
			return nil
		}
		m.closeModal()
		return m.openProfile(post.Author.Username)
	case dialog.ActionCopyLink:
		if err := m.sheet.CopyLink(m.clipboard); err != nil {
			m.setError(err)
			return resetCopyCmd()
		}
		m.setStatus("Link copied")
		m.modal = m.sheetReturn
		m.sheetReturn = modalNone
		return resetCopyCmd()
	case dialog.ActionCancel:
		if _, err := m.sheet.Choose(dialog.ActionCancel); err != nil {
			m.setError(err)
			return nil
		}
		m.modal = m.sheetReturn
		m.sheetReturn = modalNone
	}
	return nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.commenting {
		switch msg.String() {
		case "esc":
			m.commenting = false
			m.commentInput.Blur()
			return m, nil
		case "enter":
			m.detail.SetDraft(m.commentInput.Value())
			return m, m.actionCmd("comment", m.detail.AddComment)
		}
		return m, m.updateFocusedInput(msg)
	}

	post, loaded := m.detail.Post()
	switch msg.String() {
	case "esc", "q":
		if m.leaveDetail() {
			m.closeModal()
		}
	case "l":
		return m, m.actionCmd("like", m.detail.ToggleLike)
	case "j", "down":
		if loaded {
			m.commentIndex = min(m.commentIndex+1, max(len(post.Comments)-1, 0))
		}
	case "k", "up":
		m.commentIndex = max(m.commentIndex-1, 0)
	case "L":
		if loaded && m.commentIndex < len(post.Comments) {
			id := post.Comments[m.commentIndex].ID
			return m, m.actionCmd("comment like", func(ctx context.Context) error {
				return m.detail.ToggleCommentLike(ctx, id)
			})
		}
	case "c":
		if loaded {
			m.commenting = true
			m.commentInput.SetValue(m.detail.Draft())
			return m, m.commentInput.Focus()
		}
	case "a", ".":
		if m.detail.State() == dialog.Submitting {
			m.setStatus(deletingStatus)
			return m, nil
		}
		if loaded {
			m.openSheet(post, modalDetail)
		}
	case "d":
		if !m.detail.IsMine() {
			return m, nil
		}
		run, err := m.detail.Begin()
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Deleting...")
		return m, m.submitCmd(modalDetail, run)
	case "p":
		if loaded && m.leaveDetail() {
			m.closeModal()
			return m, m.openProfile(post.Author.Username)
		}
	case "x":
		m.detail.Dismiss()
	}
	return m, nil
}

const deletingStatus = "Deleting... wait for it to finish"

// leaveDetail closes the viewer unless its delete is still running.
func (m *Model) leaveDetail() bool {
	if err := m.detail.Close(); err != nil {
		m.setStatus(deletingStatus)
		return false
	}
	return true
}

func (m *Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if err := m.editor.Close(); err != nil {
			m.setStatus("Saving... wait for it to finish")
			return m, nil
		}
		m.closeModal()
		return m, nil
	case "tab", "down":
		return m, m.focusProfileInput(m.focus + 1)
	case "shift+tab", "up":
		return m, m.focusProfileInput(m.focus - 1)
	case "ctrl+s":
		m.syncProfileDraft()
		run, err := m.editor.Begin()
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Saving profile...")
		return m, m.submitCmd(modalProfile, run)
	}
	return m, m.updateFocusedInput(msg)
}

func (m *Model) focusProfileInput(i int) tea.Cmd {
	n := len(m.profileInputs)
	m.focus = (i%n + n) % n
	for j := range m.profileInputs {
		m.profileInputs[j].Blur()
	}
	return m.profileInputs[m.focus].Focus()
}

func (m *Model) fillProfileInputs() {
	d := m.editor.Draft()
	values := []string{d.Username, d.Website, d.About, d.AvatarPath}
	for i := range m.profileInputs {
		m.profileInputs[i].SetValue(values[i])
	}
	m.focusProfileInput(0)
}

func (m *Model) syncProfileDraft() {
	if m.editor.State() != dialog.Ready {
		return
	}
	m.editor.SetDraft(dialog.ProfileDraft{
		Username:   m.profileInputs[0].Value(),
		Website:    m.profileInputs[1].Value(),
		About:      core.TruncateRunes(m.profileInputs[2].Value(), core.MaxAboutLength),
		AvatarPath: m.profileInputs[3].Value(),
	})
}
