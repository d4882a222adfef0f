package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/dialog"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	copyFeedbackDelay = 1200 * time.Millisecond
	doubleClickWindow = 400 * time.Millisecond
)

type loadedMsg struct {
	name string
	err  error
}

type submitResultMsg struct {
	kind modalKind
	err  error
}

type actionResultMsg struct {
	label string
	err   error
}

type resetCopyMsg struct{}

func (m *Model) mountCmd(name string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return loadedMsg{name: name, err: fn(ctx)}
	}
}

func (m *Model) submitCmd(kind modalKind, run func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return submitResultMsg{kind: kind, err: run(ctx)}
	}
}

func (m *Model) actionCmd(label string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionResultMsg{label: label, err: fn(ctx)}
	}
}

func resetCopyCmd() tea.Cmd {
	return tea.Tick(copyFeedbackDelay, func(time.Time) tea.Msg { return resetCopyMsg{} })
}

// Update handles Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	case refreshMsg:
		return m.handleRefreshMsg()
	case loadedMsg:
		return m.handleLoadedMsg(msg)
	case submitResultMsg:
		return m.handleSubmitResultMsg(msg)
	case actionResultMsg:
		return m.handleActionResultMsg(msg)
	case resetCopyMsg:
		m.sheet.ResetCopy()
		return m, nil
	default:
		return m, m.updateFocusedInput(msg)
	}
}

func (m *Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.resize()
	return m, nil
}

func (m *Model) resize() {
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-bodyChrome, 1)
	inputWidth := max(min(m.width-10, modalMaxWidth-6), 10)
	m.imageInput.Width = inputWidth
	m.captionInput.Width = inputWidth
	m.commentInput.Width = inputWidth
	m.editInput.SetWidth(inputWidth)
	for i := range m.profileInputs {
		m.profileInputs[i].Width = inputWidth
	}
}

func (m *Model) handleRefreshMsg() (tea.Model, tea.Cmd) {
	m.notifier.delivered()
	if m.modal == modalDetail && m.detail.State() == dialog.Closed {
		m.closeModal()
		m.setStatus("Post deleted")
	}
	m.clampSelection()
	return m, nil
}

func (m *Model) handleLoadedMsg(msg loadedMsg) (tea.Model, tea.Cmd) {
	if msg.name == "editor" && msg.err == nil {
		m.fillProfileInputs()
	}
	if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
		m.setError(fmt.Errorf("load %s: %w", msg.name, msg.err))
	}
	m.clampSelection()
	return m, nil
}

func (m *Model) handleSubmitResultMsg(msg submitResultMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.kind {
	case modalCreate:
		created := m.create.Created()
		m.create.Finish(msg.err)
		if msg.err == nil {
			m.closeModal()
			m.tab = tabFeed
			m.selected[tabFeed] = 0
			m.setStatus("Shared")
			if m.notify && created != nil {
				cmd = notifyShared(*created)
			}
		}
	case modalEdit:
		m.edit.Finish(msg.err)
		if msg.err == nil {
			m.closeModal()
			m.setStatus("Caption saved")
		}
	case modalSheet:
		m.sheet.Finish(msg.err)
		if msg.err == nil {
			m.modal = m.sheetReturn
			if m.modal == modalDetail && m.detail.State() == dialog.Closed {
				m.closeModal()
			}
			m.setStatus("Post deleted")
		}
	case modalDetail:
		m.detail.Finish(msg.err)
		if msg.err == nil && m.modal == modalDetail {
			m.closeModal()
			m.setStatus("Post deleted")
		}
	case modalProfile:
		m.editor.Finish(msg.err)
		if msg.err == nil {
			m.closeModal()
			m.setStatus("Profile saved")
		}
	}
	if msg.err != nil && !errors.Is(msg.err, coordinator.ErrBusy) {
		m.setError(msg.err)
	}
	m.clampSelection()
	return m, cmd
}

func (m *Model) handleActionResultMsg(msg actionResultMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		if msg.label == "comment" {
			m.commentInput.SetValue("")
		}
		return m, nil
	}
	if errors.Is(msg.err, coordinator.ErrBusy) {
		return m, nil
	}
	m.setError(fmt.Errorf("%s: %w", msg.label, msg.err))
	return m, nil
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) closeModal() {
	m.modal = modalNone
	m.sheetReturn = modalNone
	m.emojiOpen = false
	m.commenting = false
	m.focus = 0
	m.blurInputs()
}

func (m *Model) blurInputs() {
	m.imageInput.Blur()
	m.captionInput.Blur()
	m.editInput.Blur()
	m.commentInput.Blur()
	for i := range m.profileInputs {
		m.profileInputs[i].Blur()
	}
}

func (m *Model) clampSelection() {
	for t := tabFeed; t <= tabProfile; t++ {
		l := m.list(t)
		if l == nil {
			m.selected[t] = 0
			continue
		}
		n := len(l.IDs())
		m.selected[t] = max(min(m.selected[t], n-1), 0)
	}
	if post, ok := m.detail.Post(); ok {
		m.commentIndex = max(min(m.commentIndex, len(post.Comments)-1), 0)
	}
	m.sheetIndex = max(min(m.sheetIndex, len(m.sheet.Items())-1), 0)
}

func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.modal {
	case modalCreate:
		if m.focus == 0 {
			m.imageInput, cmd = m.imageInput.Update(msg)
		} else {
			m.captionInput, cmd = m.captionInput.Update(msg)
			m.create.SetCaption(m.captionInput.Value())
		}
	case modalEdit:
		m.editInput, cmd = m.editInput.Update(msg)
		m.edit.SetCaption(m.editInput.Value())
	case modalDetail:
		if m.commenting {
			m.commentInput, cmd = m.commentInput.Update(msg)
			m.detail.SetDraft(m.commentInput.Value())
		}
	case modalProfile:
		if m.focus < len(m.profileInputs) {
			m.profileInputs[m.focus], cmd = m.profileInputs[m.focus].Update(msg)
			m.syncProfileDraft()
		}
	}
	return cmd
}
