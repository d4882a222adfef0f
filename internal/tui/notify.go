package tui

import (
	"strings"

	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
)

const notifyBodyLength = 80

// notifyShared posts a desktop notification for a shared post.
func notifyShared(post types.Post) tea.Cmd {
	return func() tea.Msg {
		_ = beeep.Notify("Post shared", sharedBody(post), "")
		return nil
	}
}

func sharedBody(post types.Post) string {
	caption := strings.Join(strings.Fields(post.Caption), " ")
	if caption == "" {
		return "Your photo is live"
	}
	return core.TruncateRunes(caption, notifyBodyLength)
}
