package tui

import (
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var userPalette = []lipgloss.Color{
	lipgloss.Color("111"),
	lipgloss.Color("157"),
	lipgloss.Color("216"),
	lipgloss.Color("36"),
	lipgloss.Color("183"),
	lipgloss.Color("230"),
}

var (
	statusColor   = lipgloss.Color("245")
	errorColor    = lipgloss.Color("196")
	likedColor    = lipgloss.Color("204")
	dimColor      = lipgloss.Color("240")
	selectedBg    = lipgloss.Color("236")
	modalBorder   = lipgloss.Color("62")
	dangerColor   = lipgloss.Color("160")
	activeTabBg   = lipgloss.Color("27")
	inactiveTabFg = lipgloss.Color("250")
)

func colorForUser(username string) lipgloss.Color {
	key := strings.ToLower(strings.TrimSpace(username))
	if key == "" {
		return dimColor
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return userPalette[int(h.Sum32()%uint32(len(userPalette)))]
}
