package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/coffeemeet/internal/theme"
)

const (
	headerHeight    = 1
	statusBarHeight = 1
)

// Layout slices the terminal into the header, content, and status bar
// regions.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the width available to the active view.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left between the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - headerHeight - statusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader draws the top bar: the title on the left and an optional
// badge on the right. Both arrive as plain text; the badge gets its own
// accent style here so it is not swallowed by the header background.
func (l Layout) RenderHeader(title, badge string) string {
	left := theme.HeaderStyle.Render(title)

	right := ""
	if badge != "" {
		right = theme.BadgeStyle.Render(badge)
	}

	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Background(theme.HeaderStyle.GetBackground()).
		Render(strings.Repeat(" ", gap))

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderStatusBar draws the bottom hint bar across the full width.
func (l Layout) RenderStatusBar(hints string) string {
	return theme.StatusBarStyle.Width(l.Width).Render(hints)
}

// RenderWithFrame stacks header, content, and status bar into one frame.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
