// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable pieces of the TaxRoute TUI.
package components

import (
	"strings"

	"github.com/taxroute/taxroute-tui/internal/model"
	"github.com/taxroute/taxroute-tui/internal/ui/styles"
	"github.com/taxroute/taxroute-tui/internal/util"
)

// Sidebar renders the conversation list.
type Sidebar struct {
	Width     int
	Height    int
	Focused   bool
	Collapsed bool

	conversations []model.Conversation
	cursor        int
	activeID      int64
}

// NewSidebar creates a sidebar with the given width.
func NewSidebar(width int) *Sidebar {
	return &Sidebar{Width: width}
}

// SetConversations replaces the list, keeping the cursor on the active
// conversation when it still exists.
func (s *Sidebar) SetConversations(convs []model.Conversation, activeID int64) {
	s.conversations = convs
	s.activeID = activeID
	s.cursor = 0
	for i, c := range convs {
		if c.ID == activeID {
			s.cursor = i
			break
		}
	}
}

// CursorUp moves the selection up.
func (s *Sidebar) CursorUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// CursorDown moves the selection down.
func (s *Sidebar) CursorDown() {
	if s.cursor < len(s.conversations)-1 {
		s.cursor++
	}
}

// Selected returns the conversation under the cursor.
func (s *Sidebar) Selected() (model.Conversation, bool) {
	if s.cursor < 0 || s.cursor >= len(s.conversations) {
		return model.Conversation{}, false
	}
	return s.conversations[s.cursor], true
}

// View renders the sidebar. A collapsed sidebar renders nothing; the
// chat panel takes the full width.
func (s *Sidebar) View(theme *styles.Theme) string {
	if s.Collapsed {
		return ""
	}

	innerWidth := s.Width - 4 // border + padding
	if innerWidth < 4 {
		innerWidth = 4
	}

	var b strings.Builder
	b.WriteString(theme.SidebarHeader.Render("Conversations"))
	b.WriteString("\n")

	if len(s.conversations) == 0 {
		b.WriteString(theme.FormHint.Render("No conversations yet"))
	}
	for i, conv := range s.conversations {
		title := conv.Title
		if title == "" {
			title = "(untitled)"
		}
		line := util.TruncateWidth(title, innerWidth-2)
		switch {
		case conv.ID == s.activeID && i == s.cursor:
			line = theme.SidebarSelected.Render("* " + line)
		case i == s.cursor:
			line = theme.SidebarSelected.Render("  " + line)
		case conv.ID == s.activeID:
			line = theme.SidebarItem.Render("* " + line)
		default:
			line = theme.SidebarItem.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	box := theme.Sidebar
	if s.Focused {
		box = theme.SidebarFocused
	}
	return box.Width(s.Width - 2).Height(s.Height - 2).Render(strings.TrimRight(b.String(), "\n"))
}
