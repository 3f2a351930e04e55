// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/taxroute/taxroute-tui/internal/store"
	"github.com/taxroute/taxroute-tui/internal/ui/styles"
	"github.com/taxroute/taxroute-tui/internal/util"
)

// StatusBar renders the bottom status line: account, send state, and
// keyboard shortcuts.
type StatusBar struct {
	Width int

	Account string
	State   store.SendState
}

func stateLabel(s store.SendState) string {
	switch s {
	case store.StateCreating:
		return "Creating..."
	case store.StateSending:
		return "Sending..."
	case store.StateStreaming:
		return "Answering..."
	case store.StateError:
		return "Error"
	default:
		return "Ready"
	}
}

// View renders the status bar at the configured width.
func (s *StatusBar) View(theme *styles.Theme) string {
	shortcuts := "enter send · ^N new · ^D delete · tab sidebar · ^B collapse · ^C quit"

	left := s.Account
	if left == "" {
		left = "not logged in"
	}
	left += "  " + stateLabel(s.State)

	gap := s.Width - util.DisplayWidth(left) - util.DisplayWidth(shortcuts) - 2
	if gap < 1 {
		// Narrow terminal: drop the shortcut hints first.
		return theme.StatusBar.Width(s.Width).Render(util.TruncateWidth(left, s.Width-2))
	}
	line := left + strings.Repeat(" ", gap) + theme.Shortcut.Render(shortcuts)
	return theme.StatusBar.Width(s.Width).Render(line)
}
