// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the TaxRoute TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It adapts to
// the terminal's background unless the configuration forces a theme.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// =========================================================================
	// CHROME
	// =========================================================================

	App       lipgloss.Style
	Title     lipgloss.Style
	StatusBar lipgloss.Style
	Shortcut  lipgloss.Style
	ErrorLine lipgloss.Style

	// =========================================================================
	// SIDEBAR
	// =========================================================================

	Sidebar         lipgloss.Style
	SidebarFocused  lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarHeader   lipgloss.Style

	// =========================================================================
	// MESSAGES
	// =========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserBubble     lipgloss.Style
	Streaming      lipgloss.Style

	// =========================================================================
	// FORMS
	// =========================================================================

	FormBox      lipgloss.Style
	FormLabel    lipgloss.Style
	FormHint     lipgloss.Style
	FormError    lipgloss.Style
	InputFocused lipgloss.Style
	InputBlurred lipgloss.Style
	Confirm      lipgloss.Style
}

// palette groups the adaptive colors used by the theme.
type palette struct {
	accent    lipgloss.Color
	subtle    lipgloss.Color
	text      lipgloss.Color
	dimmed    lipgloss.Color
	danger    lipgloss.Color
	userText  lipgloss.Color
	barBg     lipgloss.Color
	barFg     lipgloss.Color
	selection lipgloss.Color
}

func darkPalette() palette {
	return palette{
		accent:    lipgloss.Color("42"),
		subtle:    lipgloss.Color("240"),
		text:      lipgloss.Color("252"),
		dimmed:    lipgloss.Color("244"),
		danger:    lipgloss.Color("203"),
		userText:  lipgloss.Color("75"),
		barBg:     lipgloss.Color("236"),
		barFg:     lipgloss.Color("250"),
		selection: lipgloss.Color("237"),
	}
}

func lightPalette() palette {
	return palette{
		accent:    lipgloss.Color("28"),
		subtle:    lipgloss.Color("250"),
		text:      lipgloss.Color("235"),
		dimmed:    lipgloss.Color("243"),
		danger:    lipgloss.Color("160"),
		userText:  lipgloss.Color("26"),
		barBg:     lipgloss.Color("254"),
		barFg:     lipgloss.Color("238"),
		selection: lipgloss.Color("253"),
	}
}

// NewTheme builds the theme. themePref is "dark", "light", or "auto";
// auto follows the detected terminal background.
func NewTheme(themePref string) *Theme {
	output := termenv.DefaultOutput()

	isDark := true
	switch themePref {
	case "light":
		isDark = false
	case "dark":
		isDark = true
	default:
		isDark = output.HasDarkBackground()
	}

	p := darkPalette()
	if !isDark {
		p = lightPalette()
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: output.Profile,
	}

	t.App = lipgloss.NewStyle()
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	t.StatusBar = lipgloss.NewStyle().Background(p.barBg).Foreground(p.barFg).Padding(0, 1)
	t.Shortcut = lipgloss.NewStyle().Foreground(p.dimmed)
	t.ErrorLine = lipgloss.NewStyle().Foreground(p.danger).Bold(true)

	t.Sidebar = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.subtle).
		Padding(0, 1)
	t.SidebarFocused = t.Sidebar.BorderForeground(p.accent)
	t.SidebarItem = lipgloss.NewStyle().Foreground(p.text)
	t.SidebarSelected = lipgloss.NewStyle().Foreground(p.accent).Background(p.selection).Bold(true)
	t.SidebarHeader = lipgloss.NewStyle().Foreground(p.dimmed).Bold(true)

	t.UserLabel = lipgloss.NewStyle().Foreground(p.userText).Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().Foreground(p.accent).Bold(true)
	t.UserBubble = lipgloss.NewStyle().Foreground(p.text)
	t.Streaming = lipgloss.NewStyle().Foreground(p.dimmed).Italic(true)

	t.FormBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.subtle).
		Padding(1, 2)
	t.FormLabel = lipgloss.NewStyle().Foreground(p.text).Bold(true)
	t.FormHint = lipgloss.NewStyle().Foreground(p.dimmed)
	t.FormError = lipgloss.NewStyle().Foreground(p.danger)
	t.InputFocused = lipgloss.NewStyle().Foreground(p.accent)
	t.InputBlurred = lipgloss.NewStyle().Foreground(p.dimmed)
	t.Confirm = lipgloss.NewStyle().Foreground(p.danger).Bold(true)

	return t
}
