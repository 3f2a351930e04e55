// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateWidth trims s to at most maxWidth terminal columns, appending an
// ellipsis when something was cut. Width is measured per cell so CJK text
// (two columns per character) truncates where it renders, not where its
// bytes happen to fall.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// DisplayWidth returns the terminal column width of s.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadWidth pads s with spaces on the right to exactly width columns,
// truncating first if it is too wide.
func PadWidth(s string, width int) string {
	s = TruncateWidth(s, width)
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

// FirstLine returns s up to the first line break, with surrounding
// whitespace trimmed. Used for one-line previews of multi-line content.
func FirstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
