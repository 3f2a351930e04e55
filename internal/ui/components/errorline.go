// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/taxroute/taxroute-tui/internal/ui/styles"
	"github.com/taxroute/taxroute-tui/internal/util"
)

// ErrorLine renders the single current-error slot above the status bar.
// Last error wins; an empty message renders nothing.
type ErrorLine struct {
	Width   int
	Message string
}

// View renders the error line, or "" when there is no error.
func (e *ErrorLine) View(theme *styles.Theme) string {
	if e.Message == "" {
		return ""
	}
	return theme.ErrorLine.Render(util.TruncateWidth("! "+e.Message, e.Width))
}
