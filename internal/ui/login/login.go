// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login implements the login and signup screens.
package login

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taxroute/taxroute-tui/internal/api"
	"github.com/taxroute/taxroute-tui/internal/model"
	"github.com/taxroute/taxroute-tui/internal/ui/styles"
)

// mode selects which form is shown.
type mode int

const (
	modeLogin mode = iota
	modeSignup
)

// Field indices per mode. Login uses email+password; signup adds
// display name and password confirmation.
const (
	fieldEmail = iota
	fieldPassword
	fieldConfirm
	fieldDisplayName
	fieldCount
)

// AuthenticatedMsg is emitted when the server accepted the credentials.
// The parent model switches to the chat screen.
type AuthenticatedMsg struct {
	Response *model.TokenResponse
}

type resultMsg struct {
	resp *model.TokenResponse
	err  error
}

// Model is the login/signup screen.
type Model struct {
	theme  *styles.Theme
	client *api.Client

	mode    mode
	inputs  []textinput.Model
	focus   int
	errText string
	busy    bool

	width  int
	height int
}

// New creates the login screen.
func New(theme *styles.Theme, client *api.Client) *Model {
	inputs := make([]textinput.Model, fieldCount)

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 120
	email.Focus()
	inputs[fieldEmail] = email

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 120
	inputs[fieldPassword] = password

	confirm := textinput.New()
	confirm.Placeholder = "repeat password"
	confirm.EchoMode = textinput.EchoPassword
	confirm.EchoCharacter = '•'
	confirm.CharLimit = 120
	inputs[fieldConfirm] = confirm

	displayName := textinput.New()
	displayName.Placeholder = "name shown in chat"
	displayName.CharLimit = 60
	inputs[fieldDisplayName] = displayName

	return &Model{theme: theme, client: client, inputs: inputs}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// fieldOrder returns the visible fields for the current mode.
func (m *Model) fieldOrder() []int {
	if m.mode == modeSignup {
		return []int{fieldEmail, fieldDisplayName, fieldPassword, fieldConfirm}
	}
	return []int{fieldEmail, fieldPassword}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case resultMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = errorText(msg.err)
			return m, nil
		}
		return m, func() tea.Msg { return AuthenticatedMsg{Response: msg.resp} }

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.moveFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.moveFocus(-1)
			return m, nil
		case "ctrl+s":
			m.toggleMode()
			return m, nil
		case "enter":
			order := m.fieldOrder()
			if m.focus < len(order)-1 {
				m.moveFocus(1)
				return m, nil
			}
			return m.submit()
		}
	}

	order := m.fieldOrder()
	idx := order[m.focus]
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

func (m *Model) moveFocus(delta int) {
	order := m.fieldOrder()
	m.inputs[order[m.focus]].Blur()
	m.focus = (m.focus + delta + len(order)) % len(order)
	m.inputs[order[m.focus]].Focus()
}

func (m *Model) toggleMode() {
	if m.mode == modeLogin {
		m.mode = modeSignup
	} else {
		m.mode = modeLogin
	}
	m.errText = ""
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.focus = 0
	m.inputs[m.fieldOrder()[0]].Focus()
}

// submit validates locally, then issues the request.
func (m *Model) submit() (*Model, tea.Cmd) {
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()

	if email == "" || !strings.Contains(email, "@") {
		m.errText = "Enter a valid email address"
		return m, nil
	}
	if password == "" {
		m.errText = "Enter a password"
		return m, nil
	}

	if m.mode == modeSignup {
		if len(password) < 8 {
			m.errText = "Password must be at least 8 characters"
			return m, nil
		}
		if password != m.inputs[fieldConfirm].Value() {
			m.errText = "Passwords do not match"
			return m, nil
		}
	}

	m.errText = ""
	m.busy = true
	displayName := strings.TrimSpace(m.inputs[fieldDisplayName].Value())
	signup := m.mode == modeSignup
	client := m.client

	return m, func() tea.Msg {
		ctx := context.Background()
		var resp *model.TokenResponse
		var err error
		if signup {
			resp, err = client.Signup(ctx, email, password, displayName)
		} else {
			resp, err = client.Login(ctx, email, password)
		}
		return resultMsg{resp: resp, err: err}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	title := "Log in to TaxRoute"
	hint := "enter submit · tab next field · ^S switch to signup · ^C quit"
	if m.mode == modeSignup {
		title = "Create a TaxRoute account"
		hint = "enter submit · tab next field · ^S switch to login · ^C quit"
	}

	labels := map[int]string{
		fieldEmail:       "Email",
		fieldPassword:    "Password",
		fieldConfirm:     "Confirm password",
		fieldDisplayName: "Display name",
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render(title))
	b.WriteString("\n\n")
	for _, idx := range m.fieldOrder() {
		b.WriteString(m.theme.FormLabel.Render(labels[idx]))
		b.WriteString("\n")
		b.WriteString(m.inputs[idx].View())
		b.WriteString("\n\n")
	}
	if m.busy {
		b.WriteString(m.theme.FormHint.Render("Signing in..."))
		b.WriteString("\n")
	}
	if m.errText != "" {
		b.WriteString(m.theme.FormError.Render(m.errText))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.FormHint.Render(hint))

	box := m.theme.FormBox.Render(b.String())
	if m.width == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func errorText(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
