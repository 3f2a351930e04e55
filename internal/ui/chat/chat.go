// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the main chat screen: conversation sidebar,
// message viewport, and composer.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/taxroute/taxroute-tui/internal/config"
	"github.com/taxroute/taxroute-tui/internal/controller"
	"github.com/taxroute/taxroute-tui/internal/model"
	"github.com/taxroute/taxroute-tui/internal/store"
	"github.com/taxroute/taxroute-tui/internal/ui/components"
	"github.com/taxroute/taxroute-tui/internal/ui/styles"
)

// RefreshMsg tells the screen to re-read the store. The controller's
// OnChange hook sends it through program.Send while a stream is applied.
type RefreshMsg struct{}

// SessionExpiredMsg tells the parent to return to the login screen.
type SessionExpiredMsg struct{}

type opDoneMsg struct{ err error }

// focusArea is which pane receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// inputHeight is the composer height in rows.
const inputHeight = 3

// Model is the chat screen.
type Model struct {
	theme *styles.Theme
	ctrl  *controller.Controller
	cfg   *config.Config

	sidebar   *components.Sidebar
	statusbar *components.StatusBar
	errorLine *components.ErrorLine
	viewport  viewport.Model
	input     textarea.Model
	markdown  *glamour.TermRenderer

	focus          focusArea
	confirmingID   int64 // nonzero while a delete waits for y/n
	width, height  int
	ready          bool
	followStream   bool
}

// New creates the chat screen.
func New(theme *styles.Theme, ctrl *controller.Controller, cfg *config.Config) *Model {
	input := textarea.New()
	input.Placeholder = "Ask a tax question..."
	input.CharLimit = 4000
	input.SetHeight(inputHeight)
	input.ShowLineNumbers = false
	input.Focus()

	return &Model{
		theme:     theme,
		ctrl:      ctrl,
		cfg:       cfg,
		sidebar:   components.NewSidebar(cfg.UI.SidebarWidth),
		statusbar: &components.StatusBar{},
		errorLine: &components.ErrorLine{},
		input:     input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case RefreshMsg:
		m.refresh()
		return m, nil

	case opDoneMsg:
		if msg.err != nil && controller.IsSessionExpired(msg.err) {
			return m, func() tea.Msg { return SessionExpiredMsg{} }
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	// Delete confirmation swallows all input until answered.
	if m.confirmingID != 0 {
		switch msg.String() {
		case "y", "Y":
			id := m.confirmingID
			m.confirmingID = 0
			return m, m.runOp(func(ctx context.Context) error {
				return m.ctrl.DeleteConversation(ctx, id)
			})
		default:
			m.confirmingID = 0
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
			m.sidebar.Focused = true
		} else {
			m.focus = focusInput
			m.input.Focus()
			m.sidebar.Focused = false
		}
		return m, nil

	case "ctrl+b":
		m.sidebar.Collapsed = !m.sidebar.Collapsed
		m.resize(m.width, m.height)
		m.refresh()
		return m, nil

	case "ctrl+n":
		return m, m.runOp(m.ctrl.NewConversation)

	case "ctrl+d":
		if id := m.deleteTarget(); id != 0 {
			if !m.cfg.UI.ConfirmDelete {
				return m, m.runOp(func(ctx context.Context) error {
					return m.ctrl.DeleteConversation(ctx, id)
				})
			}
			m.confirmingID = id
		}
		return m, nil

	case "enter":
		if m.focus == focusSidebar {
			if conv, ok := m.sidebar.Selected(); ok {
				return m, m.runOp(func(ctx context.Context) error {
					return m.ctrl.SelectConversation(ctx, conv.ID)
				})
			}
			return m, nil
		}
		return m.send()

	case "up", "k":
		if m.focus == focusSidebar {
			m.sidebar.CursorUp()
			return m, nil
		}

	case "down", "j":
		if m.focus == focusSidebar {
			m.sidebar.CursorDown()
			return m, nil
		}
	}

	return m.updateFocused(msg)
}

func (m *Model) updateFocused(msg tea.Msg) (*Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// deleteTarget picks the conversation a ctrl+d applies to: the sidebar
// selection when the sidebar has focus, otherwise the active one.
func (m *Model) deleteTarget() int64 {
	if m.focus == focusSidebar {
		if conv, ok := m.sidebar.Selected(); ok {
			return conv.ID
		}
		return 0
	}
	return m.ctrl.Store().ActiveID()
}

// send clears the composer and fires the message off in the background.
// The composer clears before the send resolves; repaints arrive via
// RefreshMsg as the stream is applied.
func (m *Model) send() (*Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.ctrl.Store().State().InFlight() {
		return m, nil
	}
	m.input.Reset()
	m.followStream = true
	return m, m.runOp(func(ctx context.Context) error {
		return m.ctrl.SendMessage(ctx, text)
	})
}

func (m *Model) runOp(op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: op(context.Background())}
	}
}

// refresh re-reads the store into the widgets.
func (m *Model) refresh() {
	st := m.ctrl.Store()
	m.sidebar.SetConversations(st.Conversations(), st.ActiveID())
	m.statusbar.State = st.State()
	if user := m.accountLabel(); user != "" {
		m.statusbar.Account = user
	}
	m.errorLine.Message = st.Err()

	if m.ready {
		atBottom := m.viewport.AtBottom()
		m.viewport.SetContent(m.renderMessages())
		if m.followStream || atBottom {
			m.viewport.GotoBottom()
		}
		if st.State() == store.StateIdle || st.State() == store.StateError {
			m.followStream = false
		}
	}
}

func (m *Model) accountLabel() string {
	// Session user is cached at bootstrap; fall back to nothing.
	if u := m.ctrl.User(); u != nil {
		if u.DisplayName != "" {
			return u.DisplayName
		}
		return u.Email
	}
	return ""
}

// renderMessages renders the active conversation's transcript.
func (m *Model) renderMessages() string {
	msgs := m.ctrl.Store().Messages()
	if len(msgs) == 0 {
		return m.theme.FormHint.Render("Start the conversation: ask about deductions, filing deadlines, capital gains...")
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case model.RoleUser:
			b.WriteString(m.theme.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(m.theme.UserBubble.Render(msg.Content))
			b.WriteString("\n")
		default:
			b.WriteString(m.theme.AssistantLabel.Render("TaxRoute"))
			b.WriteString("\n")
			b.WriteString(m.renderAssistant(msg))
		}
	}
	return b.String()
}

// renderAssistant renders markdown for settled replies. While streaming
// the raw text is shown with a cursor; partial markdown renders badly.
func (m *Model) renderAssistant(msg model.Message) string {
	if msg.IsStreaming {
		return m.theme.Streaming.Render(msg.Content+"▍") + "\n"
	}
	if m.markdown != nil {
		if out, err := m.markdown.Render(msg.Content); err == nil {
			return strings.Trim(out, "\n") + "\n"
		}
	}
	return msg.Content + "\n"
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	sidebarWidth := m.cfg.UI.SidebarWidth
	if m.sidebar.Collapsed {
		sidebarWidth = 0
	}
	m.sidebar.Width = sidebarWidth
	m.sidebar.Height = height - 1

	chatWidth := width - sidebarWidth
	viewportHeight := height - inputHeight - 3 // composer + statusbar + error line

	if !m.ready {
		m.viewport = viewport.New(chatWidth-2, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth - 2
		m.viewport.Height = viewportHeight
	}
	m.input.SetWidth(chatWidth - 2)
	m.statusbar.Width = width
	m.errorLine.Width = width

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(chatWidth-4),
	)
	if err == nil {
		m.markdown = renderer
	}
	m.viewport.SetContent(m.renderMessages())
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	right := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.errorOrConfirmLine(),
		m.input.View(),
	)

	var body string
	if m.sidebar.Collapsed {
		body = right
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(m.theme), right)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusbar.View(m.theme))
}

func (m *Model) errorOrConfirmLine() string {
	if m.confirmingID != 0 {
		title := "this conversation"
		if conv, ok := m.ctrl.Store().Get(m.confirmingID); ok && conv.Title != "" {
			title = "\"" + conv.Title + "\""
		}
		return m.theme.Confirm.Render("Delete " + title + "? (y/N)")
	}
	return m.errorLine.View(m.theme)
}
