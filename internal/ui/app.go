// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui wires the Bubble Tea screens into one program.
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taxroute/taxroute-tui/internal/api"
	"github.com/taxroute/taxroute-tui/internal/auth"
	"github.com/taxroute/taxroute-tui/internal/config"
	"github.com/taxroute/taxroute-tui/internal/controller"
	"github.com/taxroute/taxroute-tui/internal/ui/chat"
	"github.com/taxroute/taxroute-tui/internal/ui/login"
	"github.com/taxroute/taxroute-tui/internal/ui/styles"
)

// screen is which top-level screen is active.
type screen int

const (
	screenLogin screen = iota
	screenChat
)

type bootstrapDoneMsg struct{ err error }

// configReloadedMsg carries a freshly loaded configuration from the
// watcher goroutine into the event loop.
type configReloadedMsg struct{ cfg *config.Config }

// App is the root model.
type App struct {
	theme   *styles.Theme
	cfg     *config.Config
	session *auth.Session
	ctrl    *controller.Controller

	screen screen
	login  *login.Model
	chat   *chat.Model

	width, height int
}

// NewApp builds the root model. A stored session skips the login screen;
// bootstrap failure drops back to it silently.
func NewApp(cfg *config.Config, client *api.Client, session *auth.Session, ctrl *controller.Controller) *App {
	theme := styles.NewTheme(cfg.UI.Theme)

	app := &App{
		theme:   theme,
		cfg:     cfg,
		session: session,
		ctrl:    ctrl,
		login:   login.New(theme, client),
		chat:    chat.New(theme, ctrl, cfg),
	}
	if session.LoggedIn() {
		app.screen = screenChat
	}
	return app
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.screen == screenChat {
		return tea.Batch(a.chat.Init(), a.bootstrap())
	}
	return a.login.Init()
}

func (a *App) bootstrap() tea.Cmd {
	return func() tea.Msg {
		return bootstrapDoneMsg{err: a.ctrl.Bootstrap(context.Background())}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		// Both screens track the size so switching needs no resize.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		cmds = append(cmds, cmd)
		a.chat, cmd = a.chat.Update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case login.AuthenticatedMsg:
		resp := msg.Response
		if err := a.session.Set(resp.AccessToken, &resp.User); err != nil {
			return a, tea.Quit
		}
		a.screen = screenChat
		return a, tea.Batch(a.chat.Init(), a.bootstrap())

	case bootstrapDoneMsg:
		if controller.IsSessionExpired(msg.err) {
			// Silent drop to login.
			a.screen = screenLogin
			return a, a.login.Init()
		}
		if msg.err != nil {
			// Server unreachable and the like: stay on the chat
			// screen but show the failure on the error line.
			a.ctrl.Store().SetError(msg.err.Error())
		}
		return a, func() tea.Msg { return chat.RefreshMsg{} }

	case configReloadedMsg:
		// Assigned here, on the event loop, so no reader races the
		// watcher goroutine.
		*a.cfg = *msg.cfg
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		return a, cmd

	case chat.SessionExpiredMsg:
		a.session.Clear()
		a.screen = screenLogin
		return a, a.login.Init()
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		a.login, cmd = a.login.Update(msg)
	case screenChat:
		a.chat, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	switch a.screen {
	case screenChat:
		return a.chat.View()
	default:
		return a.login.View()
	}
}

// Run launches the TUI and blocks until it exits. The controller's
// OnChange hook is wired to the program so streaming updates repaint.
func Run(cfg *config.Config, client *api.Client, session *auth.Session, ctrl *controller.Controller) error {
	app := NewApp(cfg, client, session, ctrl)
	program := tea.NewProgram(app, tea.WithAltScreen())

	ctrl.OnChange = func() {
		program.Send(chat.RefreshMsg{})
	}

	// Hot-reload sidebar width and send settings while running. The
	// loaded config travels through the program as a message; the
	// assignment happens in Update, on the event loop.
	watcher, err := config.Watch(func(next *config.Config) {
		program.Send(configReloadedMsg{cfg: next})
	})
	if err == nil {
		defer watcher.Close()
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
