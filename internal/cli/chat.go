// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/taxroute/taxroute-tui/internal/config"
	"github.com/taxroute/taxroute-tui/internal/controller"
	"github.com/taxroute/taxroute-tui/internal/model"
	"github.com/taxroute/taxroute-tui/internal/store"
)

// Chat runs the plain-terminal chat REPL. Tokens print as they arrive;
// input history persists across runs.
func Chat(ctx context.Context, ctrl *controller.Controller) error {
	if !IsTTY() {
		return errors.New("chat requires an interactive terminal")
	}

	if err := ctrl.Bootstrap(ctx); err != nil {
		if errors.Is(err, controller.ErrSessionExpired) {
			return errors.New("session expired; run `taxroute login`")
		}
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := chatHistoryPath()
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	if conv, ok := ctrl.Store().Active(); ok && conv.Title != "" {
		fmt.Printf("Continuing %q. Type /help for commands.\n\n", conv.Title)
	} else {
		fmt.Println("TaxRoute chat. Type /help for commands.")
		fmt.Println()
	}
	printHistory(ctrl.Store())

	// Print tokens as the controller applies them.
	printed := 0
	ctrl.OnChange = func() {
		msgs := ctrl.Store().Messages()
		if len(msgs) == 0 {
			printed = 0
			return
		}
		last := msgs[len(msgs)-1]
		if !last.IsStreaming {
			return
		}
		if len(last.Content) > printed {
			fmt.Print(last.Content[printed:])
			printed = len(last.Content)
		}
	}

	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println()
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if done := replCommand(ctx, ctrl, input); done {
				return nil
			}
			continue
		}

		printed = 0
		fmt.Print("taxroute> ")
		err = ctrl.SendMessage(ctx, input)
		// In non-streaming mode the reply arrives settled, so nothing
		// was printed incrementally.
		if msgs := ctrl.Store().Messages(); len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			if last.Role == model.RoleAssistant && len(last.Content) > printed {
				fmt.Print(last.Content[printed:])
			}
		}
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", errText(ctrl.Store(), err))
		} else if msg := ctrl.Store().Err(); msg != "" {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		}
	}
}

// replCommand handles slash commands. Returns true when the REPL should
// exit.
func replCommand(ctx context.Context, ctrl *controller.Controller, input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/new":
		if err := ctrl.NewConversation(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		} else {
			fmt.Println("Started a new conversation.")
		}
	case "/list":
		for i, conv := range ctrl.Store().Conversations() {
			marker := "  "
			if conv.ID == ctrl.Store().ActiveID() {
				marker = "* "
			}
			title := conv.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%s%d. %s\n", marker, i+1, title)
		}
	case "/help":
		fmt.Println("/new   start a new conversation")
		fmt.Println("/list  list conversations (* marks the active one)")
		fmt.Println("/quit  exit")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s (try /help)\n", fields[0])
	}
	return false
}

func printHistory(st *store.Store) {
	for _, m := range st.Messages() {
		switch m.Role {
		case model.RoleUser:
			fmt.Printf("you> %s\n", m.Content)
		default:
			fmt.Printf("taxroute> %s\n", m.Content)
		}
	}
	if len(st.Messages()) > 0 {
		fmt.Println()
	}
}

func errText(st *store.Store, err error) string {
	if msg := st.Err(); msg != "" {
		return msg
	}
	return err.Error()
}

func chatHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "taxroute_history")
	}
	return filepath.Join(dir, "chat_history")
}
