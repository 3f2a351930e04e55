// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taxroute/taxroute-tui/internal/api"
	"github.com/taxroute/taxroute-tui/internal/auth"
	"github.com/taxroute/taxroute-tui/internal/model"
)

// Login handles `taxroute login`. With --google it exchanges a Google
// sign-in credential; otherwise it prompts for email and password.
func Login(ctx context.Context, client *api.Client, session *auth.Session, args []string) error {
	if len(args) > 0 && args[0] == "--google" {
		if len(args) < 2 || args[1] == "" {
			return errors.New("usage: taxroute login --google <credential>")
		}
		resp, err := client.GoogleLogin(ctx, args[1])
		if err != nil {
			return err
		}
		return finishLogin(session, resp.AccessToken, resp)
	}

	if !IsTTY() {
		return errors.New("login requires an interactive terminal")
	}

	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	resp, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return finishLogin(session, resp.AccessToken, resp)
}

// Signup handles `taxroute signup`. The password is confirmed locally
// before anything goes over the wire.
func Signup(ctx context.Context, client *api.Client, session *auth.Session) error {
	if !IsTTY() {
		return errors.New("signup requires an interactive terminal")
	}

	email, err := promptLine("Email: ")
	if err != nil {
		return err
	}
	if !strings.Contains(email, "@") {
		return errors.New("that does not look like an email address")
	}
	displayName, err := promptLine("Display name: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	resp, err := client.Signup(ctx, email, password, displayName)
	if err != nil {
		return err
	}
	return finishLogin(session, resp.AccessToken, resp)
}

func finishLogin(session *auth.Session, token string, resp *model.TokenResponse) error {
	if err := session.Set(token, &resp.User); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	name := resp.User.DisplayName
	if name == "" {
		name = resp.User.Email
	}
	fmt.Printf("Logged in as %s.\n", name)
	return nil
}

// Logout handles `taxroute logout`.
func Logout(session *auth.Session) error {
	if !session.LoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}
	if err := session.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

// Whoami handles `taxroute whoami`. It prefers a fresh fetch but falls
// back to the cached profile when the server is unreachable.
func Whoami(ctx context.Context, client *api.Client, session *auth.Session) error {
	if !session.LoggedIn() {
		fmt.Println("Not logged in. Run `taxroute login` first.")
		return nil
	}

	user, err := client.Me(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			session.Clear()
			return errors.New("session expired; run `taxroute login`")
		}
		user = session.User()
		if user == nil {
			return err
		}
		fmt.Println("(offline; showing cached profile)")
	}

	fmt.Printf("Email:        %s\n", user.Email)
	if user.DisplayName != "" {
		fmt.Printf("Display name: %s\n", user.DisplayName)
	}
	fmt.Printf("Account id:   %d\n", user.ID)
	return nil
}
