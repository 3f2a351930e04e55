// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth persists the login session between runs.
//
// The session is a bearer token plus a cached copy of the authenticated
// user, stored as JSON at ~/.taxroute/session.json with 0600 permissions.
// A missing or corrupt file simply means logged out.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/taxroute/taxroute-tui/internal/config"
	"github.com/taxroute/taxroute-tui/internal/model"
	"github.com/taxroute/taxroute-tui/internal/util"
)

// Session holds the persisted authentication state.
type Session struct {
	mu    sync.RWMutex
	path  string
	state sessionState
}

type sessionState struct {
	Token string      `json:"access_token"`
	User  *model.User `json:"user,omitempty"`
}

// SessionPath returns the path of the session file.
func SessionPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// Open loads the session from disk. A missing or unreadable file yields a
// logged-out session rather than an error.
func Open() (*Session, error) {
	path, err := SessionPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(path), nil
}

// OpenPath loads the session from an explicit path.
func OpenPath(path string) *Session {
	s := &Session{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupt session file: treat as logged out.
		return s
	}
	s.state = state
	return s
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// User returns the cached user, or nil when logged out.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

// LoggedIn reports whether a token is present.
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Set stores the token and user and persists them to disk.
func (s *Session) Set(token string, user *model.User) error {
	s.mu.Lock()
	s.state = sessionState{Token: token, User: user}
	s.mu.Unlock()
	return s.save()
}

// SetUser refreshes the cached user without touching the token.
func (s *Session) SetUser(user *model.User) error {
	s.mu.Lock()
	s.state.User = user
	s.mu.Unlock()
	return s.save()
}

// Clear forgets the session and removes the file.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.state = sessionState{}
	path := s.path
	s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

func (s *Session) save() error {
	s.mu.RLock()
	state := s.state
	path := s.path
	s.mu.RUnlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return util.AtomicWriteFile(path, data, 0600)
}
