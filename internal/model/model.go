// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the domain types shared by every layer of the
// TaxRoute client: users, conversations and messages as the server
// represents them, plus the client-only additions (temporary identifiers,
// the streaming flag) needed for optimistic updates.
package model

import (
	"strings"
	"sync"
	"time"
)

// Message roles as used on the wire.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// User is the authenticated account. Immutable from the client's
// perspective; fetched once at session bootstrap.
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

// Timestamp is a time.Time that tolerates the timestamp shapes the server
// actually emits: RFC 3339 with or without a zone offset, with or without
// fractional seconds.
type Timestamp struct {
	time.Time
}

// timestampLayouts in the order they are attempted.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON parses a JSON string into the first layout that matches.
// Null and empty strings decode to the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	s = strings.Trim(s, `"`)

	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON renders the timestamp as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// Now returns the current wall-clock time as a Timestamp.
func Now() Timestamp {
	return Timestamp{Time: time.Now()}
}

// Conversation is the client's working copy of a server-side conversation.
// The list shown in the sidebar is always sorted by UpdatedAt descending.
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Message is a single chat message. IsStreaming is a client-only flag set
// on an assistant message that is still being appended to; it never goes
// on the wire.
type Message struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`

	IsStreaming bool `json:"-"`
}

// IsTemporary reports whether the message still carries a locally
// generated identifier, i.e. has not been reconciled with the server yet.
func (m Message) IsTemporary() bool {
	return m.ID < 0
}

// TokenResponse is the body returned by the login, signup and google
// endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// ChatResponse is the non-streaming reply to a message submission, used
// when streaming is disabled in the client configuration.
type ChatResponse struct {
	Conversation     Conversation `json:"conversation"`
	UserMessage      Message      `json:"user_message"`
	AssistantMessage Message      `json:"assistant_message"`
}

var (
	tempIDMu   sync.Mutex
	lastTempID int64
)

// NewTempID returns a fresh temporary message identifier. Temporary ids
// are negative so they can never collide with a server-assigned id, and
// monotonic within the process: derived from wall-clock microseconds,
// bumped when two calls land on the same tick. Sends are serialized by the
// controller, so one generator covers the whole session.
func NewTempID() int64 {
	tempIDMu.Lock()
	defer tempIDMu.Unlock()

	id := time.Now().UnixMicro()
	if id <= lastTempID {
		id = lastTempID + 1
	}
	lastTempID = id
	return -id
}
