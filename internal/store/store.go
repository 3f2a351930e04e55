// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the client-side view of conversations and messages.
//
// The store is a plain in-memory state container: the controller mutates
// it, the UI reads from it. All methods are safe for concurrent use.
package store

import (
	"sort"
	"sync"

	"github.com/taxroute/taxroute-tui/internal/model"
)

// SendState is the per-conversation send lifecycle.
type SendState int

const (
	// StateIdle means no send is in flight.
	StateIdle SendState = iota
	// StateCreating means the implicit conversation create is in flight.
	StateCreating
	// StateSending means the message request has been submitted but no
	// event has arrived yet.
	StateSending
	// StateStreaming means token events are being applied.
	StateStreaming
	// StateError means the last send failed; the message is in Err().
	StateError
)

func (s SendState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCreating:
		return "creating"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// InFlight reports whether a send operation is currently running.
func (s SendState) InFlight() bool {
	return s == StateCreating || s == StateSending || s == StateStreaming
}

// Store is the in-memory conversation state.
type Store struct {
	mu sync.RWMutex

	conversations []model.Conversation
	activeID      int64
	messages      []model.Message

	state   SendState
	lastErr string
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// =============================================================================
// Conversations
// =============================================================================

// Conversations returns the conversation list sorted by most recently
// updated first. Ties keep their insertion order.
func (s *Store) Conversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt.Time)
	})
	return out
}

// SetConversations replaces the conversation list.
func (s *Store) SetConversations(convs []model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = make([]model.Conversation, len(convs))
	copy(s.conversations, convs)
}

// Upsert inserts or replaces a conversation by ID.
func (s *Store) Upsert(conv model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		if s.conversations[i].ID == conv.ID {
			s.conversations[i] = conv
			return
		}
	}
	s.conversations = append(s.conversations, conv)
}

// Remove deletes a conversation by ID. Removing the active conversation
// also clears the active selection and its messages.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = 0
		s.messages = nil
	}
}

// Get returns the conversation with the given ID.
func (s *Store) Get(id int64) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conversations {
		if c.ID == id {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// Touch updates a conversation's UpdatedAt so it sorts to the top, and
// optionally renames it. An empty title keeps the current one.
func (s *Store) Touch(id int64, title string, at model.Timestamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations[i].UpdatedAt = at
			if title != "" {
				s.conversations[i].Title = title
			}
			return
		}
	}
}

// =============================================================================
// Active conversation and messages
// =============================================================================

// SetActive switches the active conversation. The message list, error
// slot, and send state reset; the caller loads messages afterwards.
func (s *Store) SetActive(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = id
	s.messages = nil
	s.state = StateIdle
	s.lastErr = ""
}

// ActiveID returns the active conversation ID, or 0 when none.
func (s *Store) ActiveID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active returns the active conversation.
func (s *Store) Active() (model.Conversation, bool) {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()
	if id == 0 {
		return model.Conversation{}, false
	}
	return s.Get(id)
}

// Messages returns a copy of the active conversation's messages in
// chronological order.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetMessages replaces the active message list.
func (s *Store) SetMessages(msgs []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make([]model.Message, len(msgs))
	copy(s.messages, msgs)
}

// AppendMessage appends one message.
func (s *Store) AppendMessage(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// AppendMessages appends several messages in one step, so readers never
// observe half of an optimistic pair.
func (s *Store) AppendMessages(msgs ...model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
}

// UpdateMessage replaces the message with the given ID. Unknown IDs are
// a no-op.
func (s *Store) UpdateMessage(id int64, fn func(*model.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			fn(&s.messages[i])
			return
		}
	}
}

// AppendContent appends text to the content of the message with the
// given ID. Unknown IDs are a no-op.
func (s *Store) AppendContent(id int64, text string) {
	s.UpdateMessage(id, func(m *model.Message) {
		m.Content += text
	})
}

// RemoveMessage deletes one message by ID. Unknown IDs are a no-op.
func (s *Store) RemoveMessage(id int64) {
	s.RemoveMessages(id)
}

// RemoveMessages deletes the messages with the given IDs. Unknown IDs
// are a no-op.
func (s *Store) RemoveMessages(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.messages[:0]
	for _, m := range s.messages {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	s.messages = kept
}

// =============================================================================
// Send state
// =============================================================================

// State returns the current send state.
func (s *Store) State() SendState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState transitions the send state. Leaving StateError clears the
// error slot.
func (s *Store) SetState(state SendState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if state != StateError {
		s.lastErr = ""
	}
}

// SetError records an error message and enters StateError.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateError
	s.lastErr = msg
}

// Err returns the last error message, or "" when none.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
