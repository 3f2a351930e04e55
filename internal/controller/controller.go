// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller orchestrates sends between the API client and the
// conversation store.
//
// The controller is the only writer of message state. It serializes send
// operations with an in-flight guard, applies optimistic updates before
// the server answers, and reconciles or rolls back when the stream ends.
package controller

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"

	"github.com/taxroute/taxroute-tui/internal/api"
	"github.com/taxroute/taxroute-tui/internal/auth"
	"github.com/taxroute/taxroute-tui/internal/config"
	"github.com/taxroute/taxroute-tui/internal/model"
	"github.com/taxroute/taxroute-tui/internal/store"
)

// ErrSessionExpired is reported by Bootstrap when the stored credential
// no longer authenticates. The session has already been cleared.
var ErrSessionExpired = errors.New("session expired")

// Controller drives the chat flow against one API client and one store.
type Controller struct {
	api     *api.Client
	store   *store.Store
	session *auth.Session
	cfg     *config.Config

	inFlight atomic.Bool

	// OnChange is invoked after every store mutation so the UI can
	// repaint. May be nil.
	OnChange func()
}

// New creates a Controller.
func New(client *api.Client, st *store.Store, session *auth.Session, cfg *config.Config) *Controller {
	return &Controller{api: client, store: st, session: session, cfg: cfg}
}

// Store exposes the underlying store for read access.
func (c *Controller) Store() *store.Store { return c.store }

// User returns the cached account profile, or nil when logged out.
func (c *Controller) User() *model.User { return c.session.User() }

// IsSessionExpired reports whether err is the bootstrap auth failure.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func (c *Controller) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

// Bootstrap validates the stored session and loads the conversation
// list, selecting the most recently updated conversation. An auth
// failure clears the session and reports ErrSessionExpired; the caller
// returns to the login screen without showing an error.
func (c *Controller) Bootstrap(ctx context.Context) error {
	user, err := c.api.Me(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			c.session.Clear()
			return ErrSessionExpired
		}
		return err
	}
	c.session.SetUser(user)

	convs, err := c.api.ListConversations(ctx)
	if err != nil {
		return err
	}
	c.store.SetConversations(convs)

	if sorted := c.store.Conversations(); len(sorted) > 0 {
		if err := c.SelectConversation(ctx, sorted[0].ID); err != nil {
			return err
		}
	}
	c.changed()
	return nil
}

// SendMessage sends text in the active conversation, creating one when
// none is active. Empty input and overlapping sends are no-ops.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer c.inFlight.Store(false)

	// Ensure a conversation exists before touching message state.
	convID := c.store.ActiveID()
	if convID == 0 {
		c.store.SetState(store.StateCreating)
		c.changed()
		conv, err := c.api.CreateConversation(ctx, "")
		if err != nil {
			c.store.SetError(errorMessage(err))
			c.changed()
			return err
		}
		c.store.Upsert(*conv)
		c.store.SetActive(conv.ID)
		convID = conv.ID
	}

	// The target id is fixed here; all reconciliation below addresses
	// convID, never the store's current active id.
	userMsg := model.Message{
		ID:        model.NewTempID(),
		Role:      model.RoleUser,
		Content:   text,
		CreatedAt: model.Now(),
	}
	assistantMsg := model.Message{
		ID:          model.NewTempID(),
		Role:        model.RoleAssistant,
		CreatedAt:   model.Now(),
		IsStreaming: true,
	}
	c.store.AppendMessages(userMsg, assistantMsg)
	c.store.SetState(store.StateSending)
	c.changed()

	var err error
	if c.cfg != nil && !c.cfg.Server.Streaming {
		err = c.sendSync(ctx, convID, text, userMsg.ID, assistantMsg.ID)
	} else {
		err = c.sendStreaming(ctx, convID, text, userMsg.ID, assistantMsg.ID)
	}

	// Whatever happened, never leave a bubble stuck in "generating".
	c.store.UpdateMessage(assistantMsg.ID, func(m *model.Message) {
		m.IsStreaming = false
	})
	if c.store.State().InFlight() {
		c.store.SetState(store.StateIdle)
	}
	c.changed()
	return err
}

// sendStreaming drives the event stream for one send.
func (c *Controller) sendStreaming(ctx context.Context, convID int64, text string, userTempID, assistantTempID int64) error {
	stream, err := c.api.SendMessage(ctx, convID, text)
	if err != nil {
		c.rollback(userTempID, assistantTempID, err)
		return err
	}
	defer stream.Close()

	c.store.SetState(store.StateStreaming)
	c.changed()

	sawDone := false
	for {
		event, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			if sawDone {
				break
			}
			c.rollback(userTempID, assistantTempID, recvErr)
			return recvErr
		}

		switch event.Type {
		case api.EventToken:
			c.store.AppendContent(assistantTempID, event.Content)
			c.changed()
		case api.EventDone:
			sawDone = true
			c.reconcile(convID, event, userTempID, assistantTempID)
			c.store.SetState(store.StateIdle)
			c.changed()
		case api.EventError:
			// Mid-generation failure: keep the partial output.
			c.store.SetError(event.Message)
			c.changed()
			return nil
		}
	}

	if !sawDone {
		err := errors.New("stream ended before completion")
		c.rollback(userTempID, assistantTempID, err)
		return err
	}
	return nil
}

// sendSync reconciles the non-streaming response against the optimistic
// pair.
func (c *Controller) sendSync(ctx context.Context, convID int64, text string, userTempID, assistantTempID int64) error {
	resp, err := c.api.SendMessageSync(ctx, convID, text)
	if err != nil {
		c.rollback(userTempID, assistantTempID, err)
		return err
	}

	c.store.UpdateMessage(userTempID, func(m *model.Message) {
		*m = resp.UserMessage
	})
	c.store.UpdateMessage(assistantTempID, func(m *model.Message) {
		*m = resp.AssistantMessage
	})
	c.store.Upsert(resp.Conversation)
	c.store.SetState(store.StateIdle)
	c.changed()
	return nil
}

// reconcile applies the done event: server ids replace temp ids, the
// assistant bubble stops streaming, and a server-assigned title bumps
// the conversation to the top of the list without a refetch.
func (c *Controller) reconcile(convID int64, event *api.Event, userTempID, assistantTempID int64) {
	if event.UserMessageID != 0 {
		c.store.UpdateMessage(userTempID, func(m *model.Message) {
			m.ID = event.UserMessageID
		})
	}
	c.store.UpdateMessage(assistantTempID, func(m *model.Message) {
		if event.AssistantMessageID != 0 {
			m.ID = event.AssistantMessageID
		}
		m.IsStreaming = false
	})
	c.store.Touch(convID, event.ConversationTitle, model.Now())
}

// rollback removes both optimistic entries and surfaces the failure. A
// request-level error means the server persisted nothing, so no partial
// state may remain.
func (c *Controller) rollback(userTempID, assistantTempID int64, err error) {
	c.store.RemoveMessages(userTempID, assistantTempID)
	c.store.SetError(errorMessage(err))
	c.changed()
}

// NewConversation creates and activates an empty conversation.
func (c *Controller) NewConversation(ctx context.Context) error {
	conv, err := c.api.CreateConversation(ctx, "")
	if err != nil {
		c.store.SetError(errorMessage(err))
		c.changed()
		return err
	}
	c.store.Upsert(*conv)
	c.store.SetActive(conv.ID)
	c.changed()
	return nil
}

// SelectConversation activates a conversation and loads its history.
func (c *Controller) SelectConversation(ctx context.Context, id int64) error {
	c.store.SetActive(id)
	c.changed()

	msgs, err := c.api.ListMessages(ctx, id)
	if err != nil {
		c.store.SetError(errorMessage(err))
		c.changed()
		return err
	}
	c.store.SetMessages(msgs)
	c.changed()
	return nil
}

// DeleteConversation removes a conversation on the server and locally.
// Deleting the active conversation reselects the next most recent one,
// or none when the list is empty. Confirmation is the caller's job.
func (c *Controller) DeleteConversation(ctx context.Context, id int64) error {
	if err := c.api.DeleteConversation(ctx, id); err != nil {
		c.store.SetError(errorMessage(err))
		c.changed()
		return err
	}

	wasActive := c.store.ActiveID() == id
	c.store.Remove(id)

	if wasActive {
		if sorted := c.store.Conversations(); len(sorted) > 0 {
			return c.SelectConversation(ctx, sorted[0].ID)
		}
	}
	c.changed()
	return nil
}

// errorMessage extracts the human-readable part of an error for the UI.
func errorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
