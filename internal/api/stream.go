// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Event types emitted on a message stream.
const (
	EventToken = "token"
	EventDone  = "done"
	EventError = "error"
)

// Event is a single server-sent event on a message stream.
//
// Token events carry Content. The final done event carries the server
// IDs of the persisted message pair and, when the server auto-named the
// conversation, its new title. Error events carry Message.
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`

	UserMessageID      int64  `json:"user_message_id,omitempty"`
	AssistantMessageID int64  `json:"assistant_message_id,omitempty"`
	ConversationTitle  string `json:"conversation_title,omitempty"`

	Message string `json:"message,omitempty"`
}

// EventStream reads server-sent events from a message stream.
type EventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// SendMessage posts a message and returns the event stream of the
// assistant's reply. The caller must drain the stream with Recv and then
// Close it. A non-2xx response fails immediately with an *APIError.
func (c *Client) SendMessage(ctx context.Context, conversationID int64, content string) (*EventStream, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/conversations/%d/messages", conversationID)
	req, err := c.newRequest(ctx, http.MethodPost, path, map[string]any{"content": content})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// Streams outlive the default request timeout, so the transport's
	// client timeout does not apply here; cancellation comes from ctx.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &EventStream{body: resp.Body, scanner: scanner}, nil
}

// Recv returns the next event. It returns io.EOF when the stream ends,
// including after a done event. Lines that are not "data: "-prefixed or
// that fail to parse are skipped; partial lines at chunk boundaries show
// up that way and the retransmitted full line follows.
func (s *EventStream) Recv() (*Event, error) {
	if s.done {
		return nil, io.EOF
	}
	for s.scanner.Scan() {
		event, ok := parseEventLine(s.scanner.Text())
		if !ok {
			continue
		}
		if event.Type == EventDone {
			s.done = true
		}
		return event, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stream: %w", err)
	}
	return nil, io.EOF
}

// parseEventLine decodes one SSE line. Only "data: " lines are
// significant; everything else (comments, blank keep-alives, malformed
// JSON) is skipped.
func parseEventLine(line string) (*Event, bool) {
	payload, found := strings.CutPrefix(line, "data: ")
	if !found {
		return nil, false
	}
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, false
	}
	return &event, true
}

// Close releases the underlying connection. Safe to call more than once.
func (s *EventStream) Close() error {
	return s.body.Close()
}
