// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxroute/taxroute-tui/internal/config"
)

func streamServer(t *testing.T, write func(w http.ResponseWriter, f http.Flusher)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		write(w, f)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Server.BaseURL = srv.URL
	return NewClient(cfg, staticToken("tok"))
}

func collect(t *testing.T, stream *EventStream) []*Event {
	t.Helper()
	var events []*Event
	for {
		event, err := stream.Recv()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, event)
	}
}

func TestStream_TokensInOrder(t *testing.T) {
	client := streamServer(t, func(w http.ResponseWriter, f http.Flusher) {
		for _, tok := range []string{"안", "녕", "하세요"} {
			io.WriteString(w, `data: {"type": "token", "content": "`+tok+`"}`+"\n")
			f.Flush()
		}
		io.WriteString(w, `data: {"type": "done", "user_message_id": 20, "assistant_message_id": 21}`+"\n")
	})

	stream, err := client.SendMessage(context.Background(), 7, "인사해줘")
	require.NoError(t, err)
	defer stream.Close()

	events := collect(t, stream)
	require.Len(t, events, 4)

	var text string
	for _, e := range events[:3] {
		assert.Equal(t, EventToken, e.Type)
		text += e.Content
	}
	assert.Equal(t, "안녕하세요", text)

	done := events[3]
	assert.Equal(t, EventDone, done.Type)
	assert.Equal(t, int64(20), done.UserMessageID)
	assert.Equal(t, int64(21), done.AssistantMessageID)
}

func TestStream_SkipsNonDataAndMalformedLines(t *testing.T) {
	client := streamServer(t, func(w http.ResponseWriter, f http.Flusher) {
		io.WriteString(w, ": keep-alive comment\n")
		io.WriteString(w, "\n")
		io.WriteString(w, "event: message\n")
		io.WriteString(w, "data: {not valid json\n")
		io.WriteString(w, `data: {"type": "token", "content": "ok"}`+"\n")
		io.WriteString(w, `data: {"type": "done"}`+"\n")
	})

	stream, err := client.SendMessage(context.Background(), 1, "hi")
	require.NoError(t, err)
	defer stream.Close()

	events := collect(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, "ok", events[0].Content)
	assert.Equal(t, EventDone, events[1].Type)
}

func TestStream_ChunkBoundaries(t *testing.T) {
	// A data line split across two writes must still decode once the
	// newline arrives.
	client := streamServer(t, func(w http.ResponseWriter, f http.Flusher) {
		io.WriteString(w, `data: {"type": "token", "con`)
		f.Flush()
		time.Sleep(10 * time.Millisecond)
		io.WriteString(w, `tent": "joined"}`+"\n")
		f.Flush()
		io.WriteString(w, `data: {"type": "done"}`+"\n")
	})

	stream, err := client.SendMessage(context.Background(), 1, "hi")
	require.NoError(t, err)
	defer stream.Close()

	events := collect(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, "joined", events[0].Content)
}

func TestStream_EOFAfterDone(t *testing.T) {
	client := streamServer(t, func(w http.ResponseWriter, f http.Flusher) {
		io.WriteString(w, `data: {"type": "done"}`+"\n")
		// Protocol violation: events after done must not be delivered.
		io.WriteString(w, `data: {"type": "token", "content": "stray"}`+"\n")
	})

	stream, err := client.SendMessage(context.Background(), 1, "hi")
	require.NoError(t, err)
	defer stream.Close()

	event, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, EventDone, event.Type)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestStream_ErrorEvent(t *testing.T) {
	client := streamServer(t, func(w http.ResponseWriter, f http.Flusher) {
		io.WriteString(w, `data: {"type": "token", "content": "partial"}`+"\n")
		f.Flush()
		io.WriteString(w, `data: {"type": "error", "message": "generation failed"}`+"\n")
	})

	stream, err := client.SendMessage(context.Background(), 1, "hi")
	require.NoError(t, err)
	defer stream.Close()

	events := collect(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, "partial", events[0].Content)
	assert.Equal(t, EventError, events[1].Type)
	assert.Equal(t, "generation failed", events[1].Message)
}

func TestStream_NoTrailingNewline(t *testing.T) {
	client := streamServer(t, func(w http.ResponseWriter, f http.Flusher) {
		io.WriteString(w, `data: {"type": "token", "content": "a"}`+"\n")
		// Final line without a newline still decodes at EOF.
		io.WriteString(w, `data: {"type": "done", "assistant_message_id": 9}`)
	})

	stream, err := client.SendMessage(context.Background(), 1, "hi")
	require.NoError(t, err)
	defer stream.Close()

	events := collect(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, int64(9), events[1].AssistantMessageID)
}

func TestStream_FailsFastOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Conversation not found"})
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Server.BaseURL = srv.URL
	client := NewClient(cfg, staticToken("tok"))

	_, err := client.SendMessage(context.Background(), 999, "hi")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Conversation not found", apiErr.Message)
}
