// Copyright (c) 2025 TaxRoute Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the TaxRoute API server.
//
// All endpoint methods share one request path: bearer auth when a token
// is present, JSON bodies, and error normalization. The server reports
// failures as {"detail": "..."} bodies; those become *APIError values so
// callers can branch on the status code.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/taxroute/taxroute-tui/internal/config"
	"github.com/taxroute/taxroute-tui/internal/model"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// IsAuthError reports whether err is an APIError with status 401 or 403.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// TokenSource supplies the bearer token for outgoing requests. An empty
// string means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the TaxRoute API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
}

// NewClient creates a Client for the configured server. tokens may be nil
// for a client that only performs unauthenticated calls.
func NewClient(cfg *config.Config, tokens TokenSource) *Client {
	return &Client{
		baseURL: cfg.Server.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		},
		tokens: tokens,
		// Burst-friendly pacing; keeps an interactive client from
		// hammering the server during reconnect loops.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// BaseURL returns the server base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// newRequest builds a request with auth and standard headers attached.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// do sends the request and decodes a JSON response into out (when out is
// non-nil). Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError. The server
// sends {"detail": "..."}; anything else falls back to a generic message.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("request failed with status %d", resp.StatusCode),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		apiErr.Message = body.Detail
	}
	return apiErr
}

// =============================================================================
// Auth endpoints
// =============================================================================

// Login exchanges email/password credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out model.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup registers a new account and returns a bearer token.
func (c *Client) Signup(ctx context.Context, email, password, displayName string) (*model.TokenResponse, error) {
	body := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}
	var out model.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GoogleLogin exchanges a Google sign-in credential for a bearer token.
func (c *Client) GoogleLogin(ctx context.Context, credential string) (*model.TokenResponse, error) {
	body := map[string]string{"credential": credential}
	var out model.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/google", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Conversation endpoints
// =============================================================================

// ListConversations returns the user's conversations.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation creates a conversation. An empty title lets the
// server name it from the first message.
func (c *Client) CreateConversation(ctx context.Context, title string) (*model.Conversation, error) {
	body := map[string]string{"title": title}
	var out model.Conversation
	if err := c.do(ctx, http.MethodPost, "/conversations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation and all its messages.
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/conversations/%d", id), nil, nil)
}

// ListMessages returns a conversation's messages in chronological order.
func (c *Client) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	var out []model.Message
	path := fmt.Sprintf("/conversations/%d/messages", conversationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessageSync sends a message and waits for the complete assistant
// reply. This is the non-streaming variant; interactive callers should
// prefer SendMessage.
func (c *Client) SendMessageSync(ctx context.Context, conversationID int64, content string) (*model.ChatResponse, error) {
	body := map[string]any{"content": content}
	path := fmt.Sprintf("/conversations/%d/messages", conversationID)
	var out model.ChatResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
