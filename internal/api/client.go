// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the bot platform backend.
//
// The backend owns all state: bot configurations, chat history, message
// versions. This client is deliberately thin — it sends requests, maps
// HTTP failures to typed errors, and decodes responses. Streaming chat
// replies arrive as Server-Sent Events and are handled in stream.go.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for backend requests.
const (
	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for
	// transient errors on idempotent requests.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// adminPasswordHeader carries the operator password for bot
	// management endpoints.
	adminPasswordHeader = "admin-password"
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client for all non-streaming backend requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for SSE requests (no timeout,
	// context-controlled).
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		// No timeout for streaming - controlled via context
	}
)

// Error variables for common backend errors.
var (
	// ErrUnauthorized indicates a missing or wrong admin password.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the bot or chat does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates a 5xx response from the backend.
	ErrServer = errors.New("server error")

	// ErrMalformedResponse indicates a 2xx response whose body could
	// not be decoded. Retrying cannot help; the response is broken, not
	// the connection.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
}

// Is maps APIError to the matching sentinel by status code.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrServer:
		return e.Status >= 500 && e.Status < 600
	}
	return false
}

// Client is a client for the bot platform backend API.
type Client struct {
	// baseURL and maxRetries can be swapped at runtime by the config
	// hot reload, so they are read under the mutex.
	mu         sync.RWMutex
	baseURL    string
	maxRetries int

	httpClient *http.Client
	streamer   *http.Client
	userAgent  string

	// listLimiter paces bot list refreshes so a console left on the
	// list view cannot hammer the backend.
	listLimiter *rate.Limiter
}

// NewClient creates a new backend client for the given base URL.
//
// The base URL should include the scheme and host, e.g.
// "https://bots.example.com". Paths under /api/v1 are appended by the
// individual methods.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  sharedHTTPClient,
		streamer:    sharedStreamingClient,
		maxRetries:  DefaultMaxRetries,
		userAgent:   "botdeck/0.1.0",
		listLimiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

// WithBaseURL sets a custom base URL for the API. Safe to call while
// requests are in flight: already-started requests finish against the
// old backend, the next ones use the new one.
func (c *Client) WithBaseURL(u string) *Client {
	c.mu.Lock()
	c.baseURL = strings.TrimSuffix(u, "/")
	c.mu.Unlock()
	return c
}

// WithMaxRetries sets the maximum number of retry attempts.
func (c *Client) WithMaxRetries(maxRetries int) *Client {
	c.mu.Lock()
	c.maxRetries = maxRetries
	c.mu.Unlock()
	return c
}

// retryBudget returns the current total attempt count.
func (c *Client) retryBudget() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxRetries
}

// WithHTTPClient swaps the underlying HTTP clients. Used by tests to
// point at an httptest server with custom transports.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamer = hc
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// endpoint joins the base URL with an API path.
func (c *Client) endpoint(path string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL + path
}

// IsConfigured returns true if the client has a plausible base URL.
func (c *Client) IsConfigured() bool {
	u, err := url.Parse(c.BaseURL())
	return err == nil && u.Scheme != "" && u.Host != ""
}

// setHeaders sets the common headers for backend requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// readResponse reads the response body with size limits.
//
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to typed errors.
func handleErrorResponse(statusCode int, body []byte) error {
	return &APIError{
		Message: decodeErrorMessage(body),
		Status:  statusCode,
	}
}

// isRetryable determines if an error should trigger a retry.
// Only rate limiting and 5xx responses are retried; 4xx responses and
// context cancellation are terminal.
func (c *Client) isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// A body that failed to decode will fail to decode again.
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServer) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false // remaining 4xx
	}
	// Network errors (connection refused, reset) are retryable.
	return true
}

// calculateBackoff returns the delay to wait before the next retry.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	// Exponential backoff: 500ms, 1000ms, 2000ms, etc.
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// do performs a single JSON request and decodes the response into out.
// A nil out discards the body after the status check.
func (c *Client) do(ctx context.Context, method, requestURL string, reqBody any, headers map[string]string, out any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		bodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)

	// SECURITY: Drop the password header copy after the request so it
	// cannot leak through request dumps.
	req.Header.Del(adminPasswordHeader)

	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return nil
}

// doWithRetry wraps do with bounded retries for idempotent requests.
func (c *Client) doWithRetry(ctx context.Context, method, requestURL string, reqBody any, headers map[string]string, out any) error {
	var lastErr error
	budget := c.retryBudget()
	for attempt := 0; attempt < budget; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.do(ctx, method, requestURL, reqBody, headers, out)
		if err == nil {
			return nil
		}
		if !c.isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// =============================================================================
// BOT ENDPOINTS
// =============================================================================

// ListBots retrieves the public summary list of all bots. Calls are
// paced by the list limiter.
func (c *Client) ListBots(ctx context.Context) ([]BotSummary, error) {
	if err := c.listLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bots []BotSummary
	if err := c.doWithRetry(ctx, http.MethodGet, c.endpoint("/api/v1/bot"), nil, nil, &bots); err != nil {
		return nil, err
	}
	return bots, nil
}

// GetBot retrieves the full configuration of one bot. The admin password
// is required; a wrong or missing password yields ErrUnauthorized.
func (c *Client) GetBot(ctx context.Context, botID, adminPassword string) (*Bot, error) {
	headers := map[string]string{adminPasswordHeader: adminPassword}

	var bot Bot
	if err := c.doWithRetry(ctx, http.MethodGet, c.endpoint("/api/v1/bot/"+url.PathEscape(botID)), nil, headers, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// CreateBot creates a new bot; the backend assigns its id.
// Not retried: creation is not idempotent.
func (c *Client) CreateBot(ctx context.Context, adminPassword string, draft BotDraft) error {
	headers := map[string]string{adminPasswordHeader: adminPassword}
	return c.do(ctx, http.MethodPost, c.endpoint("/api/v1/bot"), draft, headers, nil)
}

// UpdateBot replaces the configuration of an existing bot.
func (c *Client) UpdateBot(ctx context.Context, botID, adminPassword string, draft BotDraft) error {
	headers := map[string]string{adminPasswordHeader: adminPassword}
	return c.do(ctx, http.MethodPut, c.endpoint("/api/v1/bot/"+url.PathEscape(botID)), draft, headers, nil)
}

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

// LoadHistory retrieves the full message list for a chat session.
// A fresh chat id returns an empty list, not an error.
func (c *Client) LoadHistory(ctx context.Context, chatID, botID string) ([]WireMessage, error) {
	q := url.Values{}
	q.Set("chat_id", chatID)
	q.Set("bot_id", botID)

	var hist HistoryResponse
	if err := c.doWithRetry(ctx, http.MethodGet, c.endpoint("/api/v1/chat/history?"+q.Encode()), nil, nil, &hist); err != nil {
		return nil, err
	}
	return hist.Messages, nil
}

// MutateMessage edits or deletes a message and returns the backend's
// full replacement message list. The caller replaces its transcript
// wholesale with the result; nothing is patched locally.
func (c *Client) MutateMessage(ctx context.Context, req MutateRequest) ([]WireMessage, error) {
	var hist HistoryResponse
	if err := c.do(ctx, http.MethodPut, c.endpoint("/api/v1/chat/message"), req, nil, &hist); err != nil {
		return nil, err
	}
	return hist.Messages, nil
}
