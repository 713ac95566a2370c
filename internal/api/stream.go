// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// STREAMING: Robust SSE parsing with error handling

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// MaxEventSize is the maximum allowed size for a single SSE event (64KB).
const MaxEventSize = 64 * 1024

// DefaultIdleTimeout aborts a stream that stops producing frames.
const DefaultIdleTimeout = 120 * time.Second

// =============================================================================
// STREAMING TYPES
// =============================================================================

// DeltaCallback is called for each text delta received from the stream.
type DeltaCallback func(delta string)

// StreamError represents an error that occurred during streaming,
// preserving any partial content received before the error.
type StreamError struct {
	Partial string // Content received before error
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// ErrStreamIdle indicates the stream produced no frames within the idle
// timeout.
var ErrStreamIdle = errors.New("stream idle timeout")

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next SSE event from the stream.
// Returns the event type, data, and any error.
// The event type is empty for this backend; only data frames are sent.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte
	var size int

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// If we have data, return it before EOF
				if len(dataLines) > 0 {
					return eventType, bytes.Join(dataLines, []byte("\n")), nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		size += len(line)
		if size > MaxEventSize {
			return "", nil, fmt.Errorf("event too large: %d bytes", size)
		}

		// Trim trailing newline and carriage return
		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		// Parse field
		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[6:]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(line[5:])
			dataLines = append(dataLines, data)
		}
		// Ignore other fields (id:, retry:, comments starting with :)
	}
}

// =============================================================================
// STREAMING SEND
// =============================================================================

// SendMessage posts a user message and consumes the SSE reply stream,
// invoking the callback for each delta in arrival order. The streamed
// reply is exactly the concatenation of all deltas.
//
// Malformed frames are skipped silently; the stream ends at EOF or a
// [DONE] sentinel. Cancellation is via ctx. If frames stop arriving for
// longer than idleTimeout (<= 0 means DefaultIdleTimeout), the stream
// is aborted with ErrStreamIdle wrapped in a StreamError.
func (c *Client) SendMessage(ctx context.Context, req SendRequest, idleTimeout time.Duration, callback DeltaCallback) error {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/v1/chat/sse"), bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("Connection", "keep-alive")

	// PERFORMANCE: Shared streaming client, timeout handled via context.
	resp, err := c.streamer.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxEventSize))
		return handleErrorResponse(resp.StatusCode, body)
	}

	return c.processStream(ctx, resp.Body, idleTimeout, callback)
}

// processStream reads and processes the SSE stream.
//
// Partial content is preserved in a StreamError on failure so callers
// can keep what was already rendered.
func (c *Client) processStream(ctx context.Context, body io.Reader, idleTimeout time.Duration, callback DeltaCallback) error {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	// Own the reader goroutine's lifetime: every return path below
	// cancels it, otherwise a timed-out stream would leak the reader.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reader := NewSSEReader(body)
	var accumulated strings.Builder

	type event struct {
		data []byte
		err  error
	}
	events := make(chan event, 1)

	// ReadEvent blocks on the socket; run it on its own goroutine so
	// the select below can enforce cancellation and the idle timeout.
	go func() {
		for {
			_, data, err := reader.ReadEvent()
			select {
			case events <- event{data: data, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			if accumulated.Len() > 0 {
				return &StreamError{Partial: accumulated.String(), Err: ctx.Err()}
			}
			return ctx.Err()

		case <-idle.C:
			return &StreamError{Partial: accumulated.String(), Err: ErrStreamIdle}

		case ev := <-events:
			if ev.err != nil {
				if ev.err == io.EOF {
					return nil
				}
				return &StreamError{Partial: accumulated.String(), Err: ev.err}
			}

			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(idleTimeout)

			// Check for [DONE] signal
			if bytes.Equal(ev.data, []byte("[DONE]")) {
				return nil
			}

			// Parse the frame
			var frame DeltaFrame
			if err := json.Unmarshal(ev.data, &frame); err != nil {
				// Skip malformed frames
				continue
			}
			if frame.Delta == "" {
				continue
			}

			accumulated.WriteString(frame.Delta)
			callback(frame.Delta)
		}
	}
}
