// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// SSE READER TESTS
// =============================================================================

func TestSSEReader_ReadEvent(t *testing.T) {
	input := "data: {\"delta\":\"Hello\"}\n\ndata: {\"delta\":\" world\"}\n\ndata: [DONE]\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	expected := []string{`{"delta":"Hello"}`, `{"delta":" world"}`, "[DONE]"}
	for i, want := range expected {
		_, data, err := reader.ReadEvent()
		if err != nil {
			t.Fatalf("event %d: unexpected error: %v", i, err)
		}
		if string(data) != want {
			t.Errorf("event %d: expected %q, got %q", i, want, string(data))
		}
	}

	if _, _, err := reader.ReadEvent(); err != io.EOF {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestSSEReader_EventField(t *testing.T) {
	reader := NewSSEReader(strings.NewReader("event: message\ndata: hello\n\n"))
	eventType, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eventType != "message" {
		t.Errorf("expected event type %q, got %q", "message", eventType)
	}
	if string(data) != "hello" {
		t.Errorf("expected data %q, got %q", "hello", string(data))
	}
}

func TestSSEReader_FlushesPendingDataAtEOF(t *testing.T) {
	// No trailing blank line before EOF.
	reader := NewSSEReader(strings.NewReader("data: tail\n"))
	_, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "tail" {
		t.Errorf("expected pending data flushed at EOF, got %q", string(data))
	}
}

func TestSSEReader_RejectsOversizedEvent(t *testing.T) {
	huge := "data: " + strings.Repeat("x", MaxEventSize+1) + "\n\n"
	reader := NewSSEReader(strings.NewReader(huge))
	if _, _, err := reader.ReadEvent(); err == nil {
		t.Error("expected error for event over MaxEventSize")
	}
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func sseHandler(frames []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}
}

func TestSendMessage_ConcatenatesDeltas(t *testing.T) {
	ts := httptest.NewServer(sseHandler([]string{
		`{"delta":"Hello"}`,
		`{"delta":", "}`,
		`{"delta":"world"}`,
		"[DONE]",
	}))
	defer ts.Close()

	client := newTestClient(ts)
	var got strings.Builder
	err := client.SendMessage(context.Background(), SendRequest{
		ChatID:  "chat-1",
		BotID:   "bot-1",
		Message: "hi",
	}, 0, func(delta string) {
		got.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "Hello, world" {
		t.Errorf("expected %q, got %q", "Hello, world", got.String())
	}
}

func TestSendMessage_SkipsMalformedFrames(t *testing.T) {
	ts := httptest.NewServer(sseHandler([]string{
		`{"delta":"good"}`,
		`{not json`,
		`{"delta":""}`,
		`{"delta":" frames"}`,
		"[DONE]",
	}))
	defer ts.Close()

	client := newTestClient(ts)
	var got strings.Builder
	err := client.SendMessage(context.Background(), SendRequest{ChatID: "c", BotID: "b", Message: "m"}, 0, func(delta string) {
		got.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "good frames" {
		t.Errorf("expected malformed and empty frames skipped, got %q", got.String())
	}
}

func TestSendMessage_EndsCleanlyAtEOF(t *testing.T) {
	// No [DONE] sentinel; the stream just closes.
	ts := httptest.NewServer(sseHandler([]string{`{"delta":"done"}`}))
	defer ts.Close()

	client := newTestClient(ts)
	err := client.SendMessage(context.Background(), SendRequest{ChatID: "c", BotID: "b", Message: "m"}, 0, func(string) {})
	if err != nil {
		t.Errorf("expected clean EOF, got %v", err)
	}
}

func TestSendMessage_IdleTimeoutKeepsPartial(t *testing.T) {
	stall := make(chan struct{})
	defer close(stall)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"delta\":\"partial\"}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-stall:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	client := newTestClient(ts)
	err := client.SendMessage(context.Background(), SendRequest{ChatID: "c", BotID: "b", Message: "m"}, 100*time.Millisecond, func(string) {})
	if !errors.Is(err, ErrStreamIdle) {
		t.Fatalf("expected ErrStreamIdle, got %v", err)
	}

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected *StreamError, got %T", err)
	}
	if streamErr.Partial != "partial" {
		t.Errorf("expected partial content preserved, got %q", streamErr.Partial)
	}
}

func TestSendMessage_CancellationKeepsPartial(t *testing.T) {
	started := make(chan struct{})
	stall := make(chan struct{})
	defer close(stall)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"delta\":\"half a reply\"}\n\n")
		w.(http.Flusher).Flush()
		close(started)
		select {
		case <-stall:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		// Give the client a moment to consume the first frame.
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	client := newTestClient(ts)
	err := client.SendMessage(ctx, SendRequest{ChatID: "c", BotID: "b", Message: "m"}, 0, func(string) {})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected *StreamError, got %T", err)
	}
	if streamErr.Partial != "half a reply" {
		t.Errorf("expected partial content preserved, got %q", streamErr.Partial)
	}
}

func TestSendMessage_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such bot"}`))
	}))
	defer ts.Close()

	client := newTestClient(ts)
	err := client.SendMessage(context.Background(), SendRequest{ChatID: "c", BotID: "nope", Message: "m"}, 0, func(string) {})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
