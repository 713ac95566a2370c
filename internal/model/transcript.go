// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"

	"github.com/jeranaias/botdeck/internal/api"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript holds the ordered message list of one chat session.
//
// It is the optimistic local view: the widget appends user messages and
// stream deltas eagerly, and the backend's full message list replaces
// everything after each completed stream or mutation.
type Transcript struct {
	Messages []*Message
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{Messages: make([]*Message, 0)}
}

// StarterTranscript creates a transcript holding only the bot's
// starter greeting. Used for fresh chats, resets, and as the fallback
// when history cannot be loaded.
func StarterTranscript(starterMessage string) *Transcript {
	return &Transcript{Messages: []*Message{NewStarterMessage(starterMessage)}}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg *Message) {
	t.Messages = append(t.Messages, msg)
}

// ReplaceAll swaps the whole message list for the backend's view.
// Server truth wins; nothing local survives.
func (t *Transcript) ReplaceAll(ws []api.WireMessage) {
	t.Messages = FromWireList(ws)
}

// DropStarter removes the client-local starter message if it is the
// only content, so it never reaches the backend as history context.
func (t *Transcript) DropStarter() {
	if t.IsStarterOnly() {
		t.Messages = t.Messages[:0]
	}
}

// IsStarterOnly reports whether the transcript holds exactly the
// starter greeting and nothing else.
func (t *Transcript) IsStarterOnly() bool {
	return len(t.Messages) == 1 && t.Messages[0].IsStarter()
}

// Last returns the most recent message, or nil if empty.
func (t *Transcript) Last() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// Find returns the message with the given id, or nil.
func (t *Transcript) Find(id string) *Message {
	for _, m := range t.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.Messages)
}

// Snapshot returns per-message copies of the transcript. The copies
// share nothing with the live messages, so a caller may render them
// while a stream keeps mutating the originals.
func (t *Transcript) Snapshot() []*Message {
	out := make([]*Message, len(t.Messages))
	for i, m := range t.Messages {
		out[i] = m.snapshot()
	}
	return out
}

// =============================================================================
// STREAMING
// =============================================================================

// AppendDelta routes a stream delta to the trailing bot message,
// creating it on the first delta. Returns the receiving message.
func (t *Transcript) AppendDelta(delta string) *Message {
	last := t.Last()
	if last == nil || !last.IsStreaming {
		last = NewStreamingBotMessage()
		t.Append(last)
	}
	last.AppendDelta(delta)
	return last
}

// FinalizeStream merges the trailing bot message's stream buffer, if
// one is active. Safe to call when nothing is streaming.
func (t *Transcript) FinalizeStream() {
	if last := t.Last(); last != nil {
		last.FinalizeStream()
	}
}

// StreamedText returns the live content of the trailing streaming bot
// message, or "" when nothing is streaming.
func (t *Transcript) StreamedText() string {
	last := t.Last()
	if last == nil || !last.IsStreaming {
		return ""
	}
	return last.DisplayContent()
}

// =============================================================================
// QUERIES
// =============================================================================

// Plain returns the transcript flattened to "Sender: content" lines,
// used for copy-to-clipboard and logging.
func (t *Transcript) Plain() string {
	var b strings.Builder
	for i, m := range t.Messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Sender.DisplayName())
		b.WriteString(": ")
		b.WriteString(m.DisplayContent())
	}
	return b.String()
}
