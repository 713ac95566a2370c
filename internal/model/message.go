// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the client-side data structures for chat
// transcripts and bots.
//
// The backend is the source of truth for all of it; these types only
// hold what the widget needs to render and mutate a conversation.
package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/botdeck/internal/api"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies which side of the conversation wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Bot"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// StarterMessageID is the fixed id of the client-local starter message.
// The starter never exists server-side; it is dropped before the first
// real message is sent and recreated on reset.
const StarterMessageID = "starter"

// deletedPlaceholder is shown in place of a deleted message's content.
const deletedPlaceholder = "This message was deleted"

// Message represents a single message in a transcript.
type Message struct {
	// Identity. Server messages carry backend ids; optimistic user
	// messages get a client-assigned timestamp id until the next
	// history reload replaces them with the server copy.
	ID     string
	Sender Sender

	// Content
	Content string

	// Deleted messages keep their slot in the transcript but render
	// as a placeholder; their content is never shown.
	Deleted bool

	// Edited is derived from the server's version list, never stored.
	Edited bool

	// Streaming state (bot messages only, not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool
	streamContent strings.Builder
}

// NewUserMessage creates an optimistic user message with a
// client-assigned timestamp id.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:      clientID(),
		Sender:  SenderUser,
		Content: content,
	}
}

// NewStreamingBotMessage creates an empty bot message that will be
// filled by stream deltas.
func NewStreamingBotMessage() *Message {
	return &Message{
		ID:          clientID(),
		Sender:      SenderBot,
		IsStreaming: true,
	}
}

// NewStarterMessage creates the client-local greeting shown in a fresh
// chat before any real exchange exists.
func NewStarterMessage(content string) *Message {
	return &Message{
		ID:      StarterMessageID,
		Sender:  SenderBot,
		Content: content,
	}
}

// FromWire converts a backend message record into the client model.
func FromWire(w api.WireMessage) *Message {
	sender := SenderBot
	if w.Type == string(SenderUser) {
		sender = SenderUser
	}
	return &Message{
		ID:      w.MessageID,
		Sender:  sender,
		Content: w.Message,
		Deleted: w.IsDeleted,
		Edited:  w.Edited(),
	}
}

// FromWireList converts a full backend message list.
func FromWireList(ws []api.WireMessage) []*Message {
	msgs := make([]*Message, 0, len(ws))
	for _, w := range ws {
		msgs = append(msgs, FromWire(w))
	}
	return msgs
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsStarter reports whether this is the client-local starter message.
func (m *Message) IsStarter() bool {
	return m.ID == StarterMessageID
}

// AppendDelta appends a streamed delta to a streaming bot message.
func (m *Message) AppendDelta(delta string) {
	if m.IsStreaming {
		m.streamContent.WriteString(delta)
	}
}

// FinalizeStream merges the streamed content into Content.
func (m *Message) FinalizeStream() {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// DisplayContent returns the content to render: the deleted
// placeholder, the live stream buffer, or the final content.
func (m *Message) DisplayContent() string {
	if m.Deleted {
		return deletedPlaceholder
	}
	if m.streamContent.Len() > 0 {
		return m.streamContent.String()
	}
	return m.Content
}

// snapshot returns a copy safe to hand to the render loop while the
// stream goroutine keeps appending to the original. The copy is built
// field by field because strings.Builder must not be copied by value;
// streamed text is flattened into Content.
func (m *Message) snapshot() *Message {
	s := &Message{
		ID:          m.ID,
		Sender:      m.Sender,
		Content:     m.Content,
		Deleted:     m.Deleted,
		Edited:      m.Edited,
		IsStreaming: m.IsStreaming,
	}
	if m.IsStreaming {
		s.Content = m.streamContent.String()
	}
	return s
}

// Mutable reports whether edit/delete affordances apply: only finished,
// non-deleted user messages that exist server-side can be mutated.
func (m *Message) Mutable() bool {
	return m.Sender == SenderUser && !m.Deleted && !m.IsStreaming && !m.IsStarter()
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// clientID creates a client-side message id from the current time.
// Server-assigned ids replace these on the next history reload, so
// uniqueness only matters within one in-flight exchange; nanosecond
// precision keeps the optimistic user message and its bot reply apart.
func clientID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
