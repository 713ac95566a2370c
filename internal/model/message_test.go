// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"

	"github.com/jeranaias/botdeck/internal/api"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestFromWire(t *testing.T) {
	tests := []struct {
		name    string
		wire    api.WireMessage
		sender  Sender
		edited  bool
		deleted bool
	}{
		{
			name:   "user message",
			wire:   api.WireMessage{MessageID: "m1", Message: "hi", Type: "user", Versions: []string{"hi"}},
			sender: SenderUser,
		},
		{
			name:   "bot message",
			wire:   api.WireMessage{MessageID: "m2", Message: "hello", Type: "bot", Versions: []string{"hello"}},
			sender: SenderBot,
		},
		{
			name:   "edited derived from versions",
			wire:   api.WireMessage{MessageID: "m3", Message: "fixed", Type: "user", Versions: []string{"first", "fixed"}},
			sender: SenderUser,
			edited: true,
		},
		{
			name:    "deleted message",
			wire:    api.WireMessage{MessageID: "m4", Message: "gone", Type: "user", IsDeleted: true, Versions: []string{"gone"}},
			sender:  SenderUser,
			deleted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := FromWire(tt.wire)
			if msg.ID != tt.wire.MessageID {
				t.Errorf("expected id %q, got %q", tt.wire.MessageID, msg.ID)
			}
			if msg.Sender != tt.sender {
				t.Errorf("expected sender %q, got %q", tt.sender, msg.Sender)
			}
			if msg.Edited != tt.edited {
				t.Errorf("expected edited=%v, got %v", tt.edited, msg.Edited)
			}
			if msg.Deleted != tt.deleted {
				t.Errorf("expected deleted=%v, got %v", tt.deleted, msg.Deleted)
			}
		})
	}
}

func TestMessage_DisplayContent(t *testing.T) {
	deleted := &Message{Content: "secret", Deleted: true}
	if got := deleted.DisplayContent(); got != "This message was deleted" {
		t.Errorf("expected deleted placeholder, got %q", got)
	}

	streaming := NewStreamingBotMessage()
	streaming.AppendDelta("partial ")
	streaming.AppendDelta("reply")
	if got := streaming.DisplayContent(); got != "partial reply" {
		t.Errorf("expected live stream buffer, got %q", got)
	}

	plain := &Message{Content: "done"}
	if got := plain.DisplayContent(); got != "done" {
		t.Errorf("expected final content, got %q", got)
	}
}

func TestMessage_FinalizeStream(t *testing.T) {
	msg := NewStreamingBotMessage()
	msg.AppendDelta("hello")
	msg.AppendDelta(" world")

	msg.FinalizeStream()
	if msg.IsStreaming {
		t.Error("expected streaming flag cleared")
	}
	if msg.Content != "hello world" {
		t.Errorf("expected content %q, got %q", "hello world", msg.Content)
	}

	// A second finalize is a no-op.
	msg.FinalizeStream()
	if msg.Content != "hello world" {
		t.Errorf("expected content unchanged, got %q", msg.Content)
	}
}

func TestMessage_Mutable(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want bool
	}{
		{"finished user message", &Message{ID: "m1", Sender: SenderUser, Content: "hi"}, true},
		{"bot message", &Message{ID: "m2", Sender: SenderBot, Content: "hello"}, false},
		{"deleted message", &Message{ID: "m3", Sender: SenderUser, Deleted: true}, false},
		{"streaming message", &Message{ID: "m4", Sender: SenderUser, IsStreaming: true}, false},
		{"starter", NewStarterMessage("Welcome!"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Mutable(); got != tt.want {
				t.Errorf("expected Mutable()=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := &Message{Content: "héllo wörld, this is a long message"}
	got := msg.Preview(10)
	if got != "héllo w..." {
		t.Errorf("expected rune-aware truncation, got %q", got)
	}

	short := &Message{Content: "hi"}
	if got := short.Preview(10); got != "hi" {
		t.Errorf("expected short content untouched, got %q", got)
	}
}

func TestNewUserMessage_UniqueIDs(t *testing.T) {
	a := NewUserMessage("one")
	b := NewUserMessage("two")
	if a.ID == b.ID {
		t.Error("expected distinct client ids for consecutive messages")
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_StarterLifecycle(t *testing.T) {
	tr := StarterTranscript("Welcome!")
	if !tr.IsStarterOnly() {
		t.Fatal("expected starter-only transcript")
	}

	tr.DropStarter()
	if tr.Len() != 0 {
		t.Errorf("expected empty transcript after drop, got %d messages", tr.Len())
	}

	// DropStarter only fires on a starter-only transcript.
	tr2 := StarterTranscript("Welcome!")
	tr2.Append(NewUserMessage("hi"))
	tr2.DropStarter()
	if tr2.Len() != 2 {
		t.Errorf("expected mixed transcript untouched, got %d messages", tr2.Len())
	}
}

func TestTranscript_AppendDelta(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUserMessage("question"))

	// First delta creates the trailing bot message.
	first := tr.AppendDelta("an")
	if tr.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", tr.Len())
	}
	if !first.IsStreaming || first.Sender != SenderBot {
		t.Error("expected a streaming bot message")
	}

	// Later deltas reuse it.
	second := tr.AppendDelta("swer")
	if second != first {
		t.Error("expected deltas routed to the same message")
	}
	if got := tr.StreamedText(); got != "answer" {
		t.Errorf("expected streamed text %q, got %q", "answer", got)
	}

	tr.FinalizeStream()
	if tr.Last().Content != "answer" {
		t.Errorf("expected finalized content %q, got %q", "answer", tr.Last().Content)
	}
	if tr.StreamedText() != "" {
		t.Error("expected no streamed text after finalize")
	}
}

func TestTranscript_ReplaceAll(t *testing.T) {
	tr := StarterTranscript("Welcome!")
	tr.Append(NewUserMessage("optimistic"))

	tr.ReplaceAll([]api.WireMessage{
		{MessageID: "m1", Message: "server copy", Type: "user", Versions: []string{"server copy"}},
	})
	if tr.Len() != 1 {
		t.Fatalf("expected 1 message, got %d", tr.Len())
	}
	if tr.Messages[0].ID != "m1" {
		t.Errorf("expected server message to win, got id %q", tr.Messages[0].ID)
	}
}

func TestTranscript_Snapshot(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUserMessage("question"))
	tr.AppendDelta("an")

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 snapshot messages, got %d", len(snap))
	}
	if snap[1] == tr.Last() {
		t.Fatal("expected snapshot to copy messages, not share them")
	}
	if got := snap[1].DisplayContent(); got != "an" {
		t.Errorf("expected streamed text flattened into the copy, got %q", got)
	}
	if !snap[1].IsStreaming {
		t.Error("expected snapshot to keep the streaming flag")
	}

	// The live message keeps streaming; the copy stays put.
	tr.AppendDelta("swer")
	if got := snap[1].DisplayContent(); got != "an" {
		t.Errorf("expected snapshot unchanged by later deltas, got %q", got)
	}
	if got := tr.StreamedText(); got != "answer" {
		t.Errorf("expected live text %q, got %q", "answer", got)
	}
}

func TestTranscript_Find(t *testing.T) {
	tr := NewTranscript()
	msg := NewUserMessage("findable")
	tr.Append(msg)

	if got := tr.Find(msg.ID); got != msg {
		t.Error("expected Find to return the appended message")
	}
	if got := tr.Find("missing"); got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestTranscript_Plain(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUserMessage("hello"))
	tr.Append(&Message{ID: "m2", Sender: SenderBot, Content: "hi there"})

	expected := "You: hello\nBot: hi there"
	if got := tr.Plain(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// =============================================================================
// DRAFT TESTS
// =============================================================================

func TestDraft_Validate(t *testing.T) {
	valid := Draft{Headline: "Support", StarterMessage: "Welcome!"}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid draft, got %v", err)
	}

	tests := []struct {
		name  string
		draft Draft
	}{
		{"missing headline", Draft{StarterMessage: "Welcome!"}},
		{"missing starter message", Draft{Headline: "Support"}},
		{"whitespace only", Draft{Headline: "  ", StarterMessage: "Welcome!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.draft.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDraft_ToWire(t *testing.T) {
	d := Draft{Headline: "Support", StarterMessage: "Welcome!", ActionItems: []string{"Pricing"}}
	w := d.ToWire()

	if w.Headline != "Support" {
		t.Errorf("expected headline kept, got %q", w.Headline)
	}
	if w.StarterMessage.Message != "Welcome!" || len(w.StarterMessage.ActionItems) != 1 {
		t.Errorf("unexpected starter message: %+v", w.StarterMessage)
	}

	if w.Logo != DefaultLogoURL {
		t.Error("expected empty logo filled with default")
	}
	if w.SecondaryDescription != nil {
		t.Error("expected empty secondary description sent as null")
	}

	d.SecondaryDescription = "  trimmed  "
	d.Logo = "https://example.com/logo.png"
	w = d.ToWire()
	if w.Logo != "https://example.com/logo.png" {
		t.Errorf("expected custom logo kept, got %q", w.Logo)
	}
	if w.SecondaryDescription == nil || *w.SecondaryDescription != "trimmed" {
		t.Errorf("expected trimmed secondary description, got %v", w.SecondaryDescription)
	}
}

func TestDraftFromBot_Roundtrip(t *testing.T) {
	secondary := "we also do X"
	logo := "logo.png"
	bot := &api.Bot{
		ID:       "support",
		Headline: "Hi",
		StarterMessage: api.StarterMessage{
			Message:     "Welcome!",
			ActionItems: []string{"Pricing"},
		},
		SecondaryDescription: &secondary,
		Logo:                 &logo,
		CreatedAt:            "2024-01-01T00:00:00Z",
	}

	d := DraftFromBot(bot)
	if d.ID != "support" {
		t.Errorf("expected bot id carried into the draft, got %q", d.ID)
	}
	if d.StarterMessage != "Welcome!" {
		t.Errorf("expected starter %q, got %q", "Welcome!", d.StarterMessage)
	}
	if d.SecondaryDescription != secondary {
		t.Errorf("expected secondary %q, got %q", secondary, d.SecondaryDescription)
	}
	if d.Logo != logo {
		t.Errorf("expected logo %q, got %q", logo, d.Logo)
	}

	// Mutating the draft's action items must not touch the bot.
	d.ActionItems[0] = "changed"
	if bot.StarterMessage.ActionItems[0] != "Pricing" {
		t.Error("expected draft to copy the action item slice")
	}

	// Nil optionals come through as empty strings.
	bare := DraftFromBot(&api.Bot{ID: "b", Headline: "h"})
	if bare.SecondaryDescription != "" || bare.Logo != "" {
		t.Errorf("expected empty optionals, got %q / %q", bare.SecondaryDescription, bare.Logo)
	}
}

func TestNewDraft_Defaults(t *testing.T) {
	d := NewDraft()
	if d.Headline != DefaultHeadline {
		t.Errorf("expected default headline, got %q", d.Headline)
	}
	if d.StarterMessage != DefaultStarterMessage {
		t.Errorf("expected default starter message, got %q", d.StarterMessage)
	}
	if len(d.ActionItems) != 2 {
		t.Errorf("expected 2 default action items, got %d", len(d.ActionItems))
	}
	if !strings.Contains(d.ActionItems[0], "security") {
		t.Errorf("unexpected default action item: %q", d.ActionItems[0])
	}
}
