// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "encoding/json"

// =============================================================================
// WIRE TYPES
// =============================================================================

// WireMessage is a single chat message as the backend returns it.
//
// The backend keeps every edit in Versions and never physically removes a
// deleted message; IsDeleted marks it instead. "Edited" is not a wire field:
// derive it from len(Versions) > 1.
type WireMessage struct {
	MessageID string   `json:"message_id"`
	Message   string   `json:"message"`
	Type      string   `json:"type"` // "user" or "bot"
	IsDeleted bool     `json:"is_deleted"`
	Versions  []string `json:"versions"`
}

// Edited reports whether the message has been edited at least once.
func (m *WireMessage) Edited() bool {
	return len(m.Versions) > 1
}

// HistoryResponse is the body of GET /api/v1/chat/history.
type HistoryResponse struct {
	Messages []WireMessage `json:"messages"`
}

// SendRequest is the body of POST /api/v1/chat/sse.
type SendRequest struct {
	ChatID  string `json:"chat_id"`
	BotID   string `json:"bot_id"`
	Message string `json:"message"`
}

// DeltaFrame is a single SSE data frame from the streaming endpoint.
type DeltaFrame struct {
	Delta string `json:"delta"`
}

// MutateRequest is the body of PUT /api/v1/chat/message.
//
// Exactly one of IsDelete or UpdatedValue should be set; the backend
// treats a delete with an updated value as a delete.
type MutateRequest struct {
	ChatID       string `json:"chat_id"`
	BotID        string `json:"bot_id"`
	MessageID    string `json:"message_id"`
	IsDelete     bool   `json:"is_delete,omitempty"`
	UpdatedValue string `json:"updated_value,omitempty"`
}

// =============================================================================
// BOT TYPES
// =============================================================================

// StarterMessage is a bot's configured greeting: the text shown in a
// fresh chat plus its quick-action labels.
type StarterMessage struct {
	Message     string   `json:"message"`
	ActionItems []string `json:"action_items"`
}

// BotSummary is a list entry from GET /api/v1/bot. The list is public
// and carries only what a picker needs; the starter message and
// knowledge text live on the full record.
type BotSummary struct {
	ID        string  `json:"id"`
	Headline  string  `json:"headline"`
	Logo      *string `json:"logo"`
	CreatedAt string  `json:"created_at"`
}

// Bot is the full bot record from GET /api/v1/bot/{id}, which is
// password-gated. Logo and SecondaryDescription are nullable.
type Bot struct {
	ID                   string         `json:"id"`
	Headline             string         `json:"headline"`
	StarterMessage       StarterMessage `json:"starter_message"`
	SecondaryDescription *string        `json:"secondary_description"`
	Logo                 *string        `json:"logo"`
	CreatedAt            string         `json:"created_at"`
}

// BotDraft is the body of POST /api/v1/bot and PUT /api/v1/bot/{id}.
// The backend assigns the id and creation timestamp on create.
//
// SecondaryDescription marshals as null when unset so the backend clears
// the field instead of storing an empty string.
type BotDraft struct {
	Headline             string         `json:"headline"`
	StarterMessage       StarterMessage `json:"starter_message"`
	SecondaryDescription *string        `json:"secondary_description"`
	Logo                 string         `json:"logo"`
}

// apiErrorResponse is the backend's error envelope, when it sends one.
type apiErrorResponse struct {
	Error string `json:"error"`
}

// decodeErrorMessage pulls a human-readable message out of an error body,
// falling back to the raw body when it is not the JSON envelope.
func decodeErrorMessage(body []byte) string {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return string(body)
}
