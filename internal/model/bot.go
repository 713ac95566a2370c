// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strings"

	"github.com/jeranaias/botdeck/internal/api"
)

// =============================================================================
// BOT DEFAULTS
// =============================================================================

// DefaultLogoURL fills the logo field when an operator creates a bot
// without one.
const DefaultLogoURL = "https://cdn3d.iconscout.com/3d/premium/thumb/girl-3d-icon-download-in-png-blend-fbx-gltf-file-formats--woman-female-person-young-human-avatar-pack-people-icons-7590886.png"

// Default form values for new bots.
const (
	DefaultHeadline       = "Hello, I'm your AI Assistant"
	DefaultStarterMessage = "Welcome! I'm here to help answer your questions and provide assistance. How can I help you today?"
)

// DefaultActionItems returns the default quick-action labels for a new
// bot. Returned fresh so callers can mutate their copy.
func DefaultActionItems() []string {
	return []string{
		"Learn about our security measures",
		"View our pricing plans and features",
	}
}

// =============================================================================
// BOT DRAFT
// =============================================================================

// Draft is the editable bot form state in the console. ID is empty for
// a new bot (the backend assigns one) and carries the existing bot's
// id while editing.
type Draft struct {
	ID                   string
	Headline             string
	StarterMessage       string
	ActionItems          []string
	SecondaryDescription string
	Logo                 string
}

// NewDraft returns a draft pre-filled with the default form values.
func NewDraft() Draft {
	return Draft{
		Headline:       DefaultHeadline,
		StarterMessage: DefaultStarterMessage,
		ActionItems:    DefaultActionItems(),
	}
}

// DraftFromBot seeds a draft from an existing bot for editing.
func DraftFromBot(b *api.Bot) Draft {
	d := Draft{
		ID:             b.ID,
		Headline:       b.Headline,
		StarterMessage: b.StarterMessage.Message,
		ActionItems:    append([]string(nil), b.StarterMessage.ActionItems...),
	}
	if b.SecondaryDescription != nil {
		d.SecondaryDescription = *b.SecondaryDescription
	}
	if b.Logo != nil {
		d.Logo = *b.Logo
	}
	return d
}

// Validate checks the required fields.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Headline) == "" {
		return errors.New("headline is required")
	}
	if strings.TrimSpace(d.StarterMessage) == "" {
		return errors.New("starter message is required")
	}
	return nil
}

// ToWire converts the draft to the request body the backend expects.
// An empty logo is filled with the default; an empty secondary
// description is sent as null so the backend clears it.
func (d *Draft) ToWire() api.BotDraft {
	w := api.BotDraft{
		Headline: d.Headline,
		StarterMessage: api.StarterMessage{
			Message:     d.StarterMessage,
			ActionItems: append([]string(nil), d.ActionItems...),
		},
		Logo: d.Logo,
	}
	if w.Logo == "" {
		w.Logo = DefaultLogoURL
	}
	if s := strings.TrimSpace(d.SecondaryDescription); s != "" {
		w.SecondaryDescription = &s
	}
	return w
}
