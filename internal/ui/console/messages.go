// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the operator bot console for the botdeck
// TUI: a password-gated surface for listing, creating, and editing
// bots.
//
// This file defines the console's Bubble Tea messages and the async
// commands that produce them.
package console

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/botdeck/internal/api"
	"github.com/jeranaias/botdeck/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================

// BotsLoadedMsg delivers the public bot summary list.
type BotsLoadedMsg struct {
	Bots []api.BotSummary
	Err  error
}

// BotLoadedMsg delivers one bot's full config after a password-gated
// fetch. Password carries the credential that worked so it can be
// persisted on success.
type BotLoadedMsg struct {
	BotID    string
	Password string
	Bot      *api.Bot
	Err      error
}

// BotSavedMsg reports a create or update round trip.
type BotSavedMsg struct {
	BotID   string
	Created bool
	Err     error
}

// =============================================================================
// COMMANDS
// =============================================================================

// listBotsCmd fetches the bot list. The client paces repeated calls,
// so mashing refresh stays polite to the backend.
func listBotsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		bots, err := client.ListBots(context.Background())
		return BotsLoadedMsg{Bots: bots, Err: err}
	}
}

// getBotCmd fetches a bot's full config with the given password.
func getBotCmd(client *api.Client, botID, password string) tea.Cmd {
	return func() tea.Msg {
		bot, err := client.GetBot(context.Background(), botID, password)
		return BotLoadedMsg{BotID: botID, Password: password, Bot: bot, Err: err}
	}
}

// createBotCmd creates a new bot from the draft.
func createBotCmd(client *api.Client, draft model.Draft, password string) tea.Cmd {
	return func() tea.Msg {
		err := client.CreateBot(context.Background(), password, draft.ToWire())
		return BotSavedMsg{BotID: draft.ID, Created: true, Err: err}
	}
}

// updateBotCmd updates an existing bot from the draft.
func updateBotCmd(client *api.Client, draft model.Draft, password string) tea.Cmd {
	return func() tea.Msg {
		err := client.UpdateBot(context.Background(), draft.ID, password, draft.ToWire())
		return BotSavedMsg{BotID: draft.ID, Created: false, Err: err}
	}
}
