// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the operator bot console for the botdeck
// TUI.
//
// This file contains the console's Bubble Tea update loop, including
// the password gate: a stored password is tried silently first, and
// the operator is only prompted when none is stored or the backend
// rejects it.
package console

import (
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/botdeck/internal/api"
	"github.com/jeranaias/botdeck/internal/model"
	"github.com/jeranaias/botdeck/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages for the console.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case components.PasswordSubmitMsg:
		m.storedAttempt = false
		m.loading = true
		if m.pendingDraft != nil {
			draft := *m.pendingDraft
			m.pendingDraft = nil
			m.unlockedPassword = msg.Password
			m.mode = modeForm
			return m, createBotCmd(m.client, draft, msg.Password)
		}
		return m, getBotCmd(m.client, m.pendingBotID, msg.Password)

	case components.PasswordCancelMsg:
		m.pendingBotID = ""
		if m.pendingDraft != nil {
			// Back to the form with the draft intact.
			m.pendingDraft = nil
			m.mode = modeForm
			return m, nil
		}
		m.mode = modeList
		return m, nil

	case components.ToastTickMsg:
		m.toastList = m.toasts.TickToasts()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case BotsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.toast(components.NewErrorToast("Could not load bots: " + msg.Err.Error()))
			return m, nil
		}
		m.setBots(msg.Bots)
		return m, nil

	case BotLoadedMsg:
		return m.handleBotLoaded(msg)

	case BotSavedMsg:
		return m.handleBotSaved(msg)
	}

	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes key events by mode.
func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modePassword:
		cmd, _ := m.password.Update(msg)
		return m, cmd
	case modeForm:
		return m.handleFormKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

// handleListKey handles keys on the bot list.
func (m *Model) handleListKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "r":
		m.loading = true
		return m, listBotsCmd(m.client)

	case "n":
		m.form = NewBotForm(model.NewDraft(), false)
		m.unlockedPassword = ""
		m.mode = modeForm
		return m, nil

	case "enter", "e":
		bot := m.selectedBot()
		if bot == nil {
			return m, nil
		}
		return m.unlockBot(bot.ID)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleFormKey handles keys on the create/edit form.
func (m *Model) handleFormKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form = nil
		m.mode = modeList
		return m, nil

	case "ctrl+s":
		draft := m.form.Draft()
		if err := draft.Validate(); err != nil {
			m.form.SetError(err.Error())
			return m, nil
		}
		m.form.SetError("")
		if m.form.Editing() {
			m.loading = true
			return m, updateBotCmd(m.client, draft, m.unlockedPassword)
		}
		if pw := m.createPassword(); pw != "" {
			m.loading = true
			return m, createBotCmd(m.client, draft, pw)
		}
		// No credential on hand; ask before sending the draft.
		m.pendingDraft = &draft
		m.mode = modePassword
		return m, m.password.Show("")
	}

	return m, m.form.Update(msg)
}

// =============================================================================
// PASSWORD GATE
// =============================================================================

// createPassword returns the best credential on hand for creating a
// bot: the configured password, falling back to the one that opened
// the last edit.
func (m *Model) createPassword() string {
	if m.configPassword != "" {
		return m.configPassword
	}
	return m.unlockedPassword
}

// unlockBot starts the edit flow for a bot: a stored password is
// tried first, the prompt only appears on a miss.
func (m *Model) unlockBot(botID string) (*Model, tea.Cmd) {
	m.pendingBotID = botID

	if pw, err := m.store.Password(botID); err == nil {
		m.storedAttempt = true
		m.loading = true
		return m, getBotCmd(m.client, botID, pw)
	}

	m.storedAttempt = false
	m.mode = modePassword
	return m, m.password.Show("")
}

// handleBotLoaded resolves a password-gated fetch.
func (m *Model) handleBotLoaded(msg BotLoadedMsg) (*Model, tea.Cmd) {
	m.loading = false

	if errors.Is(msg.Err, api.ErrUnauthorized) {
		errText := "Wrong password, try again"
		if m.storedAttempt {
			// The saved credential went stale; drop it before
			// prompting.
			_ = m.store.ForgetPassword(msg.BotID)
			errText = "Saved password was rejected"
		}
		m.storedAttempt = false
		m.mode = modePassword
		return m, m.password.Show(errText)
	}
	if msg.Err != nil {
		m.mode = modeList
		m.toast(components.NewErrorToast("Could not load bot: " + msg.Err.Error()))
		return m, nil
	}

	// Unlock succeeded: remember the credential for next time.
	if err := m.store.SetPassword(msg.BotID, msg.Password); err != nil {
		m.toast(components.NewStatusToast("Password accepted but could not be saved"))
	}

	m.unlockedPassword = msg.Password
	m.form = NewBotForm(model.DraftFromBot(msg.Bot), true)
	m.mode = modeForm
	return m, nil
}

// handleBotSaved resolves a create or update round trip.
func (m *Model) handleBotSaved(msg BotSavedMsg) (*Model, tea.Cmd) {
	m.loading = false

	if msg.Err != nil {
		if msg.Created && errors.Is(msg.Err, api.ErrUnauthorized) && m.form != nil {
			draft := m.form.Draft()
			m.pendingDraft = &draft
			m.unlockedPassword = ""
			m.mode = modePassword
			return m, m.password.Show("Wrong password, try again")
		}
		if m.form != nil {
			m.form.SetError(msg.Err.Error())
		} else {
			m.toast(components.NewErrorToast("Save failed: " + msg.Err.Error()))
		}
		return m, nil
	}

	// Creates carry no id: the backend assigns one and the reloaded
	// list shows it.
	if msg.Created {
		m.toast(components.NewSuccessToast("Bot created"))
	} else {
		m.toast(components.NewSuccessToast("Bot " + msg.BotID + " updated"))
	}

	m.form = nil
	m.mode = modeList
	m.loading = true
	return m, listBotsCmd(m.client)
}
