// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat widget view for the botdeck TUI.
//
// This file contains the Bubble Tea update loop for the widget.
package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/botdeck/internal/api"
	chatctl "github.com/jeranaias/botdeck/internal/chat"
	"github.com/jeranaias/botdeck/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages for the widget.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// The confirm dialog owns the keyboard while visible.
		if m.confirm.IsVisible() {
			cmd, _ := m.confirm.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)

	case components.ConfirmResultMsg:
		return m.handleConfirmResult(msg)

	case components.ToastTickMsg:
		m.toastList = m.toasts.TickToasts()
		return m, components.ToastTickCmd()

	case components.ToastDismissMsg:
		m.toasts.RemoveToast(msg.ID)
		m.toastList = m.toasts.GetToasts()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case HistoryLoadedMsg:
		if msg.Err != nil {
			m.toast(components.NewErrorToast("Could not load history; starting a fresh conversation"))
		}
		m.refreshViewport(true)
		return m, nil

	case StreamTickMsg:
		if !m.streaming {
			return m, nil
		}
		if _, ok := m.buf.Flush(); ok {
			m.refreshViewport(true)
		}
		return m, streamTickCmd()

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case MutateDoneMsg:
		return m.handleMutateDone(msg)

	case ResetDoneMsg:
		if msg.Err != nil {
			m.toast(components.NewErrorToast("Reset failed: " + msg.Err.Error()))
		} else {
			m.toast(components.NewStatusToast("New conversation started"))
			m.chipIndex = -1
		}
		m.refreshViewport(true)
		return m, nil
	}

	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes key events by input mode.
func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		// ctrl+c cancels an in-flight stream before quitting.
		if m.streaming && msg.String() == "ctrl+c" {
			m.ctrl.Cancel()
			return m, nil
		}
		return m, tea.Quit
	}

	switch m.mode {
	case modeSelect:
		return m.handleSelectKey(msg)
	case modeEdit:
		return m.handleEditKey(msg)
	default:
		return m.handleComposeKey(msg)
	}
}

// handleComposeKey handles keys while the message input owns focus.
func (m *Model) handleComposeKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.streaming {
			m.ctrl.Cancel()
			return m, nil
		}
		m.chipIndex = -1
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.NextChip):
		chips := m.quickActions()
		if len(chips) > 0 {
			m.chipIndex = (m.chipIndex + 1) % len(chips)
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if m.streaming {
			m.toast(components.NewStatusToast("Wait for the reply to finish"))
			return m, nil
		}
		msgs := m.ctrl.Messages()
		if idx := lastMutableIndex(msgs); idx >= 0 {
			m.mode = modeSelect
			m.selected = idx
			m.input.Blur()
			m.refreshViewport(false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		m.confirmFor = confirmReset
		m.confirm.Show(
			"Reset Conversation",
			"Start over with a fresh conversation? The current one will no longer be shown.",
			"",
		)
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// Typing dismisses any highlighted quick action.
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeyBackspace {
		m.chipIndex = -1
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends either the highlighted quick action or the input text.
func (m *Model) submit() (*Model, tea.Cmd) {
	text := m.input.Value()

	if chips := m.quickActions(); m.chipIndex >= 0 && m.chipIndex < len(chips) {
		text = chips[m.chipIndex]
		m.chipIndex = -1
	}

	if m.streaming {
		m.toast(components.NewStatusToast("Wait for the current reply to finish"))
		return m, nil
	}

	// The controller rejects whitespace-only input; catching it here
	// avoids clearing the input for nothing.
	if !hasContent(text) {
		return m, nil
	}

	m.input.SetValue("")
	m.streaming = true
	m.buf.Reset()
	m.refreshViewport(true)

	return m, tea.Batch(
		sendCmd(m.ctrl, text, m.buf),
		streamTickCmd(),
	)
}

// handleSelectKey handles keys while a transcript message is selected.
func (m *Model) handleSelectKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	msgs := m.ctrl.Messages()

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.exitSelect()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
			m.refreshViewport(false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(msgs)-1 {
			m.selected++
			m.refreshViewport(false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		if m.selected >= len(msgs) {
			return m, nil
		}
		target := msgs[m.selected]
		if err := m.ctrl.BeginEdit(target.ID); err != nil {
			m.toast(components.NewStatusToast(mutationHint(err)))
			return m, nil
		}
		m.mode = modeEdit
		m.input.Prompt = "edit> "
		m.input.SetValue(m.ctrl.EditValue())
		m.input.CursorEnd()
		cmd := m.input.Focus()
		m.refreshViewport(false)
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if m.selected >= len(msgs) {
			return m, nil
		}
		target := msgs[m.selected]
		if err := m.ctrl.RequestDelete(target.ID); err != nil {
			m.toast(components.NewStatusToast(mutationHint(err)))
			return m, nil
		}
		m.confirmFor = confirmDelete
		m.confirm.Show(
			"Delete Message",
			"Delete this message? It will show as deleted in the conversation.",
			target.Content,
		)
		return m, nil
	}

	return m, nil
}

// handleEditKey handles keys while editing a message.
func (m *Model) handleEditKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.CancelEdit()
		m.exitEdit()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.ctrl.SetEditValue(m.input.Value())
		return m, saveEditCmd(m.ctrl)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetEditValue(m.input.Value())
	return m, cmd
}

// =============================================================================
// RESULT HANDLING
// =============================================================================

// handleConfirmResult resolves the pending confirm dialog.
func (m *Model) handleConfirmResult(msg components.ConfirmResultMsg) (*Model, tea.Cmd) {
	target := m.confirmFor
	m.confirmFor = confirmNone

	switch target {
	case confirmDelete:
		if !msg.Confirmed {
			// Dismissing is free: nothing was sent.
			m.ctrl.CancelDelete()
			return m, nil
		}
		return m, confirmDeleteCmd(m.ctrl)

	case confirmReset:
		if !msg.Confirmed {
			return m, nil
		}
		m.exitSelect()
		return m, resetCmd(m.ctrl)
	}

	return m, nil
}

// handleStreamDone finalizes a completed or failed stream.
func (m *Model) handleStreamDone(msg StreamDoneMsg) (*Model, tea.Cmd) {
	m.streaming = false
	m.buf.ForceFlush()
	m.refreshViewport(true)

	if msg.Err == nil {
		return m, nil
	}

	switch {
	case errors.Is(msg.Err, chatctl.ErrBusy), errors.Is(msg.Err, chatctl.ErrEmptyMessage):
		// Single-flight and empty sends are silent no-ops.
	case errors.Is(msg.Err, context.Canceled):
		m.toast(components.NewStatusToast("Reply cancelled"))
	case errors.Is(msg.Err, api.ErrStreamIdle):
		m.toast(components.NewErrorToast("The reply stalled and was cut off"))
	default:
		var streamErr *api.StreamError
		if errors.As(msg.Err, &streamErr) && streamErr.Partial != "" {
			m.toast(components.NewErrorToast("Reply interrupted; partial text kept"))
		} else {
			m.toast(components.NewErrorToast("Send failed: " + msg.Err.Error()))
		}
	}
	return m, nil
}

// handleMutateDone finalizes a delete or edit round trip.
func (m *Model) handleMutateDone(msg MutateDoneMsg) (*Model, tea.Cmd) {
	if msg.Err != nil {
		if msg.Op == OpEdit && errors.Is(msg.Err, chatctl.ErrEmptyMessage) {
			// Keep edit mode so the operator can fix or cancel.
			m.toast(components.NewStatusToast("Edited message cannot be empty"))
			return m, nil
		}
		m.toast(components.NewErrorToast("Could not " + msg.Op.String() + " message: " + msg.Err.Error()))
		if msg.Op == OpDelete {
			m.exitSelect()
		}
		return m, nil
	}

	if msg.Op == OpEdit {
		m.exitEdit()
		m.toast(components.NewSuccessToast("Message updated"))
	} else {
		m.exitSelect()
		m.toast(components.NewSuccessToast("Message deleted"))
	}
	m.refreshViewport(true)
	return m, nil
}

// =============================================================================
// MODE TRANSITIONS
// =============================================================================

// exitSelect returns to compose mode from select mode.
func (m *Model) exitSelect() {
	if m.mode == modeSelect {
		m.mode = modeCompose
		m.input.Focus()
	}
	m.refreshViewport(false)
}

// exitEdit returns to compose mode from edit mode, restoring the
// input for a fresh message.
func (m *Model) exitEdit() {
	m.mode = modeCompose
	m.input.Prompt = "> "
	m.input.SetValue("")
	m.input.Focus()
	m.refreshViewport(false)
}

// =============================================================================
// HELPERS
// =============================================================================

// mutationHint maps controller rejections to operator-facing text.
func mutationHint(err error) string {
	switch {
	case errors.Is(err, chatctl.ErrBusy):
		return "Wait for the reply to finish"
	case errors.Is(err, chatctl.ErrNotMutable):
		return "Only your own messages can be changed"
	default:
		return err.Error()
	}
}
