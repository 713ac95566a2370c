// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat widget view for the botdeck TUI.
//
// This file defines the async commands bridging the Bubble Tea loop to
// the conversation controller. Each command runs one blocking
// controller call off the UI goroutine and reports back with a single
// message; deltas take the side channel through the StreamingBuffer.
package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	chatctl "github.com/jeranaias/botdeck/internal/chat"
)

// loadHistoryCmd fetches the conversation history. The controller
// falls back to the starter transcript on its own; the command only
// carries the error for toasting.
func loadHistoryCmd(ctrl *chatctl.Controller) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.Load(context.Background())
		return HistoryLoadedMsg{Err: err}
	}
}

// sendCmd posts the message and consumes the reply stream. Deltas feed
// the streaming buffer; the tick loop renders them. The command blocks
// until the stream (and the follow-up reconciling reload) finishes.
func sendCmd(ctrl *chatctl.Controller, text string, buf *StreamingBuffer) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.Send(context.Background(), text, func(delta string) {
			buf.Write(delta)
		})
		return StreamDoneMsg{Err: err}
	}
}

// confirmDeleteCmd performs the pending delete round trip.
func confirmDeleteCmd(ctrl *chatctl.Controller) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.ConfirmDelete(context.Background())
		return MutateDoneMsg{Op: OpDelete, Err: err}
	}
}

// saveEditCmd submits the edit buffer.
func saveEditCmd(ctrl *chatctl.Controller) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.SaveEdit(context.Background())
		return MutateDoneMsg{Op: OpEdit, Err: err}
	}
}

// resetCmd abandons the session and mints a fresh chat id.
func resetCmd(ctrl *chatctl.Controller) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.Reset()
		return ResetDoneMsg{Err: err}
	}
}
