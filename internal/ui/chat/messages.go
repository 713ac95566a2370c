// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat widget view for the botdeck TUI.
//
// This file defines the Bubble Tea message types used by the widget.
// Messages fall into four groups: history loading, streaming, message
// mutation, and session reset. All follow Bubble Tea conventions and
// are immutable.
package chat

import (
	"time"
)

// =============================================================================
// HISTORY MESSAGES
// =============================================================================

// HistoryLoadedMsg reports the result of the initial history fetch.
// On error the controller has already fallen back to the starter
// transcript; Err is surfaced as a toast only.
type HistoryLoadedMsg struct {
	Err error
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamDoneMsg signals that a reply stream finished, successfully or
// not. Partial content, if any, is already in the transcript.
type StreamDoneMsg struct {
	Err error
}

// StreamTickMsg is sent at 30fps while streaming to batch delta
// rendering. This prevents excessive re-renders which cause flicker
// and high CPU on fast streams.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// MUTATION MESSAGES
// =============================================================================

// MutateOp identifies which mutation a MutateDoneMsg reports on.
type MutateOp int

const (
	OpDelete MutateOp = iota
	OpEdit
)

// String returns the operation name for toasts.
func (o MutateOp) String() string {
	if o == OpDelete {
		return "delete"
	}
	return "edit"
}

// MutateDoneMsg reports the result of a delete or edit round trip.
// On success the transcript has already been replaced with the
// backend's list.
type MutateDoneMsg struct {
	Op  MutateOp
	Err error
}

// =============================================================================
// RESET MESSAGES
// =============================================================================

// ResetDoneMsg reports the result of a session reset.
type ResetDoneMsg struct {
	Err error
}
