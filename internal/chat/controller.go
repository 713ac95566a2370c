// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the widget's conversation state machine.
//
// The Controller owns one bot conversation: the transcript, the
// single-flight streaming state, the pending delete confirmation, and
// the exclusive edit buffer. It is UI-agnostic; the TUI layers on top
// and renders snapshots.
//
// The guiding rule is optimistic-then-reconcile: user messages and
// stream deltas are applied to the local transcript immediately, and
// the backend's full message list replaces it wholesale after every
// completed stream or mutation. Server truth always wins.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/botdeck/internal/api"
	"github.com/jeranaias/botdeck/internal/model"
	"github.com/jeranaias/botdeck/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy indicates a stream is in flight; sends and mutations are
	// single-flight and rejected rather than queued.
	ErrBusy = errors.New("stream in progress")

	// ErrEmptyMessage indicates a send or edit with no content after
	// trimming.
	ErrEmptyMessage = errors.New("empty message")

	// ErrNotMutable indicates the message cannot be edited or deleted
	// (bot message, deleted, still streaming, or client-local).
	ErrNotMutable = errors.New("message cannot be modified")

	// ErrNoPendingDelete indicates ConfirmDelete without RequestDelete.
	ErrNoPendingDelete = errors.New("no delete pending")

	// ErrNoActiveEdit indicates SaveEdit without BeginEdit.
	ErrNoActiveEdit = errors.New("no edit in progress")
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives one bot conversation.
type Controller struct {
	client *api.Client
	store  *session.Store
	bot    *api.Bot

	mu         sync.Mutex
	chatID     string
	transcript *model.Transcript

	// Streaming state. cancelStream aborts the in-flight request.
	streaming    bool
	cancelStream context.CancelFunc
	idleTimeout  time.Duration

	// Mutation state: one pending delete, one exclusive edit.
	pendingDelete string
	editingID     string
	editValue     string
}

// New creates a controller for the given bot, resolving (and if needed
// minting) its durable chat id before returning.
func New(client *api.Client, store *session.Store, bot *api.Bot) (*Controller, error) {
	chatID, _, err := store.Resolve(bot.ID)
	if err != nil {
		return nil, err
	}

	return &Controller{
		client:      client,
		store:       store,
		bot:         bot,
		chatID:      chatID,
		transcript:  model.StarterTranscript(bot.StarterMessage.Message),
		idleTimeout: api.DefaultIdleTimeout,
	}, nil
}

// WithIdleTimeout overrides the stream idle timeout.
func (c *Controller) WithIdleTimeout(d time.Duration) *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idleTimeout = d
	return c
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// ChatID returns the current chat session id.
func (c *Controller) ChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatID
}

// Bot returns the bot this conversation belongs to.
func (c *Controller) Bot() *api.Bot {
	return c.bot
}

// IsStreaming reports whether a reply stream is in flight.
func (c *Controller) IsStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

// Messages returns an immutable snapshot of the transcript. Each
// message is copied under the lock, so callers may render the result
// while a reply stream keeps appending to the live transcript.
func (c *Controller) Messages() []*model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Snapshot()
}

// PendingDelete returns the id awaiting delete confirmation, or "".
func (c *Controller) PendingDelete() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingDelete
}

// EditingID returns the id of the message in edit mode, or "".
func (c *Controller) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID
}

// EditValue returns the current edit buffer.
func (c *Controller) EditValue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editValue
}

// =============================================================================
// HISTORY
// =============================================================================

// Load fetches the chat's full history and replaces the transcript.
// An empty history, or any load failure, falls back to the starter
// transcript so the widget stays usable; the error is returned for
// surfacing but the transcript is always left valid.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	chatID := c.chatID
	c.mu.Unlock()

	msgs, err := c.client.LoadHistory(ctx, chatID, c.bot.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || len(msgs) == 0 {
		c.transcript = model.StarterTranscript(c.bot.StarterMessage.Message)
		return err
	}
	c.transcript.ReplaceAll(msgs)
	return nil
}

// =============================================================================
// SENDING
// =============================================================================

// Send posts a user message and consumes the reply stream, invoking
// onDelta after each delta has been applied to the transcript.
//
// Send is single-flight: it returns ErrBusy while a stream is active
// and ErrEmptyMessage for whitespace-only input; callers treat both as
// no-ops. Whatever happens mid-stream, the streaming flag is cleared
// before Send returns, so the conversation can always continue.
func (c *Controller) Send(ctx context.Context, text string, onDelta func(delta string)) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.streaming {
		c.mu.Unlock()
		return ErrBusy
	}
	c.streaming = true

	streamCtx, cancel := context.WithCancel(ctx)
	c.cancelStream = cancel

	// The starter is client-local; it leaves before the first real
	// message so the backend never sees it as history.
	c.transcript.DropStarter()
	c.transcript.Append(model.NewUserMessage(text))

	req := api.SendRequest{
		ChatID:  c.chatID,
		BotID:   c.bot.ID,
		Message: text,
	}
	idle := c.idleTimeout
	c.mu.Unlock()

	// The finally guarantee: streaming always ends, even on error or
	// cancellation, and partial bot text already applied stays put.
	defer func() {
		cancel()
		c.mu.Lock()
		c.transcript.FinalizeStream()
		c.streaming = false
		c.cancelStream = nil
		c.mu.Unlock()
	}()

	err := c.client.SendMessage(streamCtx, req, idle, func(delta string) {
		c.mu.Lock()
		c.transcript.AppendDelta(delta)
		c.mu.Unlock()
		if onDelta != nil {
			onDelta(delta)
		}
	})
	if err != nil {
		return err
	}

	// Stream done: reconcile against the backend's view. A failed
	// reload keeps the optimistic transcript rather than wiping it.
	msgs, err := c.client.LoadHistory(ctx, req.ChatID, req.BotID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.transcript.ReplaceAll(msgs)
	c.mu.Unlock()
	return nil
}

// Cancel aborts an in-flight stream. Partial content is kept and
// reconciled on the next load. Safe to call when idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancelStream
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// DELETE
// =============================================================================

// RequestDelete marks a message for deletion pending confirmation.
// No network traffic happens until ConfirmDelete.
func (c *Controller) RequestDelete(messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streaming {
		return ErrBusy
	}

	msg := c.transcript.Find(messageID)
	if msg == nil || !msg.Mutable() {
		return ErrNotMutable
	}
	c.pendingDelete = messageID
	return nil
}

// CancelDelete dismisses a pending delete confirmation. Free: nothing
// was sent.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = ""
}

// ConfirmDelete performs the pending delete and replaces the
// transcript with the backend's returned message list. On failure the
// transcript is untouched and the confirmation is cleared.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.streaming {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.pendingDelete == "" {
		c.mu.Unlock()
		return ErrNoPendingDelete
	}
	req := api.MutateRequest{
		ChatID:    c.chatID,
		BotID:     c.bot.ID,
		MessageID: c.pendingDelete,
		IsDelete:  true,
	}
	c.pendingDelete = ""
	c.mu.Unlock()

	msgs, err := c.client.MutateMessage(ctx, req)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.transcript.ReplaceAll(msgs)
	c.mu.Unlock()
	return nil
}

// =============================================================================
// EDIT
// =============================================================================

// BeginEdit puts a message into edit mode, seeding the buffer with its
// current content. Edit mode is exclusive: starting a new edit
// replaces any previous one.
func (c *Controller) BeginEdit(messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streaming {
		return ErrBusy
	}

	msg := c.transcript.Find(messageID)
	if msg == nil || !msg.Mutable() {
		return ErrNotMutable
	}
	c.editingID = messageID
	c.editValue = msg.Content
	return nil
}

// SetEditValue updates the edit buffer.
func (c *Controller) SetEditValue(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editValue = value
}

// CancelEdit leaves edit mode without a request; purely local.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editingID = ""
	c.editValue = ""
}

// SaveEdit submits the edit buffer and replaces the transcript with
// the backend's returned message list. Empty buffers are rejected; on
// request failure the transcript and edit mode are left as they were
// so the operator can retry or cancel.
func (c *Controller) SaveEdit(ctx context.Context) error {
	c.mu.Lock()
	if c.streaming {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.editingID == "" {
		c.mu.Unlock()
		return ErrNoActiveEdit
	}
	value := strings.TrimSpace(c.editValue)
	if value == "" {
		c.mu.Unlock()
		return ErrEmptyMessage
	}
	req := api.MutateRequest{
		ChatID:       c.chatID,
		BotID:        c.bot.ID,
		MessageID:    c.editingID,
		UpdatedValue: value,
	}
	c.mu.Unlock()

	msgs, err := c.client.MutateMessage(ctx, req)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.editingID = ""
	c.editValue = ""
	c.transcript.ReplaceAll(msgs)
	c.mu.Unlock()
	return nil
}

// =============================================================================
// RESET
// =============================================================================

// Reset abandons the current session: any in-flight stream is
// cancelled, a fresh chat id is minted and persisted, and the
// transcript collapses to the bot's starter greeting.
func (c *Controller) Reset() error {
	c.Cancel()

	fresh, err := c.store.Reset(c.bot.ID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatID = fresh
	c.transcript = model.StarterTranscript(c.bot.StarterMessage.Message)
	c.pendingDelete = ""
	c.editingID = ""
	c.editValue = ""
	return nil
}
