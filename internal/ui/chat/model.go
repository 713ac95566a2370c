// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat widget view for the botdeck TUI.
//
// The widget is a thin rendering layer over the conversation
// controller: a viewport transcript, a text input, quick-action chips
// seeded from the bot's configuration, and overlays for delete
// confirmation and session reset. All conversation state lives in the
// controller; the model only carries view state.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	chatctl "github.com/jeranaias/botdeck/internal/chat"
	"github.com/jeranaias/botdeck/internal/ui/components"
	"github.com/jeranaias/botdeck/internal/ui/styles"
)

// =============================================================================
// MODES
// =============================================================================

// inputMode tracks which surface owns the keyboard.
type inputMode int

const (
	// modeCompose: the text input is focused, Enter sends.
	modeCompose inputMode = iota
	// modeSelect: a transcript message is highlighted for edit/delete.
	modeSelect
	// modeEdit: the input holds the edit buffer, Enter saves.
	modeEdit
)

// confirmTarget tracks what the confirm dialog will do on "Confirm".
type confirmTarget int

const (
	confirmNone confirmTarget = iota
	confirmDelete
	confirmReset
)

// markdownWrapLimit caps glamour's word wrap; narrower terminals wrap
// at the bubble width instead.
const markdownWrapLimit = 100

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat widget.
type Model struct {
	ctrl  *chatctl.Controller
	theme *styles.Theme
	keys  KeyMap

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	// Streaming render state. buf is shared with the send goroutine.
	buf       *StreamingBuffer
	streaming bool

	mode     inputMode
	selected int // transcript index in select mode

	// chipIndex is the highlighted quick-action chip, -1 for none.
	// Chips only show while the transcript is starter-only.
	chipIndex int

	confirm    *components.ConfirmDialog
	confirmFor confirmTarget
	toasts     *components.ToastManager
	toastList  []components.Toast

	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool
}

// New creates the widget model for an already-constructed controller.
func New(ctrl *chatctl.Controller, theme *styles.Theme) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	// Renderer failure degrades to plain text, never blocks startup.
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWrapLimit),
	)
	if err != nil {
		renderer = nil
	}

	return &Model{
		ctrl:      ctrl,
		theme:     theme,
		keys:      DefaultKeyMap(),
		input:     ti,
		spin:      sp,
		buf:       NewStreamingBuffer(),
		chipIndex: -1,
		confirm:   components.NewConfirmDialog(),
		toasts:    components.NewToastManager(),
		renderer:  renderer,
	}
}

// Init loads history and starts the ambient tickers.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		loadHistoryCmd(m.ctrl),
		m.spin.Tick,
		components.ToastTickCmd(),
	)
}

// SetSize propagates a terminal resize to every component.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.confirm.SetSize(width, height)

	headerHeight := 3
	inputHeight := 3
	statusHeight := 1
	vpHeight := height - headerHeight - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}

	m.input.Width = width - 6

	wrap := width - 12
	if wrap > markdownWrapLimit {
		wrap = markdownWrapLimit
	}
	if wrap > 0 {
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		); err == nil {
			m.renderer = r
		}
	}

	m.refreshViewport(false)
}

// toast adds a toast and refreshes the visible list.
func (m *Model) toast(t components.Toast) {
	m.toasts.AddToast(t)
	m.toastList = m.toasts.GetToasts()
}
