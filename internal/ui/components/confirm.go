// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/botdeck/internal/ui/styles"
	"github.com/jeranaias/botdeck/internal/util"
)

// =============================================================================
// CONFIRM DIALOG
// =============================================================================

// ConfirmDialog displays a modal yes/no confirmation. Destructive actions
// (message deletion, reset) must pass through it before any request is made.
type ConfirmDialog struct {
	title   string
	body    string
	preview string

	visible  bool
	selected int // 0=Confirm, 1=Cancel
	width    int
	height   int
}

// Button options
const (
	ButtonConfirm      = 0
	ButtonCancel       = 1
	confirmButtonCount = 2
)

// ConfirmResultMsg is emitted when the dialog is resolved.
type ConfirmResultMsg struct {
	Confirmed bool
}

// NewConfirmDialog creates a hidden confirmation dialog.
func NewConfirmDialog() *ConfirmDialog {
	return &ConfirmDialog{selected: ButtonCancel}
}

// Show displays the dialog with the given title and body text. preview is
// optional context (e.g. the message about to be deleted) shown in a dim box.
func (c *ConfirmDialog) Show(title, body, preview string) {
	c.title = title
	c.body = body
	c.preview = preview
	c.visible = true
	// Default to Cancel so a stray Enter does nothing destructive.
	c.selected = ButtonCancel
}

// Hide hides the dialog.
func (c *ConfirmDialog) Hide() {
	c.visible = false
}

// IsVisible returns whether the dialog is visible.
func (c *ConfirmDialog) IsVisible() bool {
	return c.visible
}

// SetSize updates the dialog dimensions.
func (c *ConfirmDialog) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// =============================================================================
// BUBBLE TEA METHODS
// =============================================================================

// Update handles key events. The second return value reports whether the
// event was consumed; while visible the dialog consumes all keys.
func (c *ConfirmDialog) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !c.visible {
		return nil, false
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "right", "h", "l", "tab", "shift+tab":
			c.selected = (c.selected + 1) % confirmButtonCount
			return nil, true

		case "enter", " ":
			confirmed := c.selected == ButtonConfirm
			c.Hide()
			return func() tea.Msg {
				return ConfirmResultMsg{Confirmed: confirmed}
			}, true

		case "y":
			c.Hide()
			return func() tea.Msg {
				return ConfirmResultMsg{Confirmed: true}
			}, true

		case "escape", "n":
			c.Hide()
			return func() tea.Msg {
				return ConfirmResultMsg{Confirmed: false}
			}, true
		}
		return nil, true
	}

	return nil, false
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the confirmation dialog centered in the terminal.
func (c *ConfirmDialog) View() string {
	if !c.visible {
		return ""
	}

	boxWidth := 56
	if c.width > 0 && c.width < 70 {
		boxWidth = c.width - 10
	}
	if boxWidth < 36 {
		boxWidth = 36
	}

	var content strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Rose).
		Bold(true)
	content.WriteString(titleStyle.Render(c.title))
	content.WriteString("\n\n")

	bodyStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(boxWidth - 6)
	content.WriteString(bodyStyle.Render(c.body))
	content.WriteString("\n")

	if c.preview != "" {
		previewBox := lipgloss.NewStyle().
			Background(styles.SurfaceDim).
			Foreground(styles.TextSecondary).
			Padding(0, 1).
			Width(boxWidth - 6).
			Render(util.TruncateRunes(c.preview, 120))
		content.WriteString("\n")
		content.WriteString(previewBox)
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(c.renderButtons())

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	content.WriteString("\n\n")
	content.WriteString(hintStyle.Render("y=Confirm  n=Cancel  Tab=Navigate"))

	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Rose).
		Background(styles.Surface).
		Padding(1, 2).
		Width(boxWidth)

	box := boxStyle.Render(content.String())

	if c.width > 0 && c.height > 0 {
		return lipgloss.Place(
			c.width, c.height,
			lipgloss.Center, lipgloss.Center,
			box,
		)
	}
	return box
}

// renderButtons renders the Confirm/Cancel button row.
func (c *ConfirmDialog) renderButtons() string {
	buttonStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Background(styles.Overlay).
		Padding(0, 2).
		MarginRight(1)

	confirmActiveStyle := lipgloss.NewStyle().
		Foreground(styles.TextInverse).
		Background(styles.Rose).
		Bold(true).
		Padding(0, 2).
		MarginRight(1)

	cancelActiveStyle := confirmActiveStyle.Background(styles.Purple)

	var buttons []string

	if c.selected == ButtonConfirm {
		buttons = append(buttons, confirmActiveStyle.Render("Confirm"))
	} else {
		buttons = append(buttons, buttonStyle.Render("Confirm"))
	}

	if c.selected == ButtonCancel {
		buttons = append(buttons, cancelActiveStyle.Render("Cancel"))
	} else {
		buttons = append(buttons, buttonStyle.Render("Cancel"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, buttons...)
}
