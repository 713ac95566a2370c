// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/botdeck/internal/ui/styles"
)

// =============================================================================
// PASSWORD PROMPT
// =============================================================================

// PasswordPrompt is a modal overlay that collects the admin password for
// bot-management requests. Input is masked; the value is handed off via
// PasswordSubmitMsg and never rendered.
type PasswordPrompt struct {
	input textinput.Model

	title   string
	errText string

	visible bool
	width   int
	height  int
}

// PasswordSubmitMsg carries the entered password.
type PasswordSubmitMsg struct {
	Password string
}

// PasswordCancelMsg is emitted when the prompt is dismissed without input.
type PasswordCancelMsg struct{}

// NewPasswordPrompt creates a hidden password prompt.
func NewPasswordPrompt() *PasswordPrompt {
	ti := textinput.New()
	ti.Placeholder = "Admin password"
	ti.Prompt = "> "
	ti.CharLimit = 128
	ti.Width = 40
	// SECURITY: Mask input so the password never appears on screen.
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

	return &PasswordPrompt{
		input: ti,
		title: "Authentication Required",
	}
}

// Show displays the prompt. errText is optional; it is shown in red when a
// previous attempt was rejected.
func (p *PasswordPrompt) Show(errText string) tea.Cmd {
	p.visible = true
	p.errText = errText
	p.input.SetValue("")
	return p.input.Focus()
}

// Hide hides the prompt and clears the buffer.
func (p *PasswordPrompt) Hide() {
	p.visible = false
	p.input.SetValue("")
	p.input.Blur()
}

// IsVisible returns whether the prompt is visible.
func (p *PasswordPrompt) IsVisible() bool {
	return p.visible
}

// SetSize updates the prompt dimensions.
func (p *PasswordPrompt) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// =============================================================================
// BUBBLE TEA METHODS
// =============================================================================

// Update handles key events. While visible the prompt consumes all keys.
func (p *PasswordPrompt) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !p.visible {
		return nil, false
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			value := p.input.Value()
			if strings.TrimSpace(value) == "" {
				p.errText = "Password cannot be empty"
				return nil, true
			}
			p.Hide()
			return func() tea.Msg {
				return PasswordSubmitMsg{Password: value}
			}, true

		case "esc":
			p.Hide()
			return func() tea.Msg {
				return PasswordCancelMsg{}
			}, true
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd, true
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the password prompt centered in the terminal.
func (p *PasswordPrompt) View() string {
	if !p.visible {
		return ""
	}

	boxWidth := 52
	if p.width > 0 && p.width < 64 {
		boxWidth = p.width - 8
	}
	if boxWidth < 36 {
		boxWidth = 36
	}

	var content strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Bold(true)
	content.WriteString(titleStyle.Render(p.title))
	content.WriteString("\n\n")

	if p.errText != "" {
		errStyle := lipgloss.NewStyle().
			Foreground(styles.Rose).
			Width(boxWidth - 6)
		content.WriteString(errStyle.Render(styles.StatusIndicators.Error + " " + p.errText))
		content.WriteString("\n\n")
	}

	content.WriteString(p.input.View())

	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	content.WriteString("\n\n")
	content.WriteString(hintStyle.Render("Enter=Submit  Esc=Cancel"))

	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Purple).
		Background(styles.Surface).
		Padding(1, 2).
		Width(boxWidth)

	box := boxStyle.Render(content.String())

	if p.width > 0 && p.height > 0 {
		return lipgloss.Place(
			p.width, p.height,
			lipgloss.Center, lipgloss.Center,
			box,
		)
	}
	return box
}
