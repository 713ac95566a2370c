// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the operator bot console for the botdeck
// TUI.
//
// This file implements the bot create/edit form: a vertical stack of
// text inputs over a model.Draft. The form is purely local; the
// parent model submits the resulting draft.
package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/botdeck/internal/model"
	"github.com/jeranaias/botdeck/internal/ui/styles"
)

// Form field indexes, in display order.
const (
	fieldHeadline = iota
	fieldStarter
	fieldActions
	fieldSecondary
	fieldLogo
	fieldCount
)

// actionSeparator splits the quick-action input into items.
const actionSeparator = ";"

var fieldLabels = [fieldCount]string{
	"Headline",
	"Starter message",
	"Quick actions (separate with ;)",
	"Secondary description",
	"Logo URL",
}

// =============================================================================
// BOT FORM
// =============================================================================

// BotForm is the create/edit form over a bot draft.
type BotForm struct {
	inputs  [fieldCount]textinput.Model
	focused int

	// botID is set when editing an existing bot. The backend assigns
	// ids, so the form never takes one as input.
	botID   string
	editing bool
	errText string
}

// NewBotForm creates a form. For editing, pass the draft seeded from
// the existing bot; for creation, pass model.NewDraft().
func NewBotForm(draft model.Draft, editing bool) *BotForm {
	f := &BotForm{editing: editing}

	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 2000
		ti.Width = 60
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
		ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
		f.inputs[i] = ti
	}

	f.botID = draft.ID
	f.inputs[fieldHeadline].SetValue(draft.Headline)
	f.inputs[fieldStarter].SetValue(draft.StarterMessage)
	f.inputs[fieldActions].SetValue(strings.Join(draft.ActionItems, actionSeparator+" "))
	f.inputs[fieldSecondary].SetValue(draft.SecondaryDescription)
	f.inputs[fieldLogo].SetValue(draft.Logo)
	f.inputs[fieldLogo].Placeholder = "default logo used when empty"

	f.focused = fieldHeadline
	f.inputs[f.focused].Focus()

	return f
}

// Editing reports whether the form targets an existing bot.
func (f *BotForm) Editing() bool {
	return f.editing
}

// SetError displays a validation or request error under the form.
func (f *BotForm) SetError(text string) {
	f.errText = text
}

// Draft assembles the current field values into a draft.
func (f *BotForm) Draft() model.Draft {
	var actions []string
	for _, item := range strings.Split(f.inputs[fieldActions].Value(), actionSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			actions = append(actions, item)
		}
	}

	return model.Draft{
		ID:                   f.botID,
		Headline:             strings.TrimSpace(f.inputs[fieldHeadline].Value()),
		StarterMessage:       strings.TrimSpace(f.inputs[fieldStarter].Value()),
		ActionItems:          actions,
		SecondaryDescription: f.inputs[fieldSecondary].Value(),
		Logo:                 strings.TrimSpace(f.inputs[fieldLogo].Value()),
	}
}

// =============================================================================
// BUBBLE TEA METHODS
// =============================================================================

// Update moves focus and forwards typing to the focused field.
func (f *BotForm) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down", "enter":
			return f.focusField(f.nextField(1))
		case "shift+tab", "up":
			return f.focusField(f.nextField(-1))
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return cmd
}

// nextField returns the next field index in direction dir, wrapping.
func (f *BotForm) nextField(dir int) int {
	return (f.focused + dir + fieldCount) % fieldCount
}

// focusField moves focus to the given field.
func (f *BotForm) focusField(idx int) tea.Cmd {
	f.inputs[f.focused].Blur()
	f.focused = idx
	return f.inputs[f.focused].Focus()
}

// View renders the form fields with labels, the focused one marked.
func (f *BotForm) View(theme *styles.Theme) string {
	var b strings.Builder

	title := "New Bot"
	if f.editing {
		title = "Edit Bot " + f.botID
	}
	b.WriteString(theme.HeaderTitle.Render(title))
	b.WriteString("\n\n")

	for i := range f.inputs {
		label := fieldLabels[i]
		marker := "  "
		if i == f.focused {
			marker = theme.ShortcutKey.Render("> ")
		}
		b.WriteString(theme.FormLabel.Render(label))
		b.WriteString("\n")
		b.WriteString(marker)
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}

	if f.errText != "" {
		b.WriteString("\n")
		b.WriteString(theme.FormError.Render(styles.StatusIndicators.Error + " " + f.errText))
	}

	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("Tab=Next field  C-s=Save  Esc=Cancel"))

	return b.String()
}
