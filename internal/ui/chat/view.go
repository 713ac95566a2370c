// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat widget view for the botdeck TUI.
//
// This file renders the widget: header, transcript viewport, quick
// action chips, input bar, and status line, with the confirm dialog
// and toast stack layered on top.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/botdeck/internal/model"
	"github.com/jeranaias/botdeck/internal/ui/components"
	"github.com/jeranaias/botdeck/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the complete widget.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.confirm.IsVisible() {
		return m.confirm.View()
	}

	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
	}

	if chips := m.renderQuickActions(); chips != "" {
		sections = append(sections, chips)
	}

	sections = append(sections,
		m.renderInput(),
		m.renderStatusBar(),
	)

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if len(m.toastList) > 0 {
		// Toasts overlay the bottom-right corner without moving layout.
		overlay := components.RenderToastStack(m.toastList, m.width, 0)
		view = lipgloss.JoinVertical(lipgloss.Left, view, overlay)
	}
	return view
}

// renderHeader renders the bot headline and, when set, its secondary
// description.
func (m *Model) renderHeader() string {
	bot := m.ctrl.Bot()
	title := m.theme.HeaderTitle.Render(bot.Headline)
	if bot.SecondaryDescription == nil {
		return m.theme.Header.Width(m.width).Render(title)
	}
	subtitle := m.theme.HeaderSubtitle.Render(*bot.SecondaryDescription)
	return m.theme.Header.Width(m.width).Render(title + "  " + subtitle)
}

// renderInput renders the compose/edit input bar.
func (m *Model) renderInput() string {
	var b strings.Builder

	if m.mode == modeEdit {
		b.WriteString(m.theme.EditedTag.Render("editing"))
		b.WriteString(" ")
	}
	b.WriteString(m.input.View())

	if m.streaming {
		b.WriteString("  ")
		b.WriteString(m.spin.View())
		b.WriteString(m.theme.ThinkingText.Render(" thinking"))
	}

	return m.theme.InputContainer.Width(m.width - 2).Render(b.String())
}

// renderStatusBar renders the shortcut hints for the current mode.
func (m *Model) renderStatusBar() string {
	var hints []string
	switch m.mode {
	case modeSelect:
		hints = []string{
			m.hint("up/down", "select"),
			m.hint("e", "edit"),
			m.hint("d", "delete"),
			m.hint("Esc", "back"),
		}
	case modeEdit:
		hints = []string{
			m.hint("Enter", "save"),
			m.hint("Esc", "cancel"),
		}
	default:
		hints = []string{
			m.hint("Enter", "send"),
			m.hint("Tab", "quick actions"),
			m.hint("C-s", "select"),
			m.hint("C-r", "reset"),
			m.hint("C-q", "quit"),
		}
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(hints, "  "))
}

// hint formats one key/description pair for the status bar.
func (m *Model) hint(keyLabel, desc string) string {
	return m.theme.ShortcutKey.Render(keyLabel) + " " + m.theme.ShortcutDesc.Render(desc)
}

// renderQuickActions renders the bot's action item chips, shown only
// while the conversation is still just the starter greeting.
func (m *Model) renderQuickActions() string {
	chips := m.quickActions()
	if len(chips) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(chips))
	for i, chip := range chips {
		if i == m.chipIndex {
			rendered = append(rendered, m.theme.QuickActionSelected.Render(chip))
		} else {
			rendered = append(rendered, m.theme.QuickAction.Render(chip))
		}
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, rendered...),
	)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport(gotoBottom bool) {
	if !m.ready {
		return
	}

	msgs := m.ctrl.Messages()
	parts := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		selected := m.mode == modeSelect && i == m.selected
		parts = append(parts, m.renderMessage(msg, selected))
	}

	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

// renderMessage renders one transcript message as a bubble.
func (m *Model) renderMessage(msg *model.Message, selected bool) string {
	label := m.theme.SenderLabel.Render(msg.Sender.DisplayName())
	if msg.Edited {
		label += " " + m.theme.EditedTag.Render("(edited)")
	}

	content := msg.DisplayContent()

	var bubble string
	switch {
	case msg.Deleted:
		bubble = m.theme.DeletedMessage.Render(content)
	case msg.Sender == model.SenderBot && msg.IsStreaming:
		// Partial markdown flickers through half-parsed states; keep
		// streaming text plain and render once finalized.
		bubble = m.theme.BotBubble.Render(content)
	case msg.Sender == model.SenderBot:
		bubble = m.theme.BotBubble.Render(m.renderMarkdown(content))
	default:
		bubble = m.theme.UserBubble.Render(content)
	}

	block := label + "\n" + bubble
	if selected {
		block = lipgloss.NewStyle().
			Background(styles.SelectionBg).
			Render(block)
	}

	// User messages align right, bot messages left.
	if msg.Sender == model.SenderUser && m.width > 0 {
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, block)
	}
	return block
}

// renderMarkdown renders bot text through glamour, falling back to
// plain text when the renderer is unavailable or the text fails to
// parse.
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil || text == "" {
		return text
	}

	rendered, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

// =============================================================================
// HELPERS
// =============================================================================

// quickActions returns the chips to offer, or nil once the
// conversation has real messages.
func (m *Model) quickActions() []string {
	msgs := m.ctrl.Messages()
	if len(msgs) != 1 || !msgs[0].IsStarter() {
		return nil
	}
	return m.ctrl.Bot().StarterMessage.ActionItems
}

// lastMutableIndex returns the index of the last editable/deletable
// message, or -1.
func lastMutableIndex(msgs []*model.Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Mutable() {
			return i
		}
	}
	return -1
}

// hasContent reports whether text survives trimming.
func hasContent(text string) bool {
	return strings.TrimSpace(text) != ""
}
