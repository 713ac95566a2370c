// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the operator bot console for the botdeck
// TUI.
package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/botdeck/internal/ui/components"
	"github.com/jeranaias/botdeck/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the console.
func (m *Model) View() string {
	var body string

	switch m.mode {
	case modePassword:
		return m.password.View()
	case modeForm:
		body = m.theme.Container.Render(m.form.View(m.theme))
	default:
		body = m.renderList()
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatusBar(),
	)

	if len(m.toastList) > 0 {
		overlay := components.RenderToastStack(m.toastList, m.width, 0)
		view = lipgloss.JoinVertical(lipgloss.Left, view, overlay)
	}
	return view
}

// renderHeader renders the console title bar.
func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Bot Console")
	if m.loading {
		title += "  " + m.spin.View()
	}
	return m.theme.Header.Width(m.width).Render(title)
}

// renderList renders the bot table, or a hint when empty.
func (m *Model) renderList() string {
	if len(m.bots) == 0 && !m.loading {
		empty := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Padding(1, 2)
		return empty.Render("No bots yet. Press n to create one.")
	}
	return m.table.View()
}

// renderStatusBar renders the shortcut hints for the current mode.
func (m *Model) renderStatusBar() string {
	var hints []string
	switch m.mode {
	case modeForm:
		hints = []string{
			m.hint("Tab", "next field"),
			m.hint("C-s", "save"),
			m.hint("Esc", "cancel"),
		}
	default:
		hints = []string{
			m.hint("Enter", "edit"),
			m.hint("n", "new bot"),
			m.hint("r", "refresh"),
			m.hint("q", "quit"),
		}
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(hints, "  "))
}

// hint formats one key/description pair for the status bar.
func (m *Model) hint(keyLabel, desc string) string {
	return m.theme.ShortcutKey.Render(keyLabel) + " " + m.theme.ShortcutDesc.Render(desc)
}
