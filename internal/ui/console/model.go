// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console provides the operator bot console for the botdeck
// TUI.
package console

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/botdeck/internal/api"
	"github.com/jeranaias/botdeck/internal/model"
	"github.com/jeranaias/botdeck/internal/session"
	"github.com/jeranaias/botdeck/internal/ui/components"
	"github.com/jeranaias/botdeck/internal/ui/styles"
	"github.com/jeranaias/botdeck/internal/util"
)

// =============================================================================
// MODES
// =============================================================================

// consoleMode tracks which surface owns the keyboard.
type consoleMode int

const (
	modeList consoleMode = iota
	modeForm
	modePassword
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the bot console.
type Model struct {
	client *api.Client
	store  *session.Store
	theme  *styles.Theme

	mode consoleMode

	table   table.Model
	bots    []api.BotSummary
	loading bool
	spin    spinner.Model

	form *BotForm
	// unlockedPassword is the credential that opened the current edit
	// form; updates reuse it for the request header.
	unlockedPassword string
	// configPassword comes from config/env and skips the prompt when
	// set.
	configPassword string
	// pendingDraft holds a validated create draft while the password
	// prompt is up.
	pendingDraft *model.Draft

	password *components.PasswordPrompt
	// pendingBotID is the bot awaiting unlock; storedAttempt marks
	// whether the in-flight fetch used a saved password, so a 401 can
	// forget it before prompting.
	pendingBotID  string
	storedAttempt bool

	toasts    *components.ToastManager
	toastList []components.Toast

	width  int
	height int
}

// New creates the console model.
func New(client *api.Client, store *session.Store, theme *styles.Theme) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	t := table.New(
		table.WithColumns(botColumns(80)),
		table.WithFocused(true),
	)
	ts := table.DefaultStyles()
	ts.Header = theme.TableHeader
	ts.Selected = theme.TableSelected
	t.SetStyles(ts)

	return &Model{
		client:   client,
		store:    store,
		theme:    theme,
		table:    t,
		loading:  true,
		spin:     sp,
		password: components.NewPasswordPrompt(),
		toasts:   components.NewToastManager(),
	}
}

// WithAdminPassword seeds the console with a configured admin
// password so create/update skip the prompt.
func (m *Model) WithAdminPassword(password string) *Model {
	m.configPassword = password
	return m
}

// Init fetches the bot list and starts the ambient tickers.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		listBotsCmd(m.client),
		m.spin.Tick,
		components.ToastTickCmd(),
	)
}

// SetSize propagates a terminal resize.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.password.SetSize(width, height)

	m.table.SetColumns(botColumns(width))
	tableHeight := height - 6
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)
}

// botColumns sizes the list columns against the terminal width.
func botColumns(width int) []table.Column {
	idWidth := 20
	createdWidth := 26
	headlineWidth := width - idWidth - createdWidth - 8
	if headlineWidth < 16 {
		headlineWidth = 16
	}
	return []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "Headline", Width: headlineWidth},
		{Title: "Created", Width: createdWidth},
	}
}

// setBots replaces the table rows.
func (m *Model) setBots(bots []api.BotSummary) {
	m.bots = bots

	cols := botColumns(m.width)
	rows := make([]table.Row, 0, len(bots))
	for _, b := range bots {
		rows = append(rows, table.Row{
			util.TruncateWidth(b.ID, cols[0].Width),
			util.TruncateWidth(b.Headline, cols[1].Width),
			util.TruncateWidth(b.CreatedAt, cols[2].Width),
		})
	}
	m.table.SetRows(rows)
}

// selectedBot returns the highlighted bot summary, or nil for an
// empty list.
func (m *Model) selectedBot() *api.BotSummary {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.bots) {
		return nil
	}
	return &m.bots[idx]
}

// toast adds a toast and refreshes the visible list.
func (m *Model) toast(t components.Toast) {
	m.toasts.AddToast(t)
	m.toastList = m.toasts.GetToasts()
}
