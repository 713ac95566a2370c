// botdeck - terminal chat widget and bot console for a hosted
// conversational-AI backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/botdeck/internal/api"
	"github.com/jeranaias/botdeck/internal/app"
	chatctl "github.com/jeranaias/botdeck/internal/chat"
	"github.com/jeranaias/botdeck/internal/config"
	chatui "github.com/jeranaias/botdeck/internal/ui/chat"
	consoleui "github.com/jeranaias/botdeck/internal/ui/console"
	"github.com/jeranaias/botdeck/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "chat":
		if len(args) < 2 {
			runChat("")
			return
		}
		runChat(args[1])
	case "console":
		runConsole()
	case "version", "--version", "-v":
		fmt.Printf("botdeck %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	case "", "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`botdeck - terminal client for your hosted chat bots

Usage:
  botdeck chat [bot-id]   Open the chat widget for a bot
  botdeck console         Open the bot management console
  botdeck version         Print version information

Configuration lives at ~/.botdeck/config.toml. The backend URL can
also be set with BOTDECK_API_URL.`)
}

// setup loads config, builds the application context, and starts the
// config watcher. Fatal problems print and exit; a missing config
// file is not one of them.
func setup() (*app.App, *config.Watcher) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: botdeck requires an interactive terminal")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Backend URL, retry budget, and stream idle timeout changes are
	// applied to the running app; a watcher failure only costs hot
	// reload.
	watcher, err := config.NewWatcher(a.Reconfigure)
	if err == nil {
		if err := watcher.Watch(); err != nil {
			watcher.Close()
			watcher = nil
		}
	} else {
		watcher = nil
	}

	return a, watcher
}

// =============================================================================
// CHAT WIDGET
// =============================================================================

func runChat(botID string) {
	a, watcher := setup()
	defer a.Close()
	if watcher != nil {
		defer watcher.Close()
	}

	if botID == "" {
		botID = a.Config().Chat.DefaultBot
	}
	if botID == "" {
		fmt.Fprintln(os.Stderr, "Error: no bot id given and no default_bot configured")
		os.Exit(1)
	}

	bot, err := resolveBot(a, botID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not resolve bot %q: %v\n", botID, err)
		os.Exit(1)
	}

	ctrl, err := chatctl.New(a.API, a.Sessions, bot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not open session: %v\n", err)
		os.Exit(1)
	}
	ctrl.WithIdleTimeout(a.Config().StreamIdleTimeout())
	a.OnReconfigure(func(cfg *config.Config) {
		ctrl.WithIdleTimeout(cfg.StreamIdleTimeout())
	})

	theme := styles.NewTheme()
	model := chatui.New(ctrl, theme)

	p := tea.NewProgram(widgetModel{inner: model}, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveBot fetches the bot's full record. The fetch is
// password-gated, so credentials are tried in order: the password
// saved from a previous unlock, then the configured admin password,
// then an interactive prompt. Whichever one works is persisted for
// next time; a saved password the backend rejects is forgotten.
func resolveBot(a *app.App, botID string) (*api.Bot, error) {
	ctx := context.Background()

	if pw, err := a.Sessions.Password(botID); err == nil {
		bot, err := a.API.GetBot(ctx, botID, pw)
		if err == nil {
			return bot, nil
		}
		if !errors.Is(err, api.ErrUnauthorized) {
			return nil, err
		}
		_ = a.Sessions.ForgetPassword(botID)
	}

	if pw := a.Config().Backend.AdminPassword; pw != "" {
		bot, err := a.API.GetBot(ctx, botID, pw)
		if err == nil {
			_ = a.Sessions.SetPassword(botID, pw)
			return bot, nil
		}
		if !errors.Is(err, api.ErrUnauthorized) {
			return nil, err
		}
	}

	for attempt := 0; attempt < 3; attempt++ {
		fmt.Fprintf(os.Stderr, "Password for bot %q: ", botID)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}

		bot, err := a.API.GetBot(ctx, botID, string(raw))
		if err == nil {
			_ = a.Sessions.SetPassword(botID, string(raw))
			return bot, nil
		}
		if !errors.Is(err, api.ErrUnauthorized) {
			return nil, err
		}
		fmt.Fprintln(os.Stderr, "Wrong password, try again")
	}
	return nil, api.ErrUnauthorized
}

// widgetModel adapts the widget's pointer model to tea.Model.
type widgetModel struct {
	inner *chatui.Model
}

func (w widgetModel) Init() tea.Cmd {
	return w.inner.Init()
}

func (w widgetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := w.inner.Update(msg)
	return w, cmd
}

func (w widgetModel) View() string {
	return w.inner.View()
}

// =============================================================================
// BOT CONSOLE
// =============================================================================

func runConsole() {
	a, watcher := setup()
	defer a.Close()
	if watcher != nil {
		defer watcher.Close()
	}

	theme := styles.NewTheme()
	model := consoleui.New(a.API, a.Sessions, theme).
		WithAdminPassword(a.Config().Backend.AdminPassword)

	p := tea.NewProgram(consoleModel{inner: model}, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// consoleModel adapts the console's pointer model to tea.Model.
type consoleModel struct {
	inner *consoleui.Model
}

func (c consoleModel) Init() tea.Cmd {
	return c.inner.Init()
}

func (c consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := c.inner.Update(msg)
	return c, cmd
}

func (c consoleModel) View() string {
	return c.inner.View()
}
