// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the application context.
//
// App is built once in main and injected into every surface. There is
// deliberately no package-level singleton here: anything that needs
// the client, the config, or the session store receives it
// explicitly, which keeps tests able to construct isolated instances.
package app

import (
	"fmt"
	"sync"

	"github.com/jeranaias/botdeck/internal/api"
	"github.com/jeranaias/botdeck/internal/config"
	"github.com/jeranaias/botdeck/internal/session"
)

// App holds the shared dependencies of both TUI surfaces.
type App struct {
	API      *api.Client
	Sessions *session.Store

	// cfg is swapped by Reconfigure from the config watcher goroutine
	// while surfaces read it, so access goes through the mutex.
	mu    sync.RWMutex
	cfg   *config.Config
	hooks []func(*config.Config)
}

// New builds the application context from a loaded config: the API
// client pointed at the configured backend and the local session
// store. Callers own Close.
func New(cfg *config.Config) (*App, error) {
	client := api.NewClient(cfg.Backend.APIURL).
		WithMaxRetries(cfg.Backend.MaxRetries)

	path, err := session.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate session store: %w", err)
	}
	store, err := session.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return &App{
		API:      client,
		Sessions: store,
		cfg:      cfg,
	}, nil
}

// NewWithStore builds an App around an existing store, used by tests
// to avoid touching the user's state directory.
func NewWithStore(cfg *config.Config, client *api.Client, store *session.Store) *App {
	return &App{
		API:      client,
		Sessions: store,
		cfg:      cfg,
	}
}

// Config returns the current configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// OnReconfigure registers a hook invoked after each Reconfigure, with
// the new config. Hooks run on the caller's goroutine (the config
// watcher), so they must be safe to run concurrently with the UI.
func (a *App) OnReconfigure(fn func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Reconfigure applies a reloaded config to the running application:
// the API client is repointed at the (possibly changed) backend and
// retry budget, and registered hooks are invoked. Requests already in
// flight finish against the old backend.
func (a *App) Reconfigure(cfg *config.Config) {
	a.API.WithBaseURL(cfg.Backend.APIURL)
	a.API.WithMaxRetries(cfg.Backend.MaxRetries)

	a.mu.Lock()
	a.cfg = cfg
	hooks := append(([]func(*config.Config))(nil), a.hooks...)
	a.mu.Unlock()

	for _, fn := range hooks {
		fn(cfg)
	}
}

// Close releases the session store.
func (a *App) Close() error {
	if a.Sessions != nil {
		return a.Sessions.Close()
	}
	return nil
}
