// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jeranaias/botdeck/internal/api"
	"github.com/jeranaias/botdeck/internal/config"
	"github.com/jeranaias/botdeck/internal/session"
)

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()

	store, err := session.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("failed to open session store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	client := api.NewClient(cfg.Backend.APIURL).WithMaxRetries(cfg.Backend.MaxRetries)
	return NewWithStore(cfg, client, store)
}

func TestReconfigure_RepointsClient(t *testing.T) {
	old := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"old","headline":"Old","logo":null,"created_at":"2024-01-01T00:00:00Z"}]`))
	}))
	defer old.Close()
	updated := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"new","headline":"New","logo":null,"created_at":"2024-01-01T00:00:00Z"}]`))
	}))
	defer updated.Close()

	cfg := config.Default()
	cfg.Backend.APIURL = old.URL
	a := newTestApp(t, cfg)

	next := config.Default()
	next.Backend.APIURL = updated.URL
	a.Reconfigure(next)

	bots, err := a.API.ListBots(context.Background())
	if err != nil {
		t.Fatalf("unexpected error after reconfigure: %v", err)
	}
	if len(bots) != 1 || bots[0].ID != "new" {
		t.Errorf("expected requests to hit the reloaded backend, got %+v", bots)
	}
	if a.Config() != next {
		t.Error("expected Config() to return the reloaded config")
	}
}

func TestReconfigure_RunsHooks(t *testing.T) {
	cfg := config.Default()
	a := newTestApp(t, cfg)

	var gotTimeout int
	a.OnReconfigure(func(c *config.Config) {
		gotTimeout = c.Chat.StreamIdleTimeoutSecs
	})

	next := config.Default()
	next.Chat.StreamIdleTimeoutSecs = 7
	a.Reconfigure(next)

	if gotTimeout != 7 {
		t.Errorf("expected hook to see the new config, got %d", gotTimeout)
	}
}
