// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_PassesValidation(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
	if cfg.Backend.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.Backend.MaxRetries)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("expected default theme dark, got %q", cfg.UI.Theme)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty api url", func(c *Config) { c.Backend.APIURL = "" }, true},
		{"url without scheme", func(c *Config) { c.Backend.APIURL = "127.0.0.1:8080" }, true},
		{"negative timeout", func(c *Config) { c.Backend.TimeoutSecs = -1 }, true},
		{"retries over budget", func(c *Config) { c.Backend.MaxRetries = 11 }, true},
		{"negative retries", func(c *Config) { c.Backend.MaxRetries = -1 }, true},
		{"negative idle timeout", func(c *Config) { c.Chat.StreamIdleTimeoutSecs = -1 }, true},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, true},
		{"theme case insensitive", func(c *Config) { c.UI.Theme = "Dark" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend.APIURL = ""
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs, ok := err.(ValidateErrors)
	if !ok {
		t.Fatalf("expected ValidateErrors, got %T", err)
	}
	if len(errs) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(errs), errs)
	}
}

func TestStreamIdleTimeout(t *testing.T) {
	cfg := Default()
	if got := cfg.StreamIdleTimeout(); got != 120*time.Second {
		t.Errorf("expected 120s default, got %v", got)
	}

	cfg.Chat.StreamIdleTimeoutSecs = 30
	if got := cfg.StreamIdleTimeout(); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}

	cfg.Chat.StreamIdleTimeoutSecs = 0
	if got := cfg.StreamIdleTimeout(); got != 120*time.Second {
		t.Errorf("expected fallback to 120s for zero, got %v", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("BOTDECK_API_URL", "https://bots.example.com")
	t.Setenv("BOTDECK_ADMIN_PASSWORD", "hunter2")
	t.Setenv("BOTDECK_STREAM_IDLE_TIMEOUT", "45")
	t.Setenv("BOTDECK_BOT", "support")
	t.Setenv("BOTDECK_THEME", "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Backend.APIURL != "https://bots.example.com" {
		t.Errorf("expected env api url, got %q", cfg.Backend.APIURL)
	}
	if cfg.Backend.AdminPassword != "hunter2" {
		t.Errorf("expected env admin password, got %q", cfg.Backend.AdminPassword)
	}
	if cfg.Chat.StreamIdleTimeoutSecs != 45 {
		t.Errorf("expected env idle timeout 45, got %d", cfg.Chat.StreamIdleTimeoutSecs)
	}
	if cfg.Chat.DefaultBot != "support" {
		t.Errorf("expected env default bot, got %q", cfg.Chat.DefaultBot)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("expected env theme, got %q", cfg.UI.Theme)
	}
}

func TestApplyEnvOverrides_BadIdleTimeoutIgnored(t *testing.T) {
	t.Setenv("BOTDECK_STREAM_IDLE_TIMEOUT", "not a number")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Chat.StreamIdleTimeoutSecs != 120 {
		t.Errorf("expected unparseable override ignored, got %d", cfg.Chat.StreamIdleTimeoutSecs)
	}
}

func TestSetDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Backend.APIURL == "" {
		t.Error("expected api url filled")
	}
	if cfg.Backend.MaxRetries != 3 {
		t.Errorf("expected max retries 3, got %d", cfg.Backend.MaxRetries)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("expected theme dark, got %q", cfg.UI.Theme)
	}
}

func TestTOMLRoundtrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")

	original := Default()
	original.Backend.APIURL = "https://bots.example.com"
	original.Chat.DefaultBot = "support"
	if err := SaveTOML(original, path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	// Saved with owner-only permissions.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if loaded.Backend.APIURL != original.Backend.APIURL {
		t.Errorf("expected api url %q, got %q", original.Backend.APIURL, loaded.Backend.APIURL)
	}
	if loaded.Chat.DefaultBot != "support" {
		t.Errorf("expected default bot roundtripped, got %q", loaded.Chat.DefaultBot)
	}
}

func TestJSONRoundtrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.json")

	original := Default()
	original.UI.Theme = "light"
	if err := SaveJSON(original, path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("expected theme roundtripped, got %q", loaded.UI.Theme)
	}
}

func TestLoadFromPath_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[ui]\ntheme = \"neon\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected validation failure for bad theme")
	}
}

func TestLoadTOML_FixesInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected permissions tightened to 0600, got %o", perm)
	}
}

func TestString_RedactsPassword(t *testing.T) {
	cfg := Default()
	cfg.Backend.AdminPassword = "hunter2"

	s := cfg.String()
	if strings.Contains(s, "hunter2") {
		t.Error("expected admin password redacted from String()")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("expected redaction marker in String()")
	}
	// Clone-based redaction must not touch the original.
	if cfg.Backend.AdminPassword != "hunter2" {
		t.Error("expected original config untouched")
	}
}

func TestGlobal_SetAndReset(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	defer ResetGlobalForTesting()

	// First access fires the lazy load; SetGlobal then replaces it.
	Global()

	custom := Default()
	custom.Chat.DefaultBot = "support"
	SetGlobal(custom)

	if Global().Chat.DefaultBot != "support" {
		t.Error("expected SetGlobal to install the custom config")
	}
}
