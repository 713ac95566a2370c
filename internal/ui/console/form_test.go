// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"strings"
	"testing"

	"github.com/jeranaias/botdeck/internal/model"
	"github.com/jeranaias/botdeck/internal/ui/styles"
)

func TestBotForm_DraftRoundtrip(t *testing.T) {
	original := model.Draft{
		Headline:             "Hi",
		StarterMessage:       "Welcome!",
		ActionItems:          []string{"Pricing", "Security"},
		SecondaryDescription: "we also do X",
		Logo:                 "logo.png",
	}

	form := NewBotForm(original, false)
	got := form.Draft()

	if got.Headline != original.Headline || got.StarterMessage != original.StarterMessage {
		t.Errorf("expected fields roundtripped, got %+v", got)
	}
	if got.SecondaryDescription != original.SecondaryDescription || got.Logo != original.Logo {
		t.Errorf("expected optional fields roundtripped, got %+v", got)
	}
	if len(got.ActionItems) != 2 {
		t.Fatalf("expected 2 action items, got %d", len(got.ActionItems))
	}
	if got.ActionItems[0] != "Pricing" || got.ActionItems[1] != "Security" {
		t.Errorf("expected action items split on separator, got %v", got.ActionItems)
	}
}

func TestBotForm_DraftSkipsEmptyActions(t *testing.T) {
	form := NewBotForm(model.Draft{Headline: "B", StarterMessage: "Hi"}, false)
	form.inputs[fieldActions].SetValue("one; ;two;;")

	got := form.Draft()
	if len(got.ActionItems) != 2 {
		t.Fatalf("expected empty items dropped, got %v", got.ActionItems)
	}
	if got.ActionItems[0] != "one" || got.ActionItems[1] != "two" {
		t.Errorf("expected trimmed items, got %v", got.ActionItems)
	}
}

func TestBotForm_DraftTrimsFields(t *testing.T) {
	form := NewBotForm(model.Draft{}, false)
	form.inputs[fieldHeadline].SetValue("  Support  ")
	form.inputs[fieldStarter].SetValue(" Welcome! ")

	got := form.Draft()
	if got.Headline != "Support" || got.StarterMessage != "Welcome!" {
		t.Errorf("expected trimmed fields, got %q / %q", got.Headline, got.StarterMessage)
	}
}

func TestBotForm_KeepsBotIDWhileEditing(t *testing.T) {
	form := NewBotForm(model.Draft{ID: "support", Headline: "Hi"}, true)

	// The id never becomes an input; it rides along into the draft so
	// the update hits the right bot.
	if got := form.Draft().ID; got != "support" {
		t.Errorf("expected draft to carry the bot id, got %q", got)
	}
	if !strings.Contains(form.View(styles.NewTheme()), "support") {
		t.Error("expected edit form title to show the bot id")
	}

	create := NewBotForm(model.NewDraft(), false)
	if got := create.Draft().ID; got != "" {
		t.Errorf("expected create draft without an id, got %q", got)
	}
}
