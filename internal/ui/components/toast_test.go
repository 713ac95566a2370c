// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"testing"
	"time"
)

func TestToastManager_AddAndRemove(t *testing.T) {
	m := NewToastManager()

	id := m.AddError("something broke")
	if !m.HasToasts() {
		t.Fatal("expected a toast after AddError")
	}

	toasts := m.GetToasts()
	if len(toasts) != 1 {
		t.Fatalf("expected 1 toast, got %d", len(toasts))
	}
	if toasts[0].Kind != ToastKindError {
		t.Errorf("expected error kind, got %v", toasts[0].Kind)
	}
	if toasts[0].Message != "something broke" {
		t.Errorf("unexpected message: %q", toasts[0].Message)
	}

	m.RemoveToast(id)
	if m.HasToasts() {
		t.Error("expected no toasts after remove")
	}

	// Removing an unknown id is harmless.
	m.RemoveToast(999)
}

func TestToastManager_NewestFirst(t *testing.T) {
	m := NewToastManager()
	m.AddStatus("first")
	m.AddStatus("second")

	toasts := m.GetToasts()
	if toasts[0].Message != "second" {
		t.Errorf("expected newest toast first, got %q", toasts[0].Message)
	}
}

func TestToastManager_CapsVisibleToasts(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 8; i++ {
		m.AddStatus(fmt.Sprintf("toast %d", i))
	}

	toasts := m.GetToasts()
	if len(toasts) != 5 {
		t.Errorf("expected cap of 5 toasts, got %d", len(toasts))
	}
	// Oldest toasts fall off the end.
	if toasts[0].Message != "toast 7" {
		t.Errorf("expected newest kept, got %q", toasts[0].Message)
	}
}

func TestToastManager_TickRemovesExpired(t *testing.T) {
	m := NewToastManager()

	expired := NewStatusToast("old news")
	expired.CreatedAt = time.Now().Add(-10 * time.Second)
	m.AddToast(expired)
	m.AddStatus("still fresh")

	remaining := m.TickToasts()
	if len(remaining) != 1 {
		t.Fatalf("expected 1 toast after tick, got %d", len(remaining))
	}
	if remaining[0].Message != "still fresh" {
		t.Errorf("expected fresh toast kept, got %q", remaining[0].Message)
	}
}

func TestToastManager_Clear(t *testing.T) {
	m := NewToastManager()
	m.AddError("one")
	m.AddSuccess("two")

	m.Clear()
	if m.HasToasts() {
		t.Error("expected no toasts after clear")
	}
}

func TestToast_Durations(t *testing.T) {
	if d := NewErrorToast("e").Duration; d != ErrorToastDuration {
		t.Errorf("expected error duration %v, got %v", ErrorToastDuration, d)
	}
	if d := NewStatusToast("s").Duration; d != DefaultToastDuration {
		t.Errorf("expected status duration %v, got %v", DefaultToastDuration, d)
	}
	if d := NewSuccessToast("s").Duration; d != DefaultToastDuration {
		t.Errorf("expected success duration %v, got %v", DefaultToastDuration, d)
	}
}

func TestToast_IsExpired(t *testing.T) {
	toast := NewStatusToast("short lived")
	if toast.IsExpired() {
		t.Error("expected fresh toast not expired")
	}

	toast.CreatedAt = time.Now().Add(-DefaultToastDuration - time.Second)
	if !toast.IsExpired() {
		t.Error("expected old toast expired")
	}
}

func TestWrapToastText(t *testing.T) {
	got := wrapToastText("one two three four", 9)
	expected := "one two\nthree\nfour"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	if got := wrapToastText("untouched", 0); got != "untouched" {
		t.Errorf("expected zero width to pass through, got %q", got)
	}
}
