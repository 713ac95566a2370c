// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"testing"
	"time"
)

func TestStreamingBuffer_BatchSizeFlush(t *testing.T) {
	// High FPS cap keeps the time threshold out of the way.
	sb := NewStreamingBufferWithConfig(3, 60)
	sb.Reset()

	sb.Write("a")
	sb.Write("b")
	if _, ok := sb.Flush(); ok {
		t.Error("expected no flush below batch size")
	}

	sb.Write("c")
	content, ok := sb.Flush()
	if !ok {
		t.Fatal("expected flush at batch size")
	}
	if content != "abc" {
		t.Errorf("expected %q, got %q", "abc", content)
	}
	if sb.Pending() != 0 {
		t.Errorf("expected buffer drained, %d deltas pending", sb.Pending())
	}
}

func TestStreamingBuffer_TimeBasedFlush(t *testing.T) {
	// Large batch size so only the time threshold can trigger.
	sb := NewStreamingBufferWithConfig(1000, 60)
	sb.Reset()

	sb.Write("slow stream")
	time.Sleep(25 * time.Millisecond) // over the ~16ms 60fps interval

	content, ok := sb.Flush()
	if !ok {
		t.Fatal("expected time-based flush")
	}
	if content != "slow stream" {
		t.Errorf("expected %q, got %q", "slow stream", content)
	}
}

func TestStreamingBuffer_EmptyNeverFlushes(t *testing.T) {
	sb := NewStreamingBuffer()
	time.Sleep(40 * time.Millisecond)

	if _, ok := sb.Flush(); ok {
		t.Error("expected no flush from an empty buffer")
	}
	if _, ok := sb.ForceFlush(); ok {
		t.Error("expected no force flush from an empty buffer")
	}
}

func TestStreamingBuffer_ForceFlush(t *testing.T) {
	sb := NewStreamingBufferWithConfig(1000, 60)
	sb.Reset()

	sb.Write("final")
	sb.Write(" deltas")

	content, ok := sb.ForceFlush()
	if !ok {
		t.Fatal("expected force flush to ignore thresholds")
	}
	if content != "final deltas" {
		t.Errorf("expected %q, got %q", "final deltas", content)
	}
}

func TestStreamingBuffer_Reset(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("doomed")
	sb.Reset()

	if sb.Pending() != 0 {
		t.Errorf("expected no pending deltas after reset, got %d", sb.Pending())
	}
	if _, ok := sb.ForceFlush(); ok {
		t.Error("expected no content after reset")
	}
}

func TestStreamingBuffer_DefaultsForBadConfig(t *testing.T) {
	sb := NewStreamingBufferWithConfig(-1, 500)
	if sb.batchSize != defaultBatchSize {
		t.Errorf("expected default batch size, got %d", sb.batchSize)
	}
	expected := time.Duration(1000/defaultMaxFPS) * time.Millisecond
	if sb.minFlushMs != expected {
		t.Errorf("expected default flush interval %v, got %v", expected, sb.minFlushMs)
	}
}

func TestStreamingBuffer_OrderPreserved(t *testing.T) {
	sb := NewStreamingBufferWithConfig(100, 60)
	sb.Reset()

	var expected string
	for i := 0; i < 50; i++ {
		delta := fmt.Sprintf("%d,", i)
		sb.Write(delta)
		expected += delta
	}

	content, ok := sb.ForceFlush()
	if !ok {
		t.Fatal("expected content")
	}
	if content != expected {
		t.Errorf("expected deltas in write order, got %q", content)
	}
}
