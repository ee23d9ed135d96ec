package run

import (
	"context"
	"testing"
	"time"
)

func TestLogBuffer_WriteAndSnapshot(t *testing.T) {
	t.Parallel()
	b := NewLogBuffer()

	b.Write([]byte("hello "))
	b.Write([]byte("world\n"))

	data, closed := b.Snapshot(0)
	if string(data) != "hello world\n" {
		t.Errorf("Expected full content, got %q", string(data))
	}
	if closed {
		t.Error("Expected buffer to be open")
	}

	data, _ = b.Snapshot(6)
	if string(data) != "world\n" {
		t.Errorf("Expected offset snapshot, got %q", string(data))
	}
}

func TestLogBuffer_SnapshotPastEnd(t *testing.T) {
	t.Parallel()
	b := NewLogBuffer()
	b.Write([]byte("abc"))

	data, closed := b.Snapshot(3)
	if data != nil || closed {
		t.Errorf("Expected nil data and open buffer, got %q closed=%v", data, closed)
	}
}

func TestLogBuffer_Close(t *testing.T) {
	t.Parallel()
	b := NewLogBuffer()
	b.Write([]byte("done"))
	b.Close()
	b.Close() // idempotent

	data, closed := b.Snapshot(0)
	if string(data) != "done" {
		t.Errorf("Expected content after close, got %q", string(data))
	}
	if !closed {
		t.Error("Expected buffer to report closed")
	}
}

func TestLogBuffer_RetentionCap(t *testing.T) {
	t.Parallel()
	b := NewLogBuffer()

	// One write past the cap: retained content stops at the cap, the write
	// itself still reports full success.
	big := make([]byte, MaxBufferedBytes+10)
	n, err := b.Write(big)
	if err != nil || n != len(big) {
		t.Fatalf("Write returned (%d, %v), want (%d, nil)", n, err, len(big))
	}
	if b.Len() != MaxBufferedBytes {
		t.Errorf("Expected retained length %d, got %d", MaxBufferedBytes, b.Len())
	}
	if !b.Truncated() {
		t.Error("Expected buffer to report truncation")
	}

	// Writes at the cap are dropped entirely.
	n, err = b.Write([]byte("overflow"))
	if err != nil || n != len("overflow") {
		t.Fatalf("Write at cap returned (%d, %v), want (%d, nil)", n, err, len("overflow"))
	}
	if b.Len() != MaxBufferedBytes {
		t.Errorf("Expected length to stay at %d, got %d", MaxBufferedBytes, b.Len())
	}
}

func TestLogBuffer_NotTruncatedUnderCap(t *testing.T) {
	t.Parallel()
	b := NewLogBuffer()
	b.Write([]byte("small"))

	if b.Truncated() {
		t.Error("Expected no truncation under the cap")
	}
}

func TestLogBuffer_WaitWakesOnWrite(t *testing.T) {
	t.Parallel()
	b := NewLogBuffer()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Wait(context.Background(), 0)
	}()

	time.Sleep(10 * time.Millisecond)
	b.Write([]byte("x"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after write")
	}
}

func TestLogBuffer_WaitWakesOnClose(t *testing.T) {
	t.Parallel()
	b := NewLogBuffer()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Wait(context.Background(), 0)
	}()

	time.Sleep(10 * time.Millisecond)
	b.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after close")
	}
}

func TestLogBuffer_WaitReturnsImmediatelyWithData(t *testing.T) {
	t.Parallel()
	b := NewLogBuffer()
	b.Write([]byte("ready"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b.Wait(ctx, 0)
	if ctx.Err() != nil {
		t.Fatal("Wait should have returned before the deadline")
	}
}

func TestLogBuffer_WaitHonorsContext(t *testing.T) {
	t.Parallel()
	b := NewLogBuffer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Cancelled context: must not block.
	b.Wait(ctx, 0)
}
