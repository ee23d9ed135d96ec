package run

import (
	"context"
	"sync"
)

// MaxBufferedBytes caps how much of a run's output a LogBuffer retains.
// Output past the cap is dropped; the run itself is unaffected.
const MaxBufferedBytes = 8 << 20 // 8 MiB

// LogBuffer accumulates a run's combined container output and lets readers
// replay it and follow appends live. It is the default sink the service
// wires into each run. Retention is bounded by MaxBufferedBytes; the
// earliest output wins and the rest is discarded.
type LogBuffer struct {
	mu        sync.Mutex
	buf       []byte
	truncated bool
	closed    bool
	wake      chan struct{} // closed and replaced on every append
}

// NewLogBuffer creates an empty, open log buffer.
func NewLogBuffer() *LogBuffer {
	return &LogBuffer{wake: make(chan struct{})}
}

// Write appends p and wakes any followers. Bytes past MaxBufferedBytes are
// dropped. Implements io.Writer; never returns an error so the engine's log
// copy is not interrupted by a full buffer.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	room := MaxBufferedBytes - len(b.buf)
	if room <= 0 {
		b.truncated = true
		return n, nil
	}
	if len(p) > room {
		p = p[:room]
		b.truncated = true
	}

	b.buf = append(b.buf, p...)
	close(b.wake)
	b.wake = make(chan struct{})
	return n, nil
}

// Truncated reports whether output was dropped at the retention cap.
func (b *LogBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}

// Close marks the buffer complete. Followers observe the close after
// draining; further writes are still accepted but completion is final.
func (b *LogBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.wake)
	b.wake = make(chan struct{})
}

// Snapshot returns a copy of the content starting at offset from, and
// whether the buffer has been closed.
func (b *LogBuffer) Snapshot(from int) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if from >= len(b.buf) {
		return nil, b.closed
	}
	out := make([]byte, len(b.buf)-from)
	copy(out, b.buf[from:])
	return out, b.closed
}

// Len returns the current content length.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Wait blocks until content beyond offset from is available, the buffer is
// closed, or ctx is done.
func (b *LogBuffer) Wait(ctx context.Context, from int) {
	b.mu.Lock()
	if len(b.buf) > from || b.closed {
		b.mu.Unlock()
		return
	}
	wake := b.wake
	b.mu.Unlock()

	select {
	case <-wake:
	case <-ctx.Done():
	}
}
