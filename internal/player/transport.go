package player

import (
	"sync"
	"time"
)

// Transport is the playback clock. It reads 0 while stopped and counts
// seconds from 0 after every Start.
type Transport struct {
	now func() time.Time

	mu        sync.Mutex
	startedAt time.Time
	running   bool
}

// NewTransport returns a stopped transport. A nil clock means time.Now.
func NewTransport(clock func() time.Time) *Transport {
	if clock == nil {
		clock = time.Now
	}
	return &Transport{now: clock}
}

// Start runs the clock from zero. Starting a running transport does nothing.
func (t *Transport) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.startedAt = t.now()
	t.running = true
}

// Stop halts the clock and rewinds it to zero.
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Seconds returns the transport position.
func (t *Transport) Seconds() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return 0
	}
	return t.now().Sub(t.startedAt).Seconds()
}

// Running reports whether the clock is advancing.
func (t *Transport) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
