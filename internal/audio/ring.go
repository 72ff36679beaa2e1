package audio

import "sync"

// ring keeps the last len(buf) samples written to it.
type ring struct {
	mu  sync.Mutex
	buf []float32
	pos int // next write index
}

func newRing(size int) *ring {
	return &ring{buf: make([]float32, size)}
}

// write appends samples, each multiplied by gain, overwriting the oldest.
func (r *ring) write(samples []float32, gain float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		r.buf[r.pos] = s * gain
		r.pos++
		if r.pos == len(r.buf) {
			r.pos = 0
		}
	}
}

// snapshot copies the ring out oldest-first. Slots not yet written are zero
// and come first, so a partially filled ring reads as leading silence.
func (r *ring) snapshot() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float32, len(r.buf))
	n := copy(out, r.buf[r.pos:])
	copy(out[n:], r.buf[:r.pos])
	return out
}

func (r *ring) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.buf {
		r.buf[i] = 0
	}
	r.pos = 0
}
