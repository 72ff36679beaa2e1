package audio

import "testing"

func TestRingSnapshotOrder(t *testing.T) {
	r := newRing(4)

	r.write([]float32{1, 2}, 1)
	got := r.snapshot()
	want := []float32{0, 0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("partial fill: got %v, want %v", got, want)
		}
	}

	r.write([]float32{3, 4, 5}, 1)
	got = r.snapshot()
	want = []float32{2, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("wrapped: got %v, want %v", got, want)
		}
	}
}

func TestRingGainAndReset(t *testing.T) {
	r := newRing(3)
	r.write([]float32{0.1, 0.2, 0.3}, 2)

	got := r.snapshot()
	if got[2] != float32(0.3)*2 {
		t.Fatalf("expected gain applied, got %v", got)
	}

	r.reset()
	for _, v := range r.snapshot() {
		if v != 0 {
			t.Fatalf("expected zeros after reset, got %v", r.snapshot())
		}
	}
}

func TestRingSnapshotIsCopy(t *testing.T) {
	r := newRing(2)
	r.write([]float32{1, 2}, 1)
	a := r.snapshot()
	a[0] = 99
	if b := r.snapshot(); b[0] != 1 {
		t.Fatalf("snapshot aliases ring storage: %v", b)
	}
}

func TestPortAudioCapturerReadBeforeInitialize(t *testing.T) {
	c := NewPortAudioCapturer(DefaultCaptureConfig())
	w := c.Read()
	if !w.Empty() {
		t.Fatalf("expected empty window before Initialize, got %d samples", len(w.Samples))
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close before Initialize: %v", err)
	}
}
