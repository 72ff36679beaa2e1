package main

import (
	"bytes"
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/gate"
	"github.com/0xlemi/tunecoach/internal/phrase"
	"github.com/0xlemi/tunecoach/internal/session"
)

// endPlayer reports a transport already at the end of the phrase.
type endPlayer struct {
	mu      sync.Mutex
	at      float64
	running bool
}

func (p *endPlayer) Init() error         { return nil }
func (p *endPlayer) Load(*phrase.Phrase) {}
func (p *endPlayer) Play()               { p.mu.Lock(); p.running = true; p.mu.Unlock() }
func (p *endPlayer) Stop()               { p.mu.Lock(); p.running = false; p.mu.Unlock() }
func (p *endPlayer) Now() float64        { return p.at }
func (p *endPlayer) Running() bool       { p.mu.Lock(); defer p.mu.Unlock(); return p.running }
func (p *endPlayer) Close() error        { return nil }

// laterClock returns t0 on its first call and one second later afterwards,
// so the replay starts at t0 and every read lands mid-clip.
func laterClock() func() time.Time {
	t0 := time.Unix(0, 0)
	calls := 0
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return t0
		}
		return t0.Add(time.Second)
	}
}

func TestRunHeadless(t *testing.T) {
	const sr = 44100
	samples := make([]float32, 2*sr)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*261.63*float64(i)/sr))
	}
	mic := audio.NewClipCapturer(audio.Clip{Samples: samples, SampleRate: sr}, 2048, laterClock())

	p := phrase.Default()
	cfg := session.DefaultConfig()
	cfg.Calibration = gate.CalibrationOptions{Duration: 0, Interval: time.Millisecond}
	s := session.New(cfg, mic, &endPlayer{at: p.Length()}, p)
	defer s.Close()

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runHeadless(ctx, &out, s, 2*time.Millisecond); err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("expected runHeadless to stop at the end of the phrase")
	}

	got := out.String()
	for _, want := range []string{"target God", "you C4", "On pitch!"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestSnapshotLine(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want string
	}{
		{"idle", session.Snapshot{}, "target -    you -"},
		{"flat", session.Snapshot{
			HasTarget: true, Target: 67, TargetLabel: "I",
			HasUser: true, User: 66.7, Cents: -30, Hint: "On pitch!",
		}, "target I    you G4    -30  On pitch!"},
		{"unlabelled target", session.Snapshot{HasTarget: true, Target: 69}, "target A4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snapshotLine(tt.snap); !strings.HasPrefix(got, tt.want) {
				t.Errorf("snapshotLine() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}
