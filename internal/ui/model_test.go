package ui

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/gate"
	"github.com/0xlemi/tunecoach/internal/phrase"
	"github.com/0xlemi/tunecoach/internal/session"
)

type stubMic struct {
	err    error
	inited bool
}

func (m *stubMic) Initialize() error {
	if m.err != nil {
		return m.err
	}
	m.inited = true
	return nil
}

func (m *stubMic) Read() audio.Window {
	if !m.inited {
		return audio.Window{}
	}
	s := make([]float32, 2048)
	for i := range s {
		s[i] = float32(0.5 * math.Sin(2*math.Pi*392*float64(i)/44100))
	}
	return audio.Window{Samples: s, SampleRate: 44100}
}

func (m *stubMic) Close() error      { return nil }
func (m *stubMic) Initialized() bool { return m.inited }

type stubPlayer struct{ running bool }

func (p *stubPlayer) Init() error         { return nil }
func (p *stubPlayer) Load(*phrase.Phrase) {}
func (p *stubPlayer) Play()               { p.running = true }
func (p *stubPlayer) Stop()               { p.running = false }
func (p *stubPlayer) Now() float64        { return 0.2 }
func (p *stubPlayer) Running() bool       { return p.running }
func (p *stubPlayer) Close() error        { return nil }

func newTestModel(mic *stubMic) Model {
	cfg := session.DefaultConfig()
	cfg.Calibration = gate.CalibrationOptions{Duration: 0, Interval: time.Millisecond}
	s := session.New(cfg, mic, &stubPlayer{}, phrase.Default())
	return NewModel(context.Background(), s, 16*time.Millisecond, false)
}

func key(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestStartFlow(t *testing.T) {
	m := newTestModel(&stubMic{})
	if !strings.Contains(m.View(), "Press s to start") {
		t.Fatalf("expected start prompt")
	}

	next, cmd := m.Update(key("s"))
	m = next.(Model)
	if cmd == nil || !m.starting {
		t.Fatalf("expected start command")
	}

	// a second press while starting is ignored
	if _, again := m.Update(key("s")); again != nil {
		t.Fatalf("expected no second start command")
	}

	msg := cmd()
	started, ok := msg.(StartedMsg)
	if !ok || started.Err != nil {
		t.Fatalf("unexpected start result %#v", msg)
	}
	next, _ = m.Update(started)
	m = next.(Model)
	if !strings.Contains(m.View(), "Ready") {
		t.Fatalf("expected ready status, got:\n%s", m.View())
	}

	next, _ = m.Update(key("p"))
	m = next.(Model)
	next, cmd = m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("expected the next frame to be scheduled")
	}
	if !m.snap.HasUser || !m.snap.InTune {
		t.Fatalf("expected an in-tune G4 at 0.2s, got %+v", m.snap)
	}
	if !strings.Contains(m.View(), "On pitch!") {
		t.Fatalf("expected hint in view")
	}
}

func TestStartDenied(t *testing.T) {
	m := newTestModel(&stubMic{err: audio.ErrPermissionDenied})
	next, cmd := m.Update(key("s"))
	m = next.(Model)

	next, _ = m.Update(cmd())
	m = next.(Model)
	if !m.failed || m.starting {
		t.Fatalf("expected failed, idle model")
	}
	if !strings.Contains(m.View(), "denied") {
		t.Fatalf("expected permission message, got:\n%s", m.View())
	}

	// playing is refused until start succeeds
	next, _ = m.Update(key("p"))
	m = next.(Model)
	if m.snap.Running {
		t.Fatalf("expected transport idle")
	}
}

func TestThemeToggleAndQuit(t *testing.T) {
	m := newTestModel(&stubMic{})
	next, _ := m.Update(key("t"))
	if !next.(Model).dark {
		t.Fatalf("expected dark theme")
	}
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestPianoRollGrid(t *testing.T) {
	r := newPianoRoll(phrase.Default())
	if r.lo != 57 || r.hi != 72 {
		t.Fatalf("unexpected rows %d..%d", r.lo, r.hi)
	}

	snap := session.Snapshot{Time: 0, Target: 67, HasTarget: true, User: 67.2, HasUser: true, InTune: true}
	g := r.grid(snap, 40)
	if len(g) != r.rows() || len(g[0]) != 40 {
		t.Fatalf("unexpected grid size %dx%d", len(g), len(g[0]))
	}
	if g[r.row(67)][0] != cellInTune {
		t.Fatalf("expected user marker over the ball at the playhead")
	}
	if g[r.row(60)][39] != cellBlock {
		t.Fatalf("expected the last note block at the right edge")
	}

	out := r.render(snap, lightPalette, 40)
	if lines := strings.Count(out, "\n") + 1; lines != r.rows() {
		t.Fatalf("expected %d lines, got %d", r.rows(), lines)
	}
}

func TestMeterClamps(t *testing.T) {
	if !strings.Contains(meter(150), strings.Repeat("█", meterWidth)) {
		t.Fatalf("expected a full meter")
	}
	if strings.Contains(meter(-5), "█") {
		t.Fatalf("expected an empty meter")
	}
}

func TestQuitCancelsStart(t *testing.T) {
	m := newTestModel(&stubMic{})
	_, start := m.Update(key("s"))

	next, cmd := m.Update(key("q"))
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if m.ctx.Err() == nil {
		t.Fatalf("expected quit to cancel the model context")
	}

	started, ok := start().(StartedMsg)
	if !ok || !errors.Is(started.Err, context.Canceled) {
		t.Fatalf("expected cancelled start, got %#v", started)
	}
}
