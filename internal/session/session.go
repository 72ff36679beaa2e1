// Package session ties the microphone, the estimator, the voicing gate and
// the phrase player into the per-frame scoring loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/gate"
	"github.com/0xlemi/tunecoach/internal/phrase"
	"github.com/0xlemi/tunecoach/internal/pitch"
)

// Scheduler plays the target phrase and owns the transport clock.
type Scheduler interface {
	Init() error
	Load(p *phrase.Phrase)
	Play()
	Stop()
	Now() float64
	Running() bool
	Close() error
}

// Config holds the scoring thresholds.
type Config struct {
	Gate              gate.Gate
	InTuneCents       float64
	Calibration       gate.CalibrationOptions
	InitialNoiseFloor float64
}

// DefaultConfig returns the trainer defaults.
func DefaultConfig() Config {
	return Config{
		Gate:              gate.Default(),
		InTuneCents:       50,
		Calibration:       gate.DefaultCalibration(),
		InitialNoiseFloor: 0.01,
	}
}

// Snapshot is everything a renderer needs for one frame.
type Snapshot struct {
	Time    float64 // transport seconds, 0 while stopped
	Running bool

	Target      float64 // MIDI, valid when HasTarget
	HasTarget   bool
	TargetLabel string

	User    float64 // MIDI, valid when HasUser
	HasUser bool

	Cents  float64 // user minus target, valid when both are present
	InTune bool

	Voiced     bool
	Hz         float64
	Confidence float64
	RMS        float64
	NoiseFloor float64
	Meter      float64 // 0..100

	Hint string
}

// Session is one training session over a single phrase.
type Session struct {
	cfg    Config
	mic    audio.Capturer
	player Scheduler
	phrase *phrase.Phrase
	est    *pitch.Estimator
	floor  *gate.NoiseFloor

	// lifecycle serialises Start and Close so devices are never reopened
	// after they were released.
	lifecycle sync.Mutex
	ready     atomic.Bool
	running   atomic.Bool
}

// New builds a session. Nothing is opened until Start.
func New(cfg Config, mic audio.Capturer, player Scheduler, p *phrase.Phrase) *Session {
	return &Session{
		cfg:    cfg,
		mic:    mic,
		player: player,
		phrase: p,
		est:    pitch.NewEstimator(),
		floor:  gate.NewNoiseFloor(cfg.InitialNoiseFloor),
	}
}

// NoiseFloor returns the calibrated room level.
func (s *Session) NoiseFloor() *gate.NoiseFloor {
	return s.floor
}

// Phrase returns the target phrase.
func (s *Session) Phrase() *phrase.Phrase {
	return s.phrase
}

// Ready reports whether Start has completed.
func (s *Session) Ready() bool {
	return s.ready.Load()
}

// Start opens the output and the microphone, measures the room and loads
// the phrase. It must run in response to a user action and blocks for the
// calibration period; cancelling ctx abandons it. Close waits for a Start in
// progress to return.
func (s *Session) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.player.Init(); err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.mic.Initialize(); err != nil {
		return fmt.Errorf("microphone: %w", err)
	}

	src := gate.RMSFunc(func() float64 {
		return pitch.RMS(s.mic.Read().Samples)
	})
	if _, err := gate.Calibrate(ctx, src, s.floor, s.cfg.Calibration); err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}

	s.player.Load(s.phrase)
	s.ready.Store(true)
	log.WithFields(log.Fields{
		"phrase":      s.phrase.Name,
		"noise_floor": s.floor.Get(),
	}).Info("session ready")
	return nil
}

// Play restarts the phrase from the beginning.
func (s *Session) Play() {
	s.player.Stop()
	s.player.Load(s.phrase)
	s.player.Play()
	s.running.Store(true)
}

// Stop halts the phrase.
func (s *Session) Stop() {
	s.player.Stop()
	s.running.Store(false)
}

// Close releases the microphone and the output device.
func (s *Session) Close() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.running.Store(false)
	s.ready.Store(false)
	return errors.Join(s.mic.Close(), s.player.Close())
}

// Tick runs one analysis frame. It never blocks, so it is safe to call from
// a render loop; skipped frames lose nothing.
func (s *Session) Tick() Snapshot {
	t := s.player.Now()
	snap := Snapshot{Running: s.running.Load()}
	if snap.Running {
		snap.Time = t
	}

	if e, ok := s.phrase.TargetAt(t); ok {
		snap.Target = e.Pitch
		snap.HasTarget = true
		snap.TargetLabel = e.Label
	}

	w := s.mic.Read()
	r := s.est.Estimate(w.Samples, float64(w.SampleRate))
	floor := s.floor.Get()

	snap.Hz = r.Hz
	snap.Confidence = r.Confidence
	snap.RMS = r.RMS
	snap.NoiseFloor = floor
	snap.Meter = gate.MeterPercent(r.RMS, floor)
	snap.Voiced = s.cfg.Gate.Voiced(r.RMS, floor)

	if s.cfg.Gate.Accept(r, floor) {
		if m, err := pitch.HzToMidi(r.Hz); err == nil {
			snap.User = m
			snap.HasUser = true
		}
	}

	if snap.HasUser && snap.HasTarget {
		snap.Cents = pitch.CentsError(snap.User, snap.Target)
		snap.InTune = math.Abs(snap.Cents) <= s.cfg.InTuneCents
	}

	if s.ready.Load() {
		snap.Hint = hint(snap)
	}
	return snap
}

func hint(s Snapshot) string {
	switch {
	case !s.Voiced:
		return "Sing a little louder than the room..."
	case !s.HasUser:
		return `Pitch not stable yet, try a steady vowel like "ahhh".`
	case !s.HasTarget:
		return "Wait for the next note."
	case s.InTune:
		return "On pitch!"
	case s.Cents > 0:
		return "Too high, go lower"
	default:
		return "Too low, go higher"
	}
}

// Run calls Tick every interval and hands each snapshot to emit until ctx
// ends. Late ticks are dropped by the ticker rather than queued.
func (s *Session) Run(ctx context.Context, interval time.Duration, emit func(Snapshot)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			emit(s.Tick())
		}
	}
}
