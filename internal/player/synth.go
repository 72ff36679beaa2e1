package player

import (
	"math"

	"github.com/0xlemi/tunecoach/internal/phrase"
	"github.com/0xlemi/tunecoach/internal/pitch"
)

// Envelope is a linear attack/decay/sustain/release shape. Times are
// seconds, Sustain is a level in 0..1.
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DefaultEnvelope is a short plucked sine.
func DefaultEnvelope() Envelope {
	return Envelope{Attack: 0.005, Decay: 0.1, Sustain: 0.3, Release: 0.2}
}

// held returns the level at local time t while the note is held.
func (e Envelope) held(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t < e.Attack:
		return t / e.Attack
	case t < e.Attack+e.Decay:
		return 1 - (1-e.Sustain)*(t-e.Attack)/e.Decay
	default:
		return e.Sustain
	}
}

// Level returns the envelope at local time t for a note held for dur.
func (e Envelope) Level(t, dur float64) float64 {
	if t < dur {
		return e.held(t)
	}
	if e.Release <= 0 {
		return 0
	}
	rel := (t - dur) / e.Release
	if rel >= 1 {
		return 0
	}
	return e.held(dur) * (1 - rel)
}

const minNoteDuration = 0.05

type voice struct {
	start, dur, hz float64
}

// Synth renders a phrase as enveloped sine tones.
type Synth struct {
	Envelope Envelope
	Velocity float64

	voices []voice
	length float64
}

// NewSynth prepares a synth for p.
func NewSynth(p *phrase.Phrase) *Synth {
	s := &Synth{Envelope: DefaultEnvelope(), Velocity: 0.8}
	for _, e := range p.Events() {
		v := voice{
			start: e.Start,
			dur:   math.Max(minNoteDuration, e.Duration()),
			hz:    pitch.MidiToHz(e.Pitch),
		}
		s.voices = append(s.voices, v)
		s.length = math.Max(s.length, v.start+v.dur)
	}
	return s
}

// Length returns the time the last note is released, tail excluded.
func (s *Synth) Length() float64 {
	return s.length
}

// Sample returns the output at transport time t, clipped to [-1, 1].
func (s *Synth) Sample(t float64) float32 {
	var out float64
	for _, v := range s.voices {
		local := t - v.start
		if local < 0 || local >= v.dur+s.Envelope.Release {
			continue
		}
		out += s.Velocity * s.Envelope.Level(local, v.dur) * math.Sin(2*math.Pi*v.hz*local)
	}
	return float32(math.Max(-1, math.Min(1, out)))
}

// Render returns the whole phrase, release tail included, at sampleRate.
func (s *Synth) Render(sampleRate int) []float32 {
	n := int(math.Ceil((s.length + s.Envelope.Release) * float64(sampleRate)))
	out := make([]float32, n)
	for i := range out {
		out[i] = s.Sample(float64(i) / float64(sampleRate))
	}
	return out
}
