// Package gate decides whether a frame carries a sung pitch, and measures
// the room noise that decision is relative to.
package gate

import (
	"math"
	"sync/atomic"

	"github.com/0xlemi/tunecoach/internal/pitch"
)

// Gate is a two-stage voicing decision: loudness first, then confidence.
type Gate struct {
	Margin        float64 // RMS above the noise floor needed to count as voiced
	MinConfidence float64 // estimator confidence needed to trust the pitch
}

// Default returns the gate used by the trainer.
func Default() Gate {
	return Gate{Margin: 0.01, MinConfidence: 0.45}
}

// Voiced reports whether rms is strictly louder than floor plus the margin.
func (g Gate) Voiced(rms, floor float64) bool {
	return rms > floor+g.Margin
}

// Accept reports whether r is a usable user pitch.
func (g Gate) Accept(r pitch.Reading, floor float64) bool {
	return g.Voiced(r.RMS, floor) && r.HasPitch() && r.Confidence >= g.MinConfidence
}

// MeterPercent maps rms onto a 0..100 loudness meter scaled to the room.
func MeterPercent(rms, floor float64) float64 {
	pct := rms / math.Max(0.02, floor*4) * 100
	return math.Min(100, math.Max(0, pct))
}

// NoiseFloor holds the calibrated room RMS. Calibration is the only writer;
// the gate and meter read it, possibly from another goroutine.
type NoiseFloor struct {
	bits atomic.Uint64
}

// NewNoiseFloor returns a floor preset to v.
func NewNoiseFloor(v float64) *NoiseFloor {
	f := &NoiseFloor{}
	f.Set(v)
	return f
}

// Get returns the current floor.
func (f *NoiseFloor) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Set replaces the floor.
func (f *NoiseFloor) Set(v float64) {
	f.bits.Store(math.Float64bits(v))
}
