package pitch

import (
	"math"
)

// Reading is the result of analysing one window.
type Reading struct {
	Hz         float64 // 0 when no pitch was found
	Confidence float64 // 0..1, periodicity heuristic
	RMS        float64 // loudness of the raw window
}

// HasPitch reports whether a frequency was found.
func (r Reading) HasPitch() bool {
	return r.Hz > 0
}

// Detector defines the interface for pitch detection
type Detector interface {
	// Estimate analyses one window of mono samples
	Estimate(samples []float32, sampleRate float64) Reading
}

// Estimator finds the fundamental with a time-domain autocorrelation over
// the lags between MaxHz and MinHz.
//
// An Estimator keeps a scratch buffer between calls and must not be shared
// between goroutines.
type Estimator struct {
	MinHz           float64 // lowest detectable pitch (longest lag)
	MaxHz           float64 // highest detectable pitch (shortest lag)
	EnergyThreshold float64 // mean energy below which a window is silence
	PeakRatio       float64 // how close to the best lag an earlier peak must be

	centred []float64
	corr    []float64
}

const confidenceEpsilon = 1e-9

// NewEstimator returns an estimator covering 60Hz to 1000Hz.
func NewEstimator() *Estimator {
	return &Estimator{
		MinHz:           60,
		MaxHz:           1000,
		EnergyThreshold: 1e-4,
		PeakRatio:       0.9,
	}
}

// Estimate computes loudness, fundamental frequency and confidence.
// Degenerate input (no samples, bad sample rate, empty lag range) yields a
// reading without pitch.
func (e *Estimator) Estimate(samples []float32, sampleRate float64) Reading {
	n := len(samples)
	if n == 0 {
		return Reading{}
	}

	// RMS over the raw window, before DC removal
	reading := Reading{RMS: RMS(samples)}

	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return reading
	}

	// Remove DC offset and measure energy
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(n)
	x := e.scratch(n)
	energy := 0.0
	for i, s := range samples {
		x[i] = float64(s) - mean
		energy += x[i] * x[i]
	}
	energy /= float64(n)
	if !(energy >= e.EnergyThreshold) {
		return reading
	}

	minLag := int(math.Floor(sampleRate / e.MaxHz))
	maxLag := int(math.Floor(sampleRate / e.MinHz))
	if maxLag > n-1 {
		maxLag = n - 1
	}
	if minLag < 1 || maxLag < minLag {
		return reading
	}

	corr := e.correlations(maxLag - minLag + 1)
	bestLag := -1
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		c := 0.0
		for i := 0; i < n-lag; i++ {
			c += x[i] * x[i+lag]
		}
		c /= float64(n - lag)
		corr[lag-minLag] = c

		if c > bestCorr {
			bestCorr = c
			bestLag = lag
		}
	}

	if bestLag <= 0 {
		return reading
	}

	lag := e.shortestPeak(corr, minLag, bestLag, bestCorr)
	reading.Hz = sampleRate / float64(lag)
	reading.Confidence = math.Min(1, math.Max(0, bestCorr/(energy+confidenceEpsilon)))
	return reading
}

// RMS returns the root mean square of samples, 0 for an empty slice.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range samples {
		v := float64(s)
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}

// shortestPeak returns the first interior local maximum whose correlation is
// within PeakRatio of the best. On a finite window the unbiased correlation
// of a multiple of the period can edge out the period itself, which would
// report a subharmonic.
func (e *Estimator) shortestPeak(corr []float64, minLag, bestLag int, bestCorr float64) int {
	threshold := e.PeakRatio * bestCorr
	for lag := minLag + 1; lag < bestLag; lag++ {
		i := lag - minLag
		c := corr[i]
		if c < threshold {
			continue
		}
		if c >= corr[i-1] && c >= corr[i+1] {
			return lag
		}
	}
	return bestLag
}

func (e *Estimator) scratch(n int) []float64 {
	if cap(e.centred) < n {
		e.centred = make([]float64, n)
	}
	return e.centred[:n]
}

func (e *Estimator) correlations(n int) []float64 {
	if cap(e.corr) < n {
		e.corr = make([]float64, n)
	}
	return e.corr[:n]
}
