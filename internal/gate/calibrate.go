package gate

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RMSSource yields the loudness of the current input.
type RMSSource interface {
	RMS() float64
}

// RMSFunc adapts a function to RMSSource.
type RMSFunc func() float64

// RMS calls f.
func (f RMSFunc) RMS() float64 { return f() }

// CalibrationOptions sets how long and how often the room is sampled.
type CalibrationOptions struct {
	Duration time.Duration
	Interval time.Duration
}

// DefaultCalibration samples for 800ms, once per 60Hz frame.
func DefaultCalibration() CalibrationOptions {
	return CalibrationOptions{
		Duration: 800 * time.Millisecond,
		Interval: 16 * time.Millisecond,
	}
}

// Calibrate averages src over opts.Duration and stores the mean in floor.
// It blocks for the whole duration. If ctx ends first the floor is left
// untouched and ctx.Err() is returned.
func Calibrate(ctx context.Context, src RMSSource, floor *NoiseFloor, opts CalibrationOptions) (float64, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultCalibration().Interval
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	start := time.Now()
	var sum float64
	n := 0
	for time.Since(start) < opts.Duration {
		sum += src.RMS()
		n++

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}

	mean := sum / float64(max(1, n))
	floor.Set(mean)

	log.WithFields(log.Fields{
		"noise_floor": mean,
		"samples":     n,
		"duration":    opts.Duration,
	}).Info("noise floor calibrated")
	return mean, nil
}
