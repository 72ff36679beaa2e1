package gate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestCalibrateConstantStream(t *testing.T) {
	floor := NewNoiseFloor(0.01)
	calls := 0
	src := RMSFunc(func() float64 {
		calls++
		return 0.03
	})

	got, err := Calibrate(context.Background(), src, floor, DefaultCalibration())
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if math.Abs(got-0.03) > 1e-12 {
		t.Fatalf("expected 0.03, got %v", got)
	}
	if floor.Get() != got {
		t.Fatalf("floor not stored: %v", floor.Get())
	}
	// 800ms at 16ms is about 50 reads; timers only ever run late
	if calls < 2 || calls > 51 {
		t.Fatalf("unexpected number of reads: %d", calls)
	}
}

func TestCalibrateAverages(t *testing.T) {
	floor := NewNoiseFloor(0)
	i := 0
	src := RMSFunc(func() float64 {
		i++
		if i%2 == 0 {
			return 0.04
		}
		return 0.02
	})

	opts := CalibrationOptions{Duration: 100 * time.Millisecond, Interval: 5 * time.Millisecond}
	got, err := Calibrate(context.Background(), src, floor, opts)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if got < 0.02 || got > 0.04 {
		t.Fatalf("expected mean between 0.02 and 0.04, got %v", got)
	}
}

func TestCalibrateNoSamples(t *testing.T) {
	floor := NewNoiseFloor(0.5)
	got, err := Calibrate(context.Background(), RMSFunc(func() float64 { return 1 }), floor, CalibrationOptions{})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if got != 0 || floor.Get() != 0 {
		t.Fatalf("expected zero floor with no samples, got %v", got)
	}
}

func TestCalibrateCancelled(t *testing.T) {
	floor := NewNoiseFloor(0.01)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Calibrate(ctx, RMSFunc(func() float64 { return 0.5 }), floor, DefaultCalibration())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if floor.Get() != 0.01 {
		t.Fatalf("floor changed on cancel: %v", floor.Get())
	}
}
