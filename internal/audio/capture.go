package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Errors
var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrNotInitialized    = errors.New("audio device not initialized")
)

// Window is a fixed-length run of mono samples in [-1, 1].
// A new Window is returned on every read; callers may keep it.
type Window struct {
	Samples    []float32
	SampleRate int
}

// Empty reports whether the window carries no samples.
func (w Window) Empty() bool {
	return len(w.Samples) == 0
}

// Conditioning lists the input processing a capturer should ask the host for.
// These are requests: a backend that can't honour them logs and carries on.
type Conditioning struct {
	EchoCancellation bool
	NoiseSuppression bool
	AutoGain         bool
}

// DefaultConditioning requests everything.
func DefaultConditioning() Conditioning {
	return Conditioning{EchoCancellation: true, NoiseSuppression: true, AutoGain: true}
}

// Capturer defines the interface for audio capture
type Capturer interface {
	// Initialize opens the input. Calling it again after success is a no-op.
	Initialize() error

	// Read returns the most recent window. It returns an empty window
	// before Initialize has succeeded.
	Read() Window

	// Close releases the input device.
	Close() error

	// Initialized returns true once Initialize has succeeded
	Initialized() bool
}

// classify maps a portaudio failure onto the capture error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	// CoreAudio and WASAPI report a refused microphone as a host error.
	var hostErr portaudio.UnanticipatedHostError
	if errors.As(err, &hostErr) {
		return fmt.Errorf("%s: %w: %v", op, ErrPermissionDenied, err)
	}
	return DeviceError(op, err)
}

// DeviceError reports a failed device operation as ErrDeviceUnavailable.
func DeviceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrDeviceUnavailable, err)
}
