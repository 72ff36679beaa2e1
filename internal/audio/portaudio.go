package audio

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	log "github.com/sirupsen/logrus"
)

// CaptureConfig describes the input stream to open.
type CaptureConfig struct {
	WindowSize      int // samples returned by Read
	SampleRate      int
	Channels        int
	FramesPerBuffer int // callback size; keep well under WindowSize for fresh reads
	Conditioning    Conditioning
}

// DefaultCaptureConfig returns a 2048-sample mono window at 44.1kHz.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		WindowSize:      2048,
		SampleRate:      44100,
		Channels:        1,
		FramesPerBuffer: 512,
		Conditioning:    DefaultConditioning(),
	}
}

// PortAudioCapturer implements audio capture using PortAudio
type PortAudioCapturer struct {
	cfg CaptureConfig

	mu          sync.Mutex // guards stream and initialized
	stream      *portaudio.Stream
	initialized bool

	// amplification is read from the audio thread, so it is stored as
	// float32 bits rather than behind mu (Close holds mu while the
	// stream drains).
	amplification atomic.Uint32
	mono          []float32 // callback scratch

	ring *ring
}

// NewPortAudioCapturer creates a capturer. No device is touched until
// Initialize.
func NewPortAudioCapturer(cfg CaptureConfig) *PortAudioCapturer {
	if cfg.Channels < 1 {
		cfg.Channels = 1
	}
	if cfg.FramesPerBuffer <= 0 || cfg.FramesPerBuffer > cfg.WindowSize {
		cfg.FramesPerBuffer = cfg.WindowSize
	}
	c := &PortAudioCapturer{
		cfg:  cfg,
		mono: make([]float32, cfg.FramesPerBuffer),
		ring: newRing(cfg.WindowSize),
	}
	c.SetAmplification(1.0)
	return c
}

// Initialize opens and starts the default input stream.
func (c *PortAudioCapturer) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return classify("initialize portaudio", err)
	}

	// The PortAudio host APIs expose no echo cancellation, noise suppression
	// or gain control, so the requested conditioning is recorded and skipped.
	log.WithFields(log.Fields{
		"echo_cancellation": c.cfg.Conditioning.EchoCancellation,
		"noise_suppression": c.cfg.Conditioning.NoiseSuppression,
		"auto_gain":         c.cfg.Conditioning.AutoGain,
	}).Debug("input conditioning not offered by host API")

	if _, err := portaudio.DefaultInputDevice(); err != nil {
		portaudio.Terminate()
		return classify("find input device", err)
	}

	stream, err := portaudio.OpenDefaultStream(
		c.cfg.Channels, // input channels
		0,              // output channels (we don't need output)
		float64(c.cfg.SampleRate),
		c.cfg.FramesPerBuffer,
		c.processAudio,
	)
	if err != nil {
		portaudio.Terminate()
		return classify("open input stream", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return classify("start input stream", err)
	}

	c.stream = stream
	c.initialized = true
	log.WithFields(log.Fields{
		"sample_rate": c.cfg.SampleRate,
		"window":      c.cfg.WindowSize,
		"frames":      c.cfg.FramesPerBuffer,
	}).Info("microphone started")
	return nil
}

// processAudio is the callback function for audio processing
func (c *PortAudioCapturer) processAudio(in []float32) {
	gain := c.gain()

	if c.cfg.Channels == 1 {
		c.ring.write(in, gain)
		return
	}

	// Average interleaved channels down to mono
	frames := len(in) / c.cfg.Channels
	mono := c.mono[:0]
	for i := 0; i < frames; i++ {
		sum := float32(0)
		for ch := 0; ch < c.cfg.Channels; ch++ {
			sum += in[i*c.cfg.Channels+ch]
		}
		mono = append(mono, sum/float32(c.cfg.Channels))
	}
	c.mono = mono
	c.ring.write(mono, gain)
}

// Read returns the latest window, or an empty one before Initialize.
func (c *PortAudioCapturer) Read() Window {
	if !c.Initialized() {
		return Window{SampleRate: c.cfg.SampleRate}
	}
	return Window{
		Samples:    c.ring.snapshot(),
		SampleRate: c.cfg.SampleRate,
	}
}

// Close stops the stream and releases PortAudio. Safe to call when not
// initialized.
func (c *PortAudioCapturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil
	}
	c.initialized = false

	if err := c.stream.Stop(); err != nil {
		c.stream.Close()
		portaudio.Terminate()
		return classify("stop input stream", err)
	}
	if err := c.stream.Close(); err != nil {
		portaudio.Terminate()
		return classify("close input stream", err)
	}
	c.stream = nil
	c.ring.reset()

	log.Info("microphone released")
	return portaudio.Terminate()
}

// Initialized returns true if the stream is open and running
func (c *PortAudioCapturer) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// SetAmplification sets the audio amplification factor
func (c *PortAudioCapturer) SetAmplification(factor float32) {
	// Ensure amplification is positive
	if factor < 0.1 {
		factor = 0.1
	}
	c.amplification.Store(math.Float32bits(factor))
}

func (c *PortAudioCapturer) gain() float32 {
	return math.Float32frombits(c.amplification.Load())
}
