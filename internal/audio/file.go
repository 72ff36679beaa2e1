package audio

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
	log "github.com/sirupsen/logrus"
)

// Clip is a decoded mono recording.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// WindowAt returns the size samples ending at offset end, zero-padded on
// the left when end < size and clamped to the clip length.
func (c Clip) WindowAt(end, size int) Window {
	if end > len(c.Samples) {
		end = len(c.Samples)
	}
	if end < 0 {
		end = 0
	}
	out := make([]float32, size)
	start := end - size
	if start < 0 {
		copy(out[-start:], c.Samples[:end])
	} else {
		copy(out, c.Samples[start:end])
	}
	return Window{Samples: out, SampleRate: c.SampleRate}
}

// LoadWAV decodes a PCM WAV file, downmixes it to mono and scales it
// to [-1, 1].
func LoadWAV(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Clip{}, fmt.Errorf("%s: not a valid wav file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decode %s: %w", path, err)
	}

	fbuf := buf.AsFloatBuffer()
	transforms.MonoDownmix(fbuf)

	// Integer PCM full scale is 2^(bitDepth-1).
	scale := math.Pow(2, float64(dec.BitDepth)-1)
	samples := make([]float32, len(fbuf.Data))
	for i, v := range fbuf.Data {
		samples[i] = float32(v / scale)
	}

	log.WithFields(log.Fields{
		"path":        path,
		"sample_rate": dec.SampleRate,
		"bit_depth":   dec.BitDepth,
		"samples":     len(samples),
	}).Debug("wav loaded")

	return Clip{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// WriteWAV encodes mono samples as 16-bit PCM.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return f.Close()
}

// FileCapturer replays a clip as though it were a live microphone: Read
// returns the window ending at the wall-clock time elapsed since Initialize.
type FileCapturer struct {
	path string
	size int
	now  func() time.Time

	mu      sync.Mutex
	clip    Clip
	started time.Time
	loaded  bool
}

// NewFileCapturer creates a capturer over the WAV file at path.
func NewFileCapturer(path string, windowSize int) *FileCapturer {
	return &FileCapturer{path: path, size: windowSize, now: time.Now}
}

// NewClipCapturer wraps an already decoded clip.
func NewClipCapturer(clip Clip, windowSize int, now func() time.Time) *FileCapturer {
	if now == nil {
		now = time.Now
	}
	return &FileCapturer{clip: clip, size: windowSize, now: now}
}

// Initialize decodes the file (if any) and starts the replay clock.
func (c *FileCapturer) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}
	if c.path != "" {
		clip, err := LoadWAV(c.path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		c.clip = clip
	}
	c.started = c.now()
	c.loaded = true
	return nil
}

// Read returns the window at the current replay position. Past the end of
// the clip it returns silence.
func (c *FileCapturer) Read() Window {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return Window{SampleRate: c.clip.SampleRate}
	}
	elapsed := c.now().Sub(c.started).Seconds()
	end := int(elapsed * float64(c.clip.SampleRate))
	if end > len(c.clip.Samples) {
		return Window{Samples: make([]float32, c.size), SampleRate: c.clip.SampleRate}
	}
	return c.clip.WindowAt(end, c.size)
}

// Close stops the replay.
func (c *FileCapturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	return nil
}

// Initialized returns true once the clip is playing
func (c *FileCapturer) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}
