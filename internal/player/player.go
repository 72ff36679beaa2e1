// Package player schedules and plays the target phrase.
package player

import (
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	log "github.com/sirupsen/logrus"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/phrase"
)

// Player plays a phrase through the default output device and exposes the
// transport clock the session scores against.
type Player struct {
	sampleRate      int
	framesPerBuffer int
	transport       *Transport
	synth           atomic.Pointer[Synth]
	cursor          atomic.Int64 // samples written since Play

	mu          sync.Mutex
	stream      *portaudio.Stream
	initialized bool
}

// New creates a player; the output device is opened by Init.
func New(sampleRate, framesPerBuffer int) *Player {
	return &Player{
		sampleRate:      sampleRate,
		framesPerBuffer: framesPerBuffer,
		transport:       NewTransport(nil),
	}
}

// Init opens the output stream. It must follow a user action; calling it
// again after success does nothing.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return audio.DeviceError("initialize portaudio", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(p.sampleRate), p.framesPerBuffer, p.processAudio)
	if err != nil {
		portaudio.Terminate()
		return audio.DeviceError("open output stream", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return audio.DeviceError("start output stream", err)
	}

	p.stream = stream
	p.initialized = true
	log.WithField("sample_rate", p.sampleRate).Info("audio output started")
	return nil
}

// Load replaces the phrase to play. The transport is left alone.
func (p *Player) Load(ph *phrase.Phrase) {
	p.synth.Store(NewSynth(ph))
}

// Play starts the transport from zero.
func (p *Player) Play() {
	p.cursor.Store(0)
	p.transport.Start()
}

// Stop halts playback and rewinds the transport.
func (p *Player) Stop() {
	p.transport.Stop()
	p.cursor.Store(0)
}

// Now returns the transport position in seconds.
func (p *Player) Now() float64 {
	return p.transport.Seconds()
}

// Running reports whether the transport is playing.
func (p *Player) Running() bool {
	return p.transport.Running()
}

func (p *Player) processAudio(out []float32) {
	synth := p.synth.Load()
	if synth == nil || !p.transport.Running() {
		for i := range out {
			out[i] = 0
		}
		return
	}

	// Render from the sample count, not the wall clock, so consecutive
	// buffers join without a phase jump.
	start := p.cursor.Add(int64(len(out))) - int64(len(out))
	sr := float64(p.sampleRate)
	for i := range out {
		out[i] = synth.Sample(float64(start+int64(i)) / sr)
	}
}

// Close stops and releases the output stream.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}
	p.initialized = false
	p.transport.Stop()

	if err := p.stream.Stop(); err != nil {
		p.stream.Close()
		portaudio.Terminate()
		return audio.DeviceError("stop output stream", err)
	}
	if err := p.stream.Close(); err != nil {
		portaudio.Terminate()
		return audio.DeviceError("close output stream", err)
	}
	p.stream = nil
	log.Info("audio output released")
	return portaudio.Terminate()
}
