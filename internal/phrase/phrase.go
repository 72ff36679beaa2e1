// Package phrase holds the target melodies a session is scored against.
package phrase

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPhrase is returned for empty, unordered or overlapping phrases.
var ErrInvalidPhrase = errors.New("invalid phrase")

// NoteEvent is one scheduled target note. Times are seconds from the start
// of the phrase; Pitch is a MIDI note number.
type NoteEvent struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Pitch float64 `yaml:"pitch"`
	Label string  `yaml:"label,omitempty"`
}

// Duration returns End - Start.
func (e NoteEvent) Duration() float64 {
	return e.End - e.Start
}

// Phrase is an ordered, non-overlapping list of NoteEvents. It is read-only
// once built.
type Phrase struct {
	Name   string
	events []NoteEvent
}

// New validates events and builds a phrase from them.
func New(name string, events []NoteEvent) (*Phrase, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no events", ErrInvalidPhrase)
	}
	for i, e := range events {
		if !(e.Start < e.End) || math.IsNaN(e.Pitch) {
			return nil, fmt.Errorf("%w: event %d has start %.3f, end %.3f", ErrInvalidPhrase, i, e.Start, e.End)
		}
		if i > 0 && e.Start < events[i-1].End {
			return nil, fmt.Errorf("%w: event %d starts at %.3f before previous end %.3f", ErrInvalidPhrase, i, e.Start, events[i-1].End)
		}
	}
	cp := make([]NoteEvent, len(events))
	copy(cp, events)
	return &Phrase{Name: name, events: cp}, nil
}

// Default is the built-in six-note exercise.
func Default() *Phrase {
	p, _ := New("I Am a Child of God", []NoteEvent{
		{Start: 0.0, End: 0.6, Pitch: 67, Label: "I"},     // G4
		{Start: 0.6, End: 1.2, Pitch: 69, Label: "am"},    // A4
		{Start: 1.2, End: 1.8, Pitch: 67, Label: "a"},     // G4
		{Start: 1.8, End: 2.8, Pitch: 64, Label: "child"}, // E4
		{Start: 2.8, End: 3.4, Pitch: 62, Label: "of"},    // D4
		{Start: 3.4, End: 4.4, Pitch: 60, Label: "God"},   // C4
	})
	return p
}

// Events returns a copy of the events.
func (p *Phrase) Events() []NoteEvent {
	out := make([]NoteEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Len returns the number of events.
func (p *Phrase) Len() int {
	return len(p.events)
}

// Length returns the end time of the last event.
func (p *Phrase) Length() float64 {
	return p.events[len(p.events)-1].End
}

// TargetAt returns the event sounding at t. Intervals are half-open, so a
// boundary belongs to the later note. Once t reaches the end of the phrase
// the last event stays the target; before the first event (or in a gap)
// there is none.
func (p *Phrase) TargetAt(t float64) (NoteEvent, bool) {
	for _, e := range p.events {
		if t >= e.Start && t < e.End {
			return e, true
		}
	}
	if last := p.events[len(p.events)-1]; t >= last.End {
		return last, true
	}
	return NoteEvent{}, false
}

// PitchRange returns the lowest and highest target pitch.
func (p *Phrase) PitchRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, e := range p.events {
		lo = math.Min(lo, e.Pitch)
		hi = math.Max(hi, e.Pitch)
	}
	return lo, hi
}
