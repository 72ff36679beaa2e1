package pitch

import (
	"errors"
	"fmt"
	"math"
)

// Errors
var (
	ErrInvalidFrequency = errors.New("frequency must be positive and finite")
)

// Reference tuning: A4 = 440Hz = MIDI 69
const (
	referenceHz   = 440.0
	referenceMidi = 69.0
)

// Note represents a musical note
type Note struct {
	Name      string  // e.g., "A", "A#", "B"
	Octave    int     // e.g., 4 for middle C (C4)
	Frequency float64 // Frequency in Hz
	Cents     float64 // Cents deviation from the nearest note (-50 to +50)
}

// String returns the note with its octave, e.g. "C#5".
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// All note names in chromatic order
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// HzToMidi converts a frequency to a fractional MIDI pitch.
func HzToMidi(hz float64) (float64, error) {
	if !(hz > 0) || math.IsInf(hz, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFrequency, hz)
	}
	return referenceMidi + 12*math.Log2(hz/referenceHz), nil
}

// MidiToHz converts a (fractional) MIDI pitch to a frequency.
func MidiToHz(midi float64) float64 {
	return referenceHz * math.Exp2((midi-referenceMidi)/12)
}

// CentsError is the signed distance from target to user in cents.
// Positive means sharp; 100 cents is one semitone.
func CentsError(userMidi, targetMidi float64) float64 {
	return (userMidi - targetMidi) * 100
}

// MidiToNote names the nearest equal-tempered note to a fractional MIDI
// pitch.
func MidiToNote(midi float64) Note {
	rounded := math.Round(midi)

	// Calculate note index (0 = C, 1 = C#, etc.); MIDI 60 is C4
	noteIndex := int(math.Mod(rounded, 12))
	if noteIndex < 0 {
		noteIndex += 12
	}
	octave := int(math.Floor(rounded/12)) - 1

	return Note{
		Name:      noteNames[noteIndex],
		Octave:    octave,
		Frequency: MidiToHz(midi),
		Cents:     100 * (midi - rounded),
	}
}

// FrequencyToNote converts a frequency to a musical note
func FrequencyToNote(frequency float64) (Note, error) {
	midi, err := HzToMidi(frequency)
	if err != nil {
		return Note{}, err
	}
	n := MidiToNote(midi)
	n.Frequency = frequency
	return n, nil
}
