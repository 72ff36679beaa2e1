package phrase

import (
	"errors"
	"testing"
)

func twoNotes(t *testing.T) *Phrase {
	t.Helper()
	p, err := New("test", []NoteEvent{
		{Start: 0, End: 0.6, Pitch: 67},
		{Start: 0.6, End: 1.2, Pitch: 69},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestTargetAt(t *testing.T) {
	p := twoNotes(t)

	tests := []struct {
		name   string
		t      float64
		want   float64
		wantOK bool
	}{
		{"start of first", 0, 67, true},
		{"inside first", 0.3, 67, true},
		{"boundary belongs to second", 0.6, 69, true},
		{"exact end holds last", 1.2, 69, true},
		{"past end holds last", 1.3, 69, true},
		{"before start", -0.1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := p.TargetAt(tt.t)
			if ok != tt.wantOK {
				t.Fatalf("TargetAt(%v) ok = %v, want %v", tt.t, ok, tt.wantOK)
			}
			if ok && e.Pitch != tt.want {
				t.Fatalf("TargetAt(%v) = %v, want %v", tt.t, e.Pitch, tt.want)
			}
		})
	}
}

func TestTargetAtGap(t *testing.T) {
	p, err := New("gap", []NoteEvent{
		{Start: 0, End: 1, Pitch: 60},
		{Start: 2, End: 3, Pitch: 62},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.TargetAt(1.5); ok {
		t.Fatalf("expected no target inside a gap")
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		events []NoteEvent
	}{
		{"empty", nil},
		{"zero length", []NoteEvent{{Start: 1, End: 1, Pitch: 60}}},
		{"reversed", []NoteEvent{{Start: 1, End: 0.5, Pitch: 60}}},
		{"overlap", []NoteEvent{{Start: 0, End: 1, Pitch: 60}, {Start: 0.5, End: 2, Pitch: 62}}},
		{"unsorted", []NoteEvent{{Start: 1, End: 2, Pitch: 60}, {Start: 0, End: 0.5, Pitch: 62}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New("bad", tt.events); !errors.Is(err, ErrInvalidPhrase) {
				t.Fatalf("expected ErrInvalidPhrase, got %v", err)
			}
		})
	}
}

func TestDefaultPhrase(t *testing.T) {
	p := Default()
	if p.Len() != 6 {
		t.Fatalf("expected 6 notes, got %d", p.Len())
	}
	if p.Length() != 4.4 {
		t.Fatalf("expected length 4.4, got %v", p.Length())
	}
	lo, hi := p.PitchRange()
	if lo != 60 || hi != 69 {
		t.Fatalf("expected range 60..69, got %v..%v", lo, hi)
	}
	if e, _ := p.TargetAt(2.0); e.Label != "child" {
		t.Fatalf("expected 'child' at 2.0s, got %q", e.Label)
	}
}

func TestEventsIsCopy(t *testing.T) {
	p := twoNotes(t)
	ev := p.Events()
	ev[0].Pitch = 0
	if e, _ := p.TargetAt(0); e.Pitch != 67 {
		t.Fatalf("phrase mutated through Events()")
	}
}
