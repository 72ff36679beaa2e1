package phrase

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"gopkg.in/yaml.v3"

	"github.com/0xlemi/tunecoach/internal/pitch"
)

type phraseFile struct {
	Name  string      `yaml:"name"`
	Notes []NoteEvent `yaml:"notes"`
}

// Load reads a phrase from a .yaml/.yml or .mid/.midi file.
func Load(path string) (*Phrase, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".mid", ".midi":
		return LoadMIDI(path, -1)
	default:
		return nil, fmt.Errorf("%s: unsupported phrase format", path)
	}
}

// LoadYAML reads a phrase file of the form
//
//	name: Scale
//	notes:
//	  - {start: 0, end: 0.5, pitch: 60, label: do}
func LoadYAML(path string) (*Phrase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pf phraseFile
	if err := yaml.NewDecoder(f).Decode(&pf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if pf.Name == "" {
		pf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return New(pf.Name, pf.Notes)
}

// LoadMIDI builds a phrase from the note on/off pairs of a Standard MIDI
// File. channel selects one channel; a negative channel accepts all. A note
// that starts before the previous one ends cuts the previous one short, so
// the result stays monophonic.
func LoadMIDI(path string, channel int) (*Phrase, error) {
	type sounding struct {
		start float64
		key   uint8
	}
	var (
		events []NoteEvent
		open   = map[uint8]sounding{}
	)

	rd := smf.ReadTracks(path).Do(func(te smf.TrackEvent) {
		msg := midi.Message(te.Message)
		at := float64(te.AbsMicroSeconds) / 1e6

		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			if channel >= 0 && int(ch) != channel {
				return
			}
			open[key] = sounding{start: at, key: key}
		case msg.GetNoteEnd(&ch, &key):
			if channel >= 0 && int(ch) != channel {
				return
			}
			s, ok := open[key]
			if !ok {
				return
			}
			delete(open, key)
			events = append(events, NoteEvent{
				Start: s.start,
				End:   at,
				Pitch: float64(key),
				Label: pitch.MidiToNote(float64(key)).String(),
			})
		}
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	events = monophonic(events)
	log.WithFields(log.Fields{
		"path":  path,
		"notes": len(events),
	}).Debug("midi phrase loaded")

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(name, events)
}

// monophonic sorts events by start and trims overlaps. Zero-length
// leftovers are dropped.
func monophonic(events []NoteEvent) []NoteEvent {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start < events[j].Start
	})
	out := events[:0]
	for i, e := range events {
		if i+1 < len(events) && events[i+1].Start < e.End {
			e.End = events[i+1].Start
		}
		if e.End > e.Start {
			out = append(out, e)
		}
	}
	return out
}
