package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/0xlemi/tunecoach/internal/phrase"
	"github.com/0xlemi/tunecoach/internal/session"
)

type palette struct {
	background lipgloss.Color
	grid       lipgloss.Color
	block      lipgloss.Color
	playhead   lipgloss.Color
	ball       lipgloss.Color
	inTune     lipgloss.Color
	offTune    lipgloss.Color
}

var (
	lightPalette = palette{
		background: "#FFFFFF",
		grid:       "#EEEEEE",
		block:      "#F2C94C",
		playhead:   "#CFD6FF",
		ball:       "#0B5CFF",
		inTune:     "#00B35A",
		offTune:    "#FF4D4F",
	}
	darkPalette = palette{
		background: "#1E1E2E",
		grid:       "#313244",
		block:      "#B08A1E",
		playhead:   "#45475A",
		ball:       "#89B4FA",
		inTune:     "#A6E3A1",
		offTune:    "#F38BA8",
	}
)

type cell uint8

const (
	cellEmpty cell = iota
	cellGrid
	cellBlock
	cellPlayhead
	cellBall
	cellInTune
	cellOffTune
)

var cellRunes = map[cell]string{
	cellEmpty:    " ",
	cellGrid:     "·",
	cellBlock:    "█",
	cellPlayhead: "│",
	cellBall:     "●",
	cellInTune:   "◆",
	cellOffTune:  "◆",
}

// pianoRoll draws the phrase as blocks on a pitch/time grid with the
// playhead, the target ball and the user's pitch.
type pianoRoll struct {
	events []phrase.NoteEvent
	length float64
	lo, hi int // MIDI rows shown, inclusive
}

func newPianoRoll(p *phrase.Phrase) *pianoRoll {
	lo, hi := p.PitchRange()
	return &pianoRoll{
		events: p.Events(),
		length: p.Length(),
		lo:     int(math.Floor(lo)) - 3,
		hi:     int(math.Ceil(hi)) + 3,
	}
}

func (r *pianoRoll) rows() int {
	return r.hi - r.lo + 1
}

func (r *pianoRoll) col(t float64, width int) int {
	u := math.Max(0, math.Min(1, t/r.length))
	return int(math.Round(u * float64(width-1)))
}

// row maps a pitch to a row index, clamped to the grid; row 0 is the top.
func (r *pianoRoll) row(midi float64) int {
	m := int(math.Round(midi))
	m = max(r.lo, min(r.hi, m))
	return r.hi - m
}

func (r *pianoRoll) grid(snap session.Snapshot, width int) [][]cell {
	g := make([][]cell, r.rows())
	for y := range g {
		g[y] = make([]cell, width)
		if (r.hi-y)%12 == 0 { // C rows
			for x := range g[y] {
				g[y][x] = cellGrid
			}
		}
	}

	for _, e := range r.events {
		y := r.row(e.Pitch)
		x0, x1 := r.col(e.Start, width), r.col(e.End, width)
		for x := x0; x <= x1; x++ {
			g[y][x] = cellBlock
		}
	}

	px := r.col(snap.Time, width)
	for y := range g {
		g[y][px] = cellPlayhead
	}

	ballRow := r.rows() / 2
	if snap.HasTarget {
		ballRow = r.row(snap.Target)
	}
	g[ballRow][px] = cellBall

	if snap.HasUser {
		kind := cellOffTune
		if snap.InTune {
			kind = cellInTune
		}
		g[r.row(snap.User)][px] = kind
	}
	return g
}

func (r *pianoRoll) render(snap session.Snapshot, pal palette, width int) string {
	styles := map[cell]lipgloss.Style{
		cellEmpty:    lipgloss.NewStyle().Background(pal.background),
		cellGrid:     lipgloss.NewStyle().Background(pal.background).Foreground(pal.grid),
		cellBlock:    lipgloss.NewStyle().Background(pal.background).Foreground(pal.block),
		cellPlayhead: lipgloss.NewStyle().Background(pal.background).Foreground(pal.playhead),
		cellBall:     lipgloss.NewStyle().Background(pal.background).Foreground(pal.ball).Bold(true),
		cellInTune:   lipgloss.NewStyle().Background(pal.background).Foreground(pal.inTune).Bold(true),
		cellOffTune:  lipgloss.NewStyle().Background(pal.background).Foreground(pal.offTune).Bold(true),
	}

	var b strings.Builder
	for y, line := range r.grid(snap, width) {
		// Render runs of the same cell kind in one call
		for x := 0; x < len(line); {
			end := x
			for end < len(line) && line[end] == line[x] {
				end++
			}
			b.WriteString(styles[line[x]].Render(strings.Repeat(cellRunes[line[x]], end-x)))
			x = end
		}
		if y < r.rows()-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
