package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/pitch"
	"github.com/0xlemi/tunecoach/internal/session"
)

const meterWidth = 30

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF4D4F"))

	labelStyle = lipgloss.NewStyle().
			Width(8).
			Foreground(lipgloss.Color("#888888"))

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

// Returns a style for a note (including sharps which get split color)
func getNoteStyle(noteName string) lipgloss.Style {
	if strings.HasSuffix(noteName, "#") {
		// For sharp notes, we handle the rendering separately in renderNote
		// Just return a basic style
		return lipgloss.NewStyle().Bold(true)
	}
	// For natural notes, use a single color
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[noteName])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(1, 3)
}

// Get the next note in the scale (for sharp note colors)
func getNextNote(note string) string {
	switch note {
	case "C":
		return "D"
	case "D":
		return "E"
	case "E":
		return "F"
	case "F":
		return "G"
	case "G":
		return "A"
	case "A":
		return "B"
	default:
		return "C"
	}
}

// renderNote draws a note block; sharps are split between the colors of
// their neighbours.
func renderNote(n pitch.Note) string {
	text := n.String()
	if !strings.HasSuffix(n.Name, "#") {
		return getNoteStyle(n.Name).Render(text)
	}

	base := string(n.Name[0])
	half := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		BorderTop(true).
		BorderBottom(true).
		PaddingTop(1).
		PaddingBottom(1)

	left := half.
		Background(lipgloss.Color(noteColors[base])).
		BorderLeft(true).
		BorderRight(false).
		PaddingLeft(3)
	right := half.
		Background(lipgloss.Color(noteColors[getNextNote(base)])).
		BorderLeft(false).
		BorderRight(true).
		PaddingRight(3)

	return lipgloss.JoinHorizontal(lipgloss.Top, left.Render(base), right.Render(text[1:]))
}

// TickMsg represents a frame tick
type TickMsg time.Time

// StartedMsg reports the end of session start-up.
type StartedMsg struct {
	Err error
}

// Model represents the UI state
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	session *session.Session
	frame   time.Duration
	roll    *pianoRoll

	snap     session.Snapshot
	status   string
	failed   bool
	starting bool
	dark     bool

	width  int
	height int
}

// NewModel creates a new UI model over s, redrawing every frame. Quitting
// cancels a start that is still in progress.
func NewModel(ctx context.Context, s *session.Session, frame time.Duration, dark bool) Model {
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		session: s,
		frame:   frame,
		roll:    newPianoRoll(s.Phrase()),
		status:  "Press s to start: the microphone opens and the room is measured for a moment.",
		dark:    dark,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Init initializes the UI model
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) start() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return StartedMsg{Err: s.Start(ctx)}
	}
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "s":
			if m.starting || m.session.Ready() {
				return m, nil
			}
			m.starting = true
			m.failed = false
			m.status = "Requesting audio devices, stay quiet while the room is measured..."
			return m, m.start()
		case "p":
			if m.session.Ready() {
				m.session.Play()
			}
		case "x":
			if m.session.Ready() {
				m.session.Stop()
			}
		case "t":
			m.dark = !m.dark
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case StartedMsg:
		m.starting = false
		if msg.Err != nil {
			log.WithError(msg.Err).Error("session start failed")
			m.failed = true
			m.status = startError(msg.Err)
			return m, nil
		}
		m.status = "Ready. Put on headphones, then press p to play the phrase."

	case TickMsg:
		m.snap = m.session.Tick()
		return m, m.tick()
	}

	return m, nil
}

func startError(err error) string {
	switch {
	case errors.Is(err, audio.ErrPermissionDenied):
		return "Microphone access was denied. Allow it in your system settings and press s to retry."
	case errors.Is(err, audio.ErrDeviceUnavailable):
		return fmt.Sprintf("No usable audio device (%v). Press s to retry.", err)
	default:
		return fmt.Sprintf("Could not start: %v", err)
	}
}

// View renders the UI
func (m Model) View() string {
	pal := lightPalette
	if m.dark {
		pal = darkPalette
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("TuneCoach - Sing the Phrase"))
	b.WriteString("\n")

	if m.failed {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(infoStyle.Render(m.status))
	}
	b.WriteString("\n\n")

	b.WriteString(m.notePanel())
	b.WriteString("\n")
	b.WriteString(m.readout())
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Mic") + meter(m.snap.Meter))
	b.WriteString("\n\n")

	b.WriteString(m.roll.render(m.snap, pal, m.rollWidth()))
	b.WriteString("\n")

	if m.snap.Hint != "" {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.snap.Hint))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(infoStyle.Render("s start  p play  x stop  t theme  q quit"))

	return b.String()
}

func (m Model) notePanel() string {
	target := infoStyle.Render("  -  ")
	if m.snap.HasTarget {
		target = renderNote(pitch.MidiToNote(m.snap.Target))
	}
	user := infoStyle.Render("  -  ")
	if m.snap.HasUser {
		user = renderNote(pitch.MidiToNote(m.snap.User))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		labelStyle.Render("Target"), target,
		"    ",
		labelStyle.Render("You"), user,
	)
}

func (m Model) readout() string {
	dash := "-"
	target, user, cents := dash, dash, dash
	if m.snap.HasTarget {
		target = fmt.Sprintf("%.0f", m.snap.Target)
		if m.snap.TargetLabel != "" {
			target += " (" + m.snap.TargetLabel + ")"
		}
	}
	if m.snap.HasUser {
		user = fmt.Sprintf("%.1f", m.snap.User)
	}
	if m.snap.HasUser && m.snap.HasTarget {
		cents = fmt.Sprintf("%+.0f", m.snap.Cents)
	}
	voiced := "no"
	if m.snap.Voiced {
		voiced = "yes"
	}
	return infoStyle.Render(fmt.Sprintf("Target MIDI: %s | Your MIDI: %s | Cents: %s | Voiced: %s",
		target, user, cents, voiced))
}

func meter(pct float64) string {
	filled := int(pct / 100 * meterWidth)
	if filled > meterWidth {
		filled = meterWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color("#00B35A")).Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")).Render(strings.Repeat("░", meterWidth-filled))
	return bar + rest + fmt.Sprintf(" %3.0f%%", pct)
}

func (m Model) rollWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(20, min(100, m.width-4))
}
