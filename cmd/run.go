package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/pitch"
	"github.com/0xlemi/tunecoach/internal/player"
	"github.com/0xlemi/tunecoach/internal/session"
	"github.com/0xlemi/tunecoach/internal/ui"
)

func newRunCmd(a *app) *cobra.Command {
	var headless bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive pitch trainer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.phrase()
			if err != nil {
				return err
			}

			cfg := a.cfg
			var mic audio.Capturer
			if cfg.Audio.Input != "" {
				mic = audio.NewFileCapturer(cfg.Audio.Input, cfg.Audio.WindowSize)
			} else {
				pa := audio.NewPortAudioCapturer(cfg.CaptureConfig())
				pa.SetAmplification(float32(cfg.Audio.Amplification))
				mic = pa
			}
			out := player.New(cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer)

			sess := session.New(cfg.SessionConfig(), mic, out, p)
			defer func() {
				if err := sess.Close(); err != nil {
					log.WithError(err).Warn("releasing audio devices")
				}
			}()

			log.WithFields(log.Fields{
				"phrase":   p.Name,
				"notes":    p.Len(),
				"input":    cfg.Audio.Input,
				"headless": headless,
			}).Info("trainer starting")

			if headless {
				return runHeadless(cmd.Context(), cmd.OutOrStdout(), sess, cfg.Session.FrameInterval)
			}

			model := ui.NewModel(cmd.Context(), sess, cfg.Session.FrameInterval, cfg.UI.Theme == "dark")
			if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("running ui: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("input", "", "replay a wav file instead of the microphone")
	cmd.Flags().Bool("dark", false, "start in dark mode")
	cmd.Flags().BoolVar(&headless, "headless", false, "play once and print the scoring as text instead of the full-screen view")
	a.v.BindPFlag("audio.input", cmd.Flags().Lookup("input"))
	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		if dark, _ := cmd.Flags().GetBool("dark"); dark {
			a.cfg.UI.Theme = "dark"
		}
	}
	return cmd
}

// runHeadless starts the session, plays the phrase once and prints a line
// whenever the scoring changes. It returns when the phrase ends or ctx is
// cancelled.
func runHeadless(ctx context.Context, w io.Writer, s *session.Session, frame time.Duration) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	s.Play()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	length := s.Phrase().Length()
	var last string
	err := s.Run(ctx, frame, func(snap session.Snapshot) {
		if line := snapshotLine(snap); line != last {
			last = line
			snapshotColor(snap).Fprintf(w, "%6.2fs  %s\n", snap.Time, line)
		}
		if !snap.Running || snap.Time >= length {
			cancel()
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func snapshotLine(snap session.Snapshot) string {
	target, user, cents := "-", "-", "    "
	if snap.HasTarget {
		target = snap.TargetLabel
		if target == "" {
			target = pitch.MidiToNote(snap.Target).String()
		}
	}
	if snap.HasUser {
		user = pitch.MidiToNote(snap.User).String()
	}
	if snap.HasUser && snap.HasTarget {
		cents = fmt.Sprintf("%+4.0f", snap.Cents)
	}
	return fmt.Sprintf("target %-4s you %-4s %s  %s", target, user, cents, snap.Hint)
}

func snapshotColor(snap session.Snapshot) *color.Color {
	switch {
	case snap.HasUser && snap.HasTarget && snap.InTune:
		return color.New(color.FgGreen)
	case snap.HasUser && snap.HasTarget:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}
