package main

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/gate"
	"github.com/0xlemi/tunecoach/internal/pitch"
)

// frame is one analysed window of a recording.
type frame struct {
	At      time.Duration
	Reading pitch.Reading
	Midi    float64
	Note    pitch.Note
	Voiced  bool
	Pitched bool
}

type report struct {
	Path     string
	Duration time.Duration
	Floor    float64
	Frames   []frame
}

// analyzeClip slides a window over the clip every hop samples. The noise
// floor is the mean RMS of the windows ending within the first calibration
// span.
func analyzeClip(clip audio.Clip, size, hop int, g gate.Gate, calib time.Duration) report {
	est := pitch.NewEstimator()

	calibEnd := int(calib.Seconds() * float64(clip.SampleRate))
	var sum float64
	var n int
	for end := hop; end <= calibEnd && end <= len(clip.Samples); end += hop {
		sum += pitch.RMS(clip.WindowAt(end, size).Samples)
		n++
	}
	floor := sum / float64(max(1, n))

	r := report{Duration: clip.Duration(), Floor: floor}
	for end := size; end <= len(clip.Samples); end += hop {
		w := clip.WindowAt(end, size)
		reading := est.Estimate(w.Samples, float64(w.SampleRate))
		f := frame{
			At:      time.Duration(float64(end) / float64(clip.SampleRate) * float64(time.Second)),
			Reading: reading,
			Voiced:  g.Voiced(reading.RMS, floor),
		}
		if g.Accept(reading, floor) {
			if midi, err := pitch.HzToMidi(reading.Hz); err == nil {
				f.Midi = midi
				f.Note = pitch.MidiToNote(midi)
				f.Pitched = true
			}
		}
		r.Frames = append(r.Frames, f)
	}
	return r
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		hop time.Duration
		all bool
	)
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Print the pitch track of wav recordings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hop <= 0 {
				return fmt.Errorf("hop must be positive, got %v", hop)
			}
			g := a.cfg.SessionConfig().Gate
			size := a.cfg.Audio.WindowSize

			reports := make([]report, len(args))
			var eg errgroup.Group
			eg.SetLimit(runtime.NumCPU())
			for i, path := range args {
				i, path := i, path // per-iteration copy (go directive is 1.21)
				eg.Go(func() error {
					clip, err := audio.LoadWAV(path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					step := max(1, int(hop.Seconds()*float64(clip.SampleRate)))
					r := analyzeClip(clip, size, step, g, a.cfg.Calibration.Duration)
					r.Path = path
					reports[i] = r
					log.WithFields(log.Fields{
						"path":   path,
						"frames": len(r.Frames),
					}).Debug("analysed")
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			for _, r := range reports {
				printReport(cmd.OutOrStdout(), r, all)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&hop, "hop", 50*time.Millisecond, "time between analysed windows")
	cmd.Flags().BoolVar(&all, "all", false, "also print unvoiced frames")
	return cmd
}

func printReport(w io.Writer, r report, all bool) {
	head := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.FgHiBlack)
	note := color.New(color.FgGreen)

	head.Fprintf(w, "%s (%.2fs, noise floor %.4f)\n", r.Path, r.Duration.Seconds(), r.Floor)
	pitched := 0
	for _, f := range r.Frames {
		switch {
		case f.Pitched:
			pitched++
			note.Fprintf(w, "  %7.3fs  %-4s %8.2f Hz  midi %6.2f  %+4.0f cents  conf %.2f  rms %.4f\n",
				f.At.Seconds(), f.Note, f.Reading.Hz, f.Midi, f.Note.Cents, f.Reading.Confidence, f.Reading.RMS)
		case all:
			dim.Fprintf(w, "  %7.3fs  -    voiced %-5t conf %.2f  rms %.4f\n",
				f.At.Seconds(), f.Voiced, f.Reading.Confidence, f.Reading.RMS)
		}
	}
	dim.Fprintf(w, "  %d of %d frames pitched\n", pitched, len(r.Frames))
}
