package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/gate"
	"github.com/0xlemi/tunecoach/internal/pitch"
)

func newCalibrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate",
		Short: "Measure the room noise floor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mic := audio.NewPortAudioCapturer(a.cfg.CaptureConfig())
			mic.SetAmplification(float32(a.cfg.Audio.Amplification))
			if err := mic.Initialize(); err != nil {
				return err
			}
			defer mic.Close()

			color.New(color.FgCyan).Fprintln(cmd.OutOrStdout(), "Stay quiet, measuring the room...")

			floor := gate.NewNoiseFloor(0)
			src := gate.RMSFunc(func() float64 {
				return pitch.RMS(mic.Read().Samples)
			})
			opts := gate.CalibrationOptions{
				Duration: a.cfg.Calibration.Duration,
				Interval: a.cfg.Calibration.Interval,
			}
			level, err := gate.Calibrate(cmd.Context(), src, floor, opts)
			if err != nil {
				return err
			}

			g := a.cfg.SessionConfig().Gate
			color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "Noise floor: %.4f RMS\n", level)
			color.New(color.FgWhite).Fprintf(cmd.OutOrStdout(), "Voice counts above %.4f RMS\n", level+g.Margin)
			return nil
		},
	}
}
