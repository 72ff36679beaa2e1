package main

import (
	"errors"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/player"
)

func newRenderCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the phrase accompaniment to a wav file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			p, err := a.phrase()
			if err != nil {
				return err
			}

			sr := a.cfg.Audio.SampleRate
			samples := player.NewSynth(p).Render(sr)
			if err := audio.WriteWAV(out, samples, sr); err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"phrase":  p.Name,
				"out":     out,
				"samples": len(samples),
			}).Debug("rendered")
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %.2fs)\n", out, p.Name, float64(len(samples))/float64(sr))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output wav file")
	return cmd
}
