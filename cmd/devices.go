package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/0xlemi/tunecoach/internal/audio"
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := audio.InputDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "No input devices found")
				return nil
			}

			def := color.New(color.FgGreen, color.Bold)
			for _, d := range devices {
				line := color.New(color.Reset)
				mark := " "
				if d.Default {
					line = def
					mark = "*"
				}
				line.Fprintf(cmd.OutOrStdout(), "%s %s [%s] %d ch, %.0f Hz\n",
					mark, d.Name, d.HostAPI, d.MaxInputChannels, d.DefaultSampleRate)
			}
			return nil
		},
	}
}
