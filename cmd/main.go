package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/0xlemi/tunecoach/internal/config"
	"github.com/0xlemi/tunecoach/internal/phrase"
)

// app carries the settings shared by every subcommand.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	configFile string
	logFile    io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:          "tunecoach",
		Short:        "Sing along with a target phrase and see how close you are",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logFile != nil {
				a.logFile.Close()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./tunecoach.yaml or ~/.config/tunecoach/tunecoach.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "tunecoach.log", "log file used while the trainer is on screen")
	flags.String("phrase", "", "phrase file (.yaml or .mid); the built-in phrase when empty")
	a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	a.v.BindPFlag("log.file", flags.Lookup("log-file"))
	a.v.BindPFlag("phrase", flags.Lookup("phrase"))

	root.AddCommand(
		newRunCmd(a),
		newCalibrateCmd(a),
		newAnalyzeCmd(a),
		newRenderCmd(a),
		newDevicesCmd(a),
	)
	return root
}

// setup loads the config and points the logger at stderr, or at the log
// file for the full-screen trainer.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	headless, _ := cmd.Flags().GetBool("headless")
	if cmd.Name() == "run" && !headless && cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		a.logFile = f
	}
	return nil
}

func (a *app) phrase() (*phrase.Phrase, error) {
	if a.cfg.Phrase == "" {
		return phrase.Default(), nil
	}
	return phrase.Load(a.cfg.Phrase)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
