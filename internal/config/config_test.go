package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.WindowSize != 2048 {
		t.Fatalf("unexpected audio defaults %+v", cfg.Audio)
	}
	if cfg.Calibration.Duration != 800*time.Millisecond || cfg.Calibration.Interval != 16*time.Millisecond {
		t.Fatalf("unexpected calibration defaults %+v", cfg.Calibration)
	}

	sc := cfg.SessionConfig()
	if sc.Gate.Margin != 0.01 || sc.Gate.MinConfidence != 0.45 || sc.InTuneCents != 50 {
		t.Fatalf("unexpected session config %+v", sc)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	doc := `audio:
  sample_rate: 48000
gate:
  min_confidence: 0.6
calibration:
  duration: 1s
phrase: warmup.yaml
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TUNECOACH_SESSION_IN_TUNE_CENTS", "25")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.CaptureConfig().SampleRate != 48000 {
		t.Fatalf("expected 48kHz from file, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Gate.MinConfidence != 0.6 || cfg.Gate.Margin != 0.01 {
		t.Fatalf("unexpected gate %+v", cfg.Gate)
	}
	if cfg.Calibration.Duration != time.Second {
		t.Fatalf("expected 1s calibration, got %v", cfg.Calibration.Duration)
	}
	if cfg.Phrase != "warmup.yaml" {
		t.Fatalf("unexpected phrase %q", cfg.Phrase)
	}
	if cfg.Session.InTuneCents != 25 {
		t.Fatalf("expected env override of in_tune_cents, got %v", cfg.Session.InTuneCents)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TUNECOACH_AUDIO_WINDOW_SIZE", "0")

	if _, err := Load(viper.New(), ""); err == nil {
		t.Fatalf("expected validation error for zero window")
	}
}
