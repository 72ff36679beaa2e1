// Package config loads tunecoach settings from defaults, an optional
// tunecoach.yaml, TUNECOACH_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/0xlemi/tunecoach/internal/audio"
	"github.com/0xlemi/tunecoach/internal/gate"
	"github.com/0xlemi/tunecoach/internal/session"
)

type Audio struct {
	SampleRate      int     `mapstructure:"sample_rate"`
	WindowSize      int     `mapstructure:"window_size"`
	FramesPerBuffer int     `mapstructure:"frames_per_buffer"`
	Amplification   float64 `mapstructure:"amplification"`
	Input           string  `mapstructure:"input"` // wav file replayed instead of the microphone
}

type Gate struct {
	Margin        float64 `mapstructure:"margin"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

type Session struct {
	InTuneCents   float64       `mapstructure:"in_tune_cents"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
}

type Calibration struct {
	Duration time.Duration `mapstructure:"duration"`
	Interval time.Duration `mapstructure:"interval"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UI struct {
	Theme string `mapstructure:"theme"`
}

// Config is the full settings tree.
type Config struct {
	Audio       Audio       `mapstructure:"audio"`
	Gate        Gate        `mapstructure:"gate"`
	Session     Session     `mapstructure:"session"`
	Calibration Calibration `mapstructure:"calibration"`
	Phrase      string      `mapstructure:"phrase"`
	Log         Log         `mapstructure:"log"`
	UI          UI          `mapstructure:"ui"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.window_size", 2048)
	v.SetDefault("audio.frames_per_buffer", 512)
	v.SetDefault("audio.amplification", 1.0)
	v.SetDefault("audio.input", "")

	v.SetDefault("gate.margin", 0.01)
	v.SetDefault("gate.min_confidence", 0.45)

	v.SetDefault("session.in_tune_cents", 50.0)
	v.SetDefault("session.frame_interval", 16*time.Millisecond)

	v.SetDefault("calibration.duration", 800*time.Millisecond)
	v.SetDefault("calibration.interval", 16*time.Millisecond)

	v.SetDefault("phrase", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "tunecoach.log")
	v.SetDefault("ui.theme", "light")
}

// Load reads settings into v. file, when set, must exist; otherwise
// tunecoach.yaml is looked up in the working directory and
// $HOME/.config/tunecoach and skipped when absent.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("tunecoach")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("tunecoach")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tunecoach"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline can't run with.
func (c *Config) Validate() error {
	switch {
	case c.Audio.SampleRate <= 0:
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	case c.Audio.WindowSize <= 0:
		return fmt.Errorf("audio.window_size must be positive, got %d", c.Audio.WindowSize)
	case c.Session.FrameInterval <= 0:
		return fmt.Errorf("session.frame_interval must be positive, got %v", c.Session.FrameInterval)
	case c.Calibration.Interval <= 0:
		return fmt.Errorf("calibration.interval must be positive, got %v", c.Calibration.Interval)
	}
	return nil
}

// CaptureConfig returns the microphone settings.
func (c *Config) CaptureConfig() audio.CaptureConfig {
	cc := audio.DefaultCaptureConfig()
	cc.SampleRate = c.Audio.SampleRate
	cc.WindowSize = c.Audio.WindowSize
	cc.FramesPerBuffer = c.Audio.FramesPerBuffer
	return cc
}

// SessionConfig returns the scoring settings.
func (c *Config) SessionConfig() session.Config {
	sc := session.DefaultConfig()
	sc.Gate = gate.Gate{Margin: c.Gate.Margin, MinConfidence: c.Gate.MinConfidence}
	sc.InTuneCents = c.Session.InTuneCents
	sc.Calibration = gate.CalibrationOptions{
		Duration: c.Calibration.Duration,
		Interval: c.Calibration.Interval,
	}
	return sc
}
