package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/jsphweid/chordlab/constants"
	"github.com/jsphweid/chordlab/util"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables a user may override in YAML. Zero values in the
// file leave the defaults alone.
type Config struct {
	Difficulty       int           `yaml:"difficulty"`
	InputMode        string        `yaml:"input_mode"`
	MIDIPort         string        `yaml:"midi_port"`
	HistoryWindow    time.Duration `yaml:"history_window"`
	FrameRate        int           `yaml:"frame_rate"`
	MinFrequency     float64       `yaml:"min_frequency"`
	MaxFrequency     float64       `yaml:"max_frequency"`
	SilenceThreshold float32       `yaml:"silence_threshold"`
	ClipThreshold    float32       `yaml:"clip_threshold"`
	SampleRate       int           `yaml:"sample_rate"`
	WaveformBuckets  int           `yaml:"waveform_buckets"`
	DefaultVolume    float64       `yaml:"default_volume"`
	LogLevel         string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Difficulty:       constants.DefaultDifficulty,
		InputMode:        "midi",
		HistoryWindow:    constants.NoteHistoryWindow,
		FrameRate:        constants.FrameRate,
		MinFrequency:     constants.MinFrequency,
		MaxFrequency:     constants.MaxFrequency,
		SilenceThreshold: constants.SilenceThreshold,
		ClipThreshold:    constants.ClipThreshold,
		SampleRate:       constants.SampleRate,
		WaveformBuckets:  constants.WaveformBuckets,
		DefaultVolume:    constants.DefaultVolume,
		LogLevel:         "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fault.Wrap(err,
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("read config", "Could not read config file "+path))
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fault.Wrap(err,
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("parse config", "Config file is not valid YAML"))
	}
	cfg.normalize()
	return cfg, nil
}

// normalize clamps out-of-range values back into something usable.
func (c *Config) normalize() {
	def := Default()
	c.Difficulty = util.Clamp(c.Difficulty, constants.MinDifficulty, constants.MaxDifficulty)
	c.InputMode = strings.ToLower(c.InputMode)
	if c.InputMode != "midi" && c.InputMode != "microphone" {
		c.InputMode = def.InputMode
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = def.HistoryWindow
	}
	if c.FrameRate <= 0 {
		c.FrameRate = def.FrameRate
	}
	c.MinFrequency = util.Max(c.MinFrequency, 1)
	if c.MaxFrequency <= c.MinFrequency {
		c.MinFrequency, c.MaxFrequency = def.MinFrequency, def.MaxFrequency
	}
	c.SilenceThreshold = util.Clamp(c.SilenceThreshold, 0, 1)
	c.ClipThreshold = util.Clamp(c.ClipThreshold, 0, 1)
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.WaveformBuckets <= 0 {
		c.WaveformBuckets = def.WaveformBuckets
	}
	c.DefaultVolume = util.Clamp(c.DefaultVolume, 0, 1)
}

func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// Level maps log_level to a slog level; unknown names mean info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
