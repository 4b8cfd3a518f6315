package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, time.Second/60, cfg.FrameInterval())
}

func TestParseOverridesAndKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
difficulty: 5
input_mode: Microphone
history_window: 750ms
max_frequency: 1200
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Difficulty)
	assert.Equal(t, "microphone", cfg.InputMode)
	assert.Equal(t, 750*time.Millisecond, cfg.HistoryWindow)
	assert.Equal(t, 1200.0, cfg.MaxFrequency)
	assert.Equal(t, 20.0, cfg.MinFrequency)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestParseClamps(t *testing.T) {
	cfg, err := Parse([]byte(`
difficulty: 12
input_mode: theremin
frame_rate: -3
min_frequency: 3000
default_volume: 4
silence_threshold: -1
log_level: loud
`))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Difficulty)
	assert.Equal(t, "midi", cfg.InputMode)
	assert.Equal(t, 60, cfg.FrameRate)
	assert.Equal(t, 20.0, cfg.MinFrequency)
	assert.Equal(t, 2000.0, cfg.MaxFrequency)
	assert.Equal(t, 1.0, cfg.DefaultVolume)
	assert.Equal(t, float32(0), cfg.SilenceThreshold)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yml"))
	assert.Equal(t, ftag.NotFound, ftag.Get(err))

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("difficulty: [oops"), 0o644))
	_, err = Load(bad)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))
}
