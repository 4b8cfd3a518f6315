package constants

import (
	"os"
	"path/filepath"
	"time"
)

// GetConfigPath returns the YAML config path. An empty result means "use the
// defaults".
func GetConfigPath() string {
	path := os.Getenv("CHORDLAB_CONFIG")
	if path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path = filepath.Join(home, ".config", "chordlab", "config.yml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// GetListenAddr returns the address for the serve command.
func GetListenAddr() string {
	addr := os.Getenv("CHORDLAB_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

// Pitch detection
const (
	// RMS below this is treated as silence
	SilenceThreshold = 0.01
	// samples quieter than this at the buffer edges are trimmed before correlating
	ClipThreshold = 0.2
	// analysis window, in samples
	WindowSize = 2048

	MinFrequency = 20.0
	MaxFrequency = 2000.0
)

// Input aggregation
const (
	// pitch detections older than this fall out of the active note set, so
	// a melody played within the window reads as a chord
	NoteHistoryWindow = 500 * time.Millisecond

	FrameRate     = 60
	FrameInterval = time.Second / FrameRate

	DefaultDifficulty = 3
)

// Theory engine
const (
	MinDetectScore = 60
	// extra notes allowed in an exact match, for passing tones
	ExactMatchExtraTolerance = 1
	ExtraNotePenalty         = 5
	MaxExtraNotePenalty      = 20
	MaxSimplificationHops    = 5
	MinDifficulty            = 1
	MaxDifficulty            = 5
)

// Audio engine
const (
	SampleRate      = 44100
	WaveformBuckets = 200
	DefaultVolume   = 0.8
)
