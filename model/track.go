package model

import "time"

// Buffer is decoded audio, one slice per channel.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the length of the buffer in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

type TrackState int

const (
	TrackUnloaded TrackState = iota
	TrackDecoding
	TrackReady
	TrackPlaying
	TrackLoadFailed
)

func (s TrackState) String() string {
	switch s {
	case TrackUnloaded:
		return "unloaded"
	case TrackDecoding:
		return "decoding"
	case TrackReady:
		return "ready"
	case TrackPlaying:
		return "playing"
	case TrackLoadFailed:
		return "load-failed"
	}
	return "unknown"
}

// TrackInfo is a read-only snapshot of a track's mixer settings.
type TrackInfo struct {
	ID             string     `json:"id"`
	DisplayName    string     `json:"name"`
	State          TrackState `json:"state"`
	GainLevel      float64    `json:"volume"`
	PanPosition    float64    `json:"pan"`
	IsMuted        bool       `json:"muted"`
	IsSoloed       bool       `json:"solo"`
	FadeInSeconds  float64    `json:"fadeIn"`
	FadeOutSeconds float64    `json:"fadeOut"`
	Duration       float64    `json:"duration"`
}

// TransportState is a snapshot of the engine-wide transport. While playing,
// CurrentTimeSeconds is derived from the anchor; while stopped it is frozen.
type TransportState struct {
	IsPlaying          bool    `json:"isPlaying"`
	CurrentTimeSeconds float64 `json:"currentTime"`
	DurationSeconds    float64 `json:"duration"`
	AnchorTime         float64 `json:"-"`
}

// HeardNote is a note accepted from the pitch detector, with the time it was
// heard.
type HeardNote struct {
	Note Note
	At   time.Time
}
