package engine

import (
	"math"

	"github.com/jsphweid/chordlab/mixer"
)

// Envelope is the gain curve for one playback span, in graph seconds.
type Envelope struct {
	Start        float64
	FadeInEnd    float64
	FadeOutStart float64
	End          float64
	Volume       float64
	FadeIn       bool
	FadeOut      bool
}

// FadeEnvelope lays out fades over a span of remaining seconds starting at
// start. The fade-in is cut short by the end of the span, and the fade-out
// never begins before the fade-in has finished.
func FadeEnvelope(start, remaining, volume, fadeIn, fadeOut float64) Envelope {
	remaining = math.Max(0, remaining)
	env := Envelope{
		Start:   start,
		End:     start + remaining,
		Volume:  volume,
		FadeIn:  fadeIn > 0,
		FadeOut: fadeOut > 0,
	}
	env.FadeInEnd = start
	if env.FadeIn {
		env.FadeInEnd = start + math.Min(fadeIn, remaining)
	}
	env.FadeOutStart = env.End
	if env.FadeOut {
		env.FadeOutStart = math.Max(env.FadeInEnd, env.End-fadeOut)
	}
	return env
}

// Apply replaces any automation on p with the envelope.
func (e Envelope) Apply(p mixer.Param) {
	p.CancelScheduledValues(0)
	if e.FadeIn {
		p.SetValueAtTime(0, e.Start)
		p.LinearRampToValueAtTime(e.Volume, e.FadeInEnd)
	} else {
		p.SetValueAtTime(e.Volume, e.Start)
	}
	if e.FadeOut {
		p.SetValueAtTime(e.Volume, e.FadeOutStart)
		p.LinearRampToValueAtTime(0, e.End)
	}
}

// GainAt evaluates the envelope without a graph.
func (e Envelope) GainAt(t float64) float64 {
	switch {
	case e.FadeIn && t < e.Start:
		return 0
	case e.FadeIn && t < e.FadeInEnd:
		return e.Volume * (t - e.Start) / (e.FadeInEnd - e.Start)
	case e.FadeOut && t >= e.End:
		return 0
	case e.FadeOut && t > e.FadeOutStart:
		return e.Volume * (e.End - t) / (e.End - e.FadeOutStart)
	}
	return e.Volume
}
