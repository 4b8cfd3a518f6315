package engine

import (
	"testing"

	"github.com/jsphweid/chordlab/mixer"
	"github.com/jsphweid/chordlab/model"
	"github.com/stretchr/testify/assert"
)

func TestFadeEnvelopeWithoutFades(t *testing.T) {
	env := FadeEnvelope(1, 10, 0.7, 0, 0)
	assert.Equal(t, 1.0, env.FadeInEnd)
	assert.Equal(t, 11.0, env.FadeOutStart)
	assert.Equal(t, 0.7, env.GainAt(1))
	assert.Equal(t, 0.7, env.GainAt(10.9))
}

func TestFadeEnvelopeOverlappingFadesAreClamped(t *testing.T) {
	// 4 + 4 seconds of fades in a 5 second span
	env := FadeEnvelope(0, 5, 1, 4, 4)
	assert.Equal(t, 4.0, env.FadeInEnd)
	assert.Equal(t, 4.0, env.FadeOutStart)
	assert.GreaterOrEqual(t, env.FadeOutStart, env.FadeInEnd)
	assert.InDelta(t, 1, env.GainAt(4), 1e-9)
	assert.InDelta(t, 0.5, env.GainAt(4.5), 1e-9)
}

func TestFadeEnvelopeFadeInLongerThanSpan(t *testing.T) {
	env := FadeEnvelope(2, 3, 1, 10, 0)
	assert.Equal(t, 5.0, env.FadeInEnd)
	assert.InDelta(t, 0.5, env.GainAt(3.5), 1e-9)
}

func TestFadeEnvelopeMatchesScheduledParam(t *testing.T) {
	env := FadeEnvelope(3, 6, 0.8, 2, 3)
	p := mixer.NewParam(0.8)
	p.SetValueAtTime(0.1, 50)
	env.Apply(p)
	for _, at := range []float64{3, 3.5, 4, 5, 6, 7, 8, 8.9, 9} {
		assert.InDelta(t, env.GainAt(at), p.ValueAt(at), 1e-9, "at %v", at)
	}
}

func TestWaveform(t *testing.T) {
	buf := &model.Buffer{SampleRate: 4, Channels: [][]float32{{0.5, -0.5, 0.25, -0.25, 1, -1, 0, 0, 9}}}
	wf := Waveform(buf, 4)
	assert.InDeltaSlice(t, []float32{0.5, 0.25, 1, 0}, wf, 1e-6)

	assert.Equal(t, []float32{0, 0}, Waveform(&model.Buffer{}, 2))
	assert.Nil(t, Waveform(buf, 0))
}
