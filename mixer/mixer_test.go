package mixer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/jsphweid/chordlab/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v float32, frames, rate int) *model.Buffer {
	ch := make([]float32, frames)
	for i := range ch {
		ch[i] = v
	}
	return &model.Buffer{SampleRate: rate, Channels: [][]float32{ch}}
}

func TestParamSetAndRamp(t *testing.T) {
	p := NewParam(1)
	assert.Equal(t, 1.0, p.ValueAt(3))

	p.SetValueAtTime(0, 1)
	p.LinearRampToValueAtTime(0.8, 3)
	assert.Equal(t, 1.0, p.ValueAt(0.5))
	assert.Equal(t, 0.0, p.ValueAt(1))
	assert.InDelta(t, 0.4, p.ValueAt(2), 1e-9)
	assert.InDelta(t, 0.8, p.ValueAt(3), 1e-9)
	assert.InDelta(t, 0.8, p.ValueAt(10), 1e-9)
}

func TestParamFadeOutAfterHold(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(0.5, 0)
	p.SetValueAtTime(0.5, 8)
	p.LinearRampToValueAtTime(0, 10)
	assert.Equal(t, 0.5, p.ValueAt(4))
	assert.InDelta(t, 0.25, p.ValueAt(9), 1e-9)
	assert.Equal(t, 0.0, p.ValueAt(11))
}

func TestParamOutOfOrderScheduling(t *testing.T) {
	p := NewParam(0)
	p.LinearRampToValueAtTime(1, 2)
	p.SetValueAtTime(0, 1)
	assert.Equal(t, 0.0, p.ValueAt(0.5))
	assert.InDelta(t, 0.5, p.ValueAt(1.5), 1e-9)
}

func TestParamCancelAndSet(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(1, 1)
	p.SetValueAtTime(2, 2)
	p.CancelScheduledValues(2)
	assert.Equal(t, 1.0, p.ValueAt(5))

	p.SetValue(0.3)
	assert.Equal(t, 0.3, p.ValueAt(5))
	assert.Equal(t, 0.3, p.ValueAt(0))
}

func TestSourceLifecycle(t *testing.T) {
	m := New(100)
	s := m.NewSource(constant(1, 10, 100), m.NewChannel())

	s.Stop()
	assert.ErrorIs(t, s.Start(0, 0), ErrSourceStopped)

	s = m.NewSource(constant(1, 10, 100), m.NewChannel())
	require.NoError(t, s.Start(0, 0))
	assert.ErrorIs(t, s.Start(0, 0), ErrSourceStarted)
	assert.Equal(t, 1, m.Playing())
	s.Stop()
	s.Stop()
	assert.Equal(t, 0, m.Playing())
}

func TestRenderGainAndPan(t *testing.T) {
	m := New(100)
	ch := m.NewChannel()
	ch.Gain().SetValue(0.5)
	require.NoError(t, m.NewSource(constant(1, 100, 100), ch).Start(0, 0))

	out := make([]float32, 8)
	m.Render(out)
	centre := float32(0.5 * math.Cos(math.Pi/4))
	for _, v := range out {
		assert.InDelta(t, centre, v, 1e-6)
	}

	ch.Pan().SetValue(-1)
	m.Render(out)
	assert.InDelta(t, 0.5, out[0], 1e-6)
	assert.InDelta(t, 0, out[1], 1e-6)
}

func TestRenderStereoPassesThroughAtCentre(t *testing.T) {
	m := New(100)
	buf := &model.Buffer{SampleRate: 100, Channels: [][]float32{{0.2, 0.2, 0.2}, {0.6, 0.6, 0.6}}}
	require.NoError(t, m.NewSource(buf, m.NewChannel()).Start(0, 0))
	out := make([]float32, 4)
	m.Render(out)
	assert.InDelta(t, 0.2, out[0], 1e-6)
	assert.InDelta(t, 0.6, out[1], 1e-6)
}

func TestRenderHonoursWhenAndOffset(t *testing.T) {
	m := New(10)
	ramp := &model.Buffer{SampleRate: 10, Channels: [][]float32{{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}}
	ch := m.NewChannel()
	ch.Pan().SetValue(-1)
	// start 0.2s from now, half a second into the buffer
	require.NoError(t, m.NewSource(ramp, ch).Start(0.2, 0.5))

	out := make([]float32, 2*4)
	m.Render(out)
	left := []float32{out[0], out[2], out[4], out[6]}
	assert.InDeltaSlice(t, []float32{0, 0, 5, 6}, left, 1e-5)
	assert.InDelta(t, 0.4, m.Now(), 1e-9)
}

func TestSourceEndsOnItsOwn(t *testing.T) {
	m := New(10)
	require.NoError(t, m.NewSource(constant(1, 3, 10), m.NewChannel()).Start(0, 0))
	m.Render(make([]float32, 2*10))
	assert.Equal(t, 0, m.Playing())
}

func TestRenderResamples(t *testing.T) {
	m := New(20)
	buf := &model.Buffer{SampleRate: 10, Channels: [][]float32{{0, 1, 2, 3}}}
	ch := m.NewChannel()
	ch.Pan().SetValue(-1)
	require.NoError(t, m.NewSource(buf, ch).Start(0, 0))
	out := make([]float32, 2*4)
	m.Render(out)
	assert.InDeltaSlice(t, []float32{0, 0.5, 1, 1.5}, []float32{out[0], out[2], out[4], out[6]}, 1e-5)
}

func TestReadEncodesFloat32LE(t *testing.T) {
	m := New(100)
	ch := m.NewChannel()
	ch.Pan().SetValue(1)
	require.NoError(t, m.NewSource(constant(0.25, 10, 100), ch).Start(0, 0))
	p := make([]byte, 8*2+3)
	n, err := m.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	left := math.Float32frombits(binary.LittleEndian.Uint32(p[0:]))
	right := math.Float32frombits(binary.LittleEndian.Uint32(p[4:]))
	assert.InDelta(t, 0, left, 1e-6)
	assert.InDelta(t, 0.25, right, 1e-6)
}
