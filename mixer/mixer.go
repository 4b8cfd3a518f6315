package mixer

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/jsphweid/chordlab/model"
)

var (
	ErrSourceStarted = errors.New("source already started")
	ErrSourceStopped = errors.New("source already stopped")
)

type (
	// Param is an automatable control, timed in graph seconds.
	Param interface {
		SetValue(v float64)
		SetValueAtTime(v, at float64)
		LinearRampToValueAtTime(v, at float64)
		CancelScheduledValues(from float64)
		ValueAt(at float64) float64
	}

	// Channel is a persistent gain and pan stage that sources play through.
	Channel interface {
		Gain() Param
		Pan() Param
	}

	// Source plays a buffer once. Start schedules playback at graph time
	// when, beginning offset seconds into the buffer. Stop is idempotent.
	Source interface {
		Start(when, offset float64) error
		Stop()
	}

	// Graph is the audio output the engine schedules against.
	Graph interface {
		Now() float64
		NewChannel() Channel
		NewSource(buf *model.Buffer, ch Channel) Source
	}
)

// Mixer is a software Graph. Its clock is the number of frames rendered, so
// time only moves while something pulls audio out of it.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	rendered   int64
	sources    []*source
}

type channel struct {
	gain *AutomationParam
	pan  *AutomationParam
}

type sourceState int

const (
	idle sourceState = iota
	started
	stopped
)

type source struct {
	m      *Mixer
	buf    *model.Buffer
	ch     *channel
	state  sourceState
	when   float64
	offset float64
}

func New(sampleRate int) *Mixer {
	return &Mixer{sampleRate: sampleRate}
}

func (m *Mixer) SampleRate() int {
	return m.sampleRate
}

func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.rendered) / float64(m.sampleRate)
}

func (m *Mixer) NewChannel() Channel {
	return &channel{gain: NewParam(1), pan: NewParam(0)}
}

func (c *channel) Gain() Param { return c.gain }
func (c *channel) Pan() Param  { return c.pan }

// NewSource panics if ch did not come from this package; channels are not
// portable between graph implementations.
func (m *Mixer) NewSource(buf *model.Buffer, ch Channel) Source {
	return &source{m: m, buf: buf, ch: ch.(*channel)}
}

func (s *source) Start(when, offset float64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	switch s.state {
	case started:
		return ErrSourceStarted
	case stopped:
		return ErrSourceStopped
	}
	s.state = started
	s.when = when
	s.offset = math.Max(0, offset)
	s.m.sources = append(s.m.sources, s)
	return nil
}

func (s *source) Stop() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.stopLocked()
}

func (s *source) stopLocked() {
	if s.state == stopped {
		return
	}
	s.state = stopped
	for i, o := range s.m.sources {
		if o == s {
			s.m.sources = append(s.m.sources[:i], s.m.sources[i+1:]...)
			break
		}
	}
}

// Playing returns the number of started sources that have not finished.
func (m *Mixer) Playing() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Render mixes the next len(dst)/2 frames into dst as interleaved stereo
// and advances the clock.
func (m *Mixer) Render(dst []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range dst {
		dst[i] = 0
	}
	frames := len(dst) / 2
	rate := float64(m.sampleRate)
	var finished []*source
	for _, s := range m.sources {
		if s.mix(dst[:frames*2], m.rendered, rate) {
			finished = append(finished, s)
		}
	}
	for _, s := range finished {
		s.stopLocked()
	}
	m.rendered += int64(frames)
}

// mix adds this source into dst and reports whether it reached the end of
// its buffer.
func (s *source) mix(dst []float32, first int64, rate float64) bool {
	total := s.buf.Frames()
	if total == 0 || s.buf.SampleRate <= 0 {
		return true
	}
	srcRate := float64(s.buf.SampleRate)
	left := s.buf.Channels[0]
	right := left
	stereo := len(s.buf.Channels) > 1
	if stereo {
		right = s.buf.Channels[1]
	}

	for i := 0; i < len(dst)/2; i++ {
		t := float64(first+int64(i)) / rate
		if t < s.when {
			continue
		}
		pos := (s.offset + t - s.when) * srcRate
		idx := int(pos)
		if idx >= total {
			return true
		}
		frac := float32(pos - float64(idx))
		next := idx + 1
		if next >= total {
			next = idx
		}
		l := left[idx] + (left[next]-left[idx])*frac
		r := right[idx] + (right[next]-right[idx])*frac

		gain := float32(s.ch.gain.ValueAt(t))
		outL, outR := pan(l, r, s.ch.pan.ValueAt(t), stereo)
		dst[2*i] += outL * gain
		dst[2*i+1] += outR * gain
	}
	return false
}

// pan follows the equal-power stereo panner: a mono input is spread across
// both sides, a stereo input has one side folded into the other.
func pan(l, r float32, p float64, stereo bool) (float32, float32) {
	p = math.Max(-1, math.Min(1, p))
	if !stereo {
		x := (p + 1) / 2 * math.Pi / 2
		return l * float32(math.Cos(x)), l * float32(math.Sin(x))
	}
	if p <= 0 {
		x := (p + 1) * math.Pi / 2
		return l + r*float32(math.Cos(x)), r * float32(math.Sin(x))
	}
	x := p * math.Pi / 2
	return l * float32(math.Cos(x)), r + l*float32(math.Sin(x))
}

// Read renders into p as interleaved little-endian float32 stereo, the
// format the audio device is opened with.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / 8
	buf := make([]float32, frames*2)
	m.Render(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * 8, nil
}
