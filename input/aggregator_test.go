package input

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/jsphweid/chordlab/model"
	"github.com/jsphweid/chordlab/ticker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMIDI struct {
	inputs    []string
	listenErr error
	handler   func(status, key, velocity uint8)
	listening string
	stops     int
}

func (f *fakeMIDI) Inputs() []string {
	return f.inputs
}

func (f *fakeMIDI) Listen(input string, handler func(status, key, velocity uint8)) (func(), error) {
	if f.listenErr != nil {
		return nil, f.listenErr
	}
	f.handler = handler
	f.listening = input
	return func() {
		f.handler = nil
		f.listening = ""
		f.stops++
	}, nil
}

func (f *fakeMIDI) noteOn(key uint8) {
	f.handler(0x90, key, 100)
}

func (f *fakeMIDI) noteOff(key uint8) {
	f.handler(0x80, key, 0)
}

type fakeCapture struct {
	samples []float32
	closed  bool
}

func (c *fakeCapture) Read(buf []float32) int {
	return copy(buf, c.samples)
}

func (c *fakeCapture) SampleRate() float64 {
	return 44100
}

func (c *fakeCapture) Close() error {
	c.closed = true
	return nil
}

type fakeMic struct {
	capture *fakeCapture
	err     error
}

func (m *fakeMic) Open(context.Context) (Capture, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.capture, nil
}

func sine(freq float64) []float32 {
	buf := make([]float32, 2048)
	for i := range buf {
		buf[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/44100))
	}
	return buf
}

func names(notes []model.Note) []string {
	return model.NoteNames(notes)
}

func TestMIDINoteOnAndOff(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys"}}
	a := New(WithMIDI(m))
	require.NoError(t, a.StartListening(context.Background()))
	assert.True(t, a.Listening())
	assert.Equal(t, "keys", m.listening)

	m.noteOn(60)
	assert.Nil(t, a.DetectedChord())
	m.noteOn(64)
	m.noteOn(67)
	assert.Equal(t, []string{"C4", "E4", "G4"}, names(a.ActiveNotes()))
	require.NotNil(t, a.DetectedChord())
	assert.Equal(t, "C", a.DetectedChord().Chord.Symbol)

	// note-on with velocity 0 is a note-off
	m.handler(0x90, 64, 0)
	assert.Equal(t, []string{"C4", "G4"}, names(a.ActiveNotes()))

	m.noteOff(67)
	assert.Equal(t, []string{"C4"}, names(a.ActiveNotes()))
	assert.Nil(t, a.DetectedChord())
}

func TestMIDIDedupsPitchClass(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys"}}
	a := New(WithMIDI(m))
	require.NoError(t, a.StartListening(context.Background()))

	m.noteOn(60)
	m.noteOn(72)
	assert.Equal(t, []string{"C4"}, names(a.ActiveNotes()))

	m.noteOff(72)
	assert.Empty(t, a.ActiveNotes())
}

func TestMIDIIgnoresOtherMessages(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys"}}
	a := New(WithMIDI(m))
	require.NoError(t, a.StartListening(context.Background()))

	m.handler(0xB0, 64, 127)
	m.handler(0xE0, 0, 64)
	assert.Empty(t, a.ActiveNotes())

	// channel bits do not matter
	m.handler(0x93, 62, 90)
	assert.Equal(t, []string{"D4"}, names(a.ActiveNotes()))
}

func TestMIDIUnsupported(t *testing.T) {
	a := New()
	err := a.StartListening(context.Background())
	require.Error(t, err)
	assert.Equal(t, UnsupportedPlatform, ftag.Get(err))
	assert.False(t, a.Listening())
	assert.Equal(t, "MIDI input is not supported on this platform", a.ErrorMessage())
}

func TestMIDINoInputs(t *testing.T) {
	a := New(WithMIDI(&fakeMIDI{}))
	err := a.StartListening(context.Background())
	require.Error(t, err)
	assert.Equal(t, ftag.NotFound, ftag.Get(err))
	assert.Equal(t, "No MIDI input device selected", a.ErrorMessage())
}

func TestMIDIDenied(t *testing.T) {
	a := New(WithMIDI(&fakeMIDI{inputs: []string{"keys"}, listenErr: errors.New("nope")}))
	err := a.StartListening(context.Background())
	require.Error(t, err)
	assert.Equal(t, ftag.PermissionDenied, ftag.Get(err))
	assert.False(t, a.Listening())

	// retry clears the error once it succeeds
	a.midiAccess = &fakeMIDI{inputs: []string{"keys"}}
	require.NoError(t, a.StartListening(context.Background()))
	assert.Nil(t, a.Err())
	assert.Empty(t, a.ErrorMessage())
}

func TestMIDIMissingPortStaysNotFound(t *testing.T) {
	gone := fault.Wrap(errors.New("no such port"),
		ftag.With(ftag.NotFound),
		fmsg.WithDesc("find midi input", "MIDI input keys was not found"))
	a := New(WithMIDI(&fakeMIDI{inputs: []string{"keys"}, listenErr: gone}))

	err := a.StartListening(context.Background())
	require.Error(t, err)
	assert.Equal(t, ftag.NotFound, ftag.Get(err))
	assert.Contains(t, a.ErrorMessage(), "MIDI input keys was not found")
	assert.NotContains(t, a.ErrorMessage(), "denied")
}

func TestLateMIDICallbackAfterStopIsDropped(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys"}}
	a := New(WithMIDI(m))
	require.NoError(t, a.StartListening(context.Background()))
	m.noteOn(60)
	late := m.handler

	a.StopListening()
	late(0x90, 64, 100)
	assert.Empty(t, a.ActiveNotes())
	assert.Nil(t, a.DetectedChord())
}

func TestStopListeningIsIdempotentAndClears(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys"}}
	a := New(WithMIDI(m))
	a.StopListening()

	require.NoError(t, a.StartListening(context.Background()))
	require.NoError(t, a.StartListening(context.Background()))
	m.noteOn(57)
	m.noteOn(60)
	m.noteOn(64)
	require.NotNil(t, a.DetectedChord())

	a.StopListening()
	a.StopListening()
	assert.Equal(t, 1, m.stops)
	assert.Nil(t, m.handler)
	assert.False(t, a.Listening())
	assert.Empty(t, a.ActiveNotes())
	assert.Nil(t, a.DetectedChord())
}

func TestSwitchModeStopsFirst(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys"}}
	a := New(WithMIDI(m))
	require.NoError(t, a.StartListening(context.Background()))
	m.noteOn(60)

	a.SwitchMode(ModeMicrophone)
	assert.Equal(t, ModeMicrophone, a.Mode())
	assert.False(t, a.Listening())
	assert.Empty(t, a.ActiveNotes())
	assert.Equal(t, 1, m.stops)
}

func TestSelectMIDIInputRebinds(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys", "pads"}}
	a := New(WithMIDI(m))
	require.NoError(t, a.StartListening(context.Background()))
	assert.Equal(t, "keys", m.listening)

	require.NoError(t, a.SelectMIDIInput("pads"))
	assert.Equal(t, "pads", m.listening)
	assert.True(t, a.Listening())
	assert.Equal(t, "pads", a.Snapshot().MIDIInput)

	err := a.SelectMIDIInput("drums")
	assert.Equal(t, ftag.NotFound, ftag.Get(err))
	assert.Equal(t, "pads", m.listening)
}

func TestSetDifficultyRecomputes(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys"}}
	a := New(WithMIDI(m))
	require.NoError(t, a.StartListening(context.Background()))
	// C E G B
	for _, k := range []uint8{60, 64, 67, 71} {
		m.noteOn(k)
	}
	require.NotNil(t, a.DetectedChord())
	assert.Equal(t, "Cmaj7", a.DetectedChord().Chord.Symbol)

	a.SetDifficulty(1)
	require.NotNil(t, a.DetectedChord())
	assert.Equal(t, "C", a.DetectedChord().Chord.Symbol)

	a.SetDifficulty(99)
	assert.Equal(t, 5, a.Snapshot().Difficulty)
}

func TestMatchTargetChord(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys"}}
	a := New(WithMIDI(m))
	require.NoError(t, a.StartListening(context.Background()))
	m.noteOn(60)
	m.noteOn(64)

	res := a.MatchTargetChord("C")
	assert.Equal(t, 67, res.Score)
	assert.Equal(t, []string{"G"}, res.MissingNotes)

	assert.Equal(t, 0, a.MatchTargetChord("Zz9").Score)
}

func TestObserversSeeEveryChange(t *testing.T) {
	m := &fakeMIDI{inputs: []string{"keys"}}
	a := New(WithMIDI(m))
	var seen []Snapshot
	a.Subscribe(func(s Snapshot) { seen = append(seen, s) })

	require.NoError(t, a.StartListening(context.Background()))
	m.noteOn(64)
	m.noteOn(68)
	m.noteOn(71)

	require.Len(t, seen, 4)
	last := seen[3]
	assert.Equal(t, []string{"E4", "G#4", "B4"}, names(last.Notes))
	require.NotNil(t, last.Detected)
	assert.Equal(t, "E", last.Detected.Chord.Symbol)

	// snapshots are copies
	last.Notes[0].Name = "X"
	assert.Equal(t, "E", a.ActiveNotes()[0].Name)
}

func newMicAggregator(c *fakeCapture) (*Aggregator, *ticker.Manual) {
	clock := ticker.NewManual(time.Unix(0, 0))
	a := New(
		WithMode(ModeMicrophone),
		WithMicrophone(&fakeMic{capture: c}),
		WithScheduler(clock),
		WithClock(clock),
	)
	return a, clock
}

func TestMicrophoneAccumulatesWithinWindow(t *testing.T) {
	c := &fakeCapture{samples: sine(261.63)}
	a, clock := newMicAggregator(c)
	require.NoError(t, a.StartListening(context.Background()))
	assert.Equal(t, 1, clock.Active())

	clock.Tick()
	assert.Equal(t, []string{"C4"}, names(a.ActiveNotes()))

	clock.Advance(100 * time.Millisecond)
	c.samples = sine(329.63)
	clock.Tick()
	clock.Advance(100 * time.Millisecond)
	c.samples = sine(392.00)
	clock.Tick()
	assert.Equal(t, []string{"C4", "E4", "G4"}, names(a.ActiveNotes()))
	require.NotNil(t, a.DetectedChord())
	assert.Equal(t, "C", a.DetectedChord().Chord.Symbol)

	// 450ms on, C and E have aged out and G has not
	c.samples = make([]float32, 2048)
	clock.Advance(450 * time.Millisecond)
	clock.Tick()
	assert.Equal(t, []string{"G4"}, names(a.ActiveNotes()))
	assert.Nil(t, a.DetectedChord())

	clock.Advance(200 * time.Millisecond)
	clock.Tick()
	assert.Empty(t, a.ActiveNotes())
}

func TestMicrophoneStopReleasesCapture(t *testing.T) {
	c := &fakeCapture{samples: sine(440)}
	a, clock := newMicAggregator(c)

	for i := 0; i < 3; i++ {
		require.NoError(t, a.StartListening(context.Background()))
		a.StopListening()
	}
	assert.True(t, c.closed)
	assert.Equal(t, 0, clock.Active())

	require.NoError(t, a.StartListening(context.Background()))
	require.NoError(t, a.StartListening(context.Background()))
	assert.Equal(t, 1, clock.Active())
}

func TestMicrophoneDenied(t *testing.T) {
	clock := ticker.NewManual(time.Unix(0, 0))
	a := New(
		WithMode(ModeMicrophone),
		WithMicrophone(&fakeMic{err: errors.New("permission denied by user")}),
		WithScheduler(clock),
	)
	err := a.StartListening(context.Background())
	require.Error(t, err)
	assert.Equal(t, ftag.PermissionDenied, ftag.Get(err))
	assert.Equal(t, "Failed to access microphone", a.ErrorMessage())
	assert.False(t, a.Listening())
	assert.Equal(t, 0, clock.Active())
}
