package engine

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/google/uuid"
	"github.com/jsphweid/chordlab/constants"
	"github.com/jsphweid/chordlab/mixer"
	"github.com/jsphweid/chordlab/model"
	"github.com/jsphweid/chordlab/ticker"
	"github.com/jsphweid/chordlab/util"
)

// DecodeFailure marks a track whose bytes could not be decoded.
const DecodeFailure ftag.Kind = "DECODE_FAILURE"

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrTrackNotReady = errors.New("no track is ready to play")
)

// Decoder turns file bytes into samples.
type Decoder interface {
	Decode(data []byte) (*model.Buffer, error)
}

type track struct {
	info     model.TrackInfo
	buf      *model.Buffer
	ch       mixer.Channel
	src      mixer.Source
	env      Envelope
	waveform []float32
}

func (t *track) playable() bool {
	return t.info.State == model.TrackReady || t.info.State == model.TrackPlaying
}

type Option func(*Engine)

// Engine plays a set of tracks in sync through one graph. All public
// methods are safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	graph   mixer.Graph
	decoder Decoder
	sched   ticker.Scheduler
	loop    ticker.Slot

	interval time.Duration
	buckets  int
	volume   float64

	tracks   []*track
	playing  bool
	position float64
	anchor   float64

	observers []func(model.TransportState)
	log       *slog.Logger
}

func WithScheduler(s ticker.Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

func WithFrameInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

func WithWaveformBuckets(n int) Option {
	return func(e *Engine) { e.buckets = n }
}

// WithDefaultVolume sets the gain new tracks start with.
func WithDefaultVolume(v float64) Option {
	return func(e *Engine) { e.volume = util.Clamp(v, 0, 1) }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(graph mixer.Graph, decoder Decoder, opts ...Option) *Engine {
	e := &Engine{
		graph:    graph,
		decoder:  decoder,
		sched:    ticker.Real{},
		interval: constants.FrameInterval,
		buckets:  constants.WaveformBuckets,
		volume:   constants.DefaultVolume,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnTime registers fn to receive the transport on every time-loop frame and
// whenever playback stops. fn must not call back into the engine.
func (e *Engine) OnTime(fn func(model.TransportState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// LoadTrack decodes data into a new track. A track that fails to decode is
// kept in the LoadFailed state and the returned error is tagged
// DecodeFailure; it is never played.
func (e *Engine) LoadTrack(name string, data []byte) (model.TrackInfo, error) {
	t := &track{
		info: model.TrackInfo{
			ID:          uuid.NewString(),
			DisplayName: name,
			State:       model.TrackDecoding,
			GainLevel:   e.volume,
		},
		ch: e.graph.NewChannel(),
	}
	t.ch.Gain().SetValue(t.info.GainLevel)

	e.mu.Lock()
	e.tracks = append(e.tracks, t)
	e.mu.Unlock()

	buf, err := e.decoder.Decode(data)
	if err == nil && buf.Frames() == 0 {
		err = errors.New("no audio frames")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		t.info.State = model.TrackLoadFailed
		e.log.Warn("track failed to decode", "track", name, "error", err)
		return t.info, fault.Wrap(err,
			ftag.With(DecodeFailure),
			fmsg.WithDesc("decode "+name, "Could not decode "+name))
	}
	t.buf = buf
	t.info.State = model.TrackReady
	t.info.Duration = buf.Duration()
	t.waveform = Waveform(buf, e.buckets)
	e.log.Debug("track loaded", "track", name, "id", t.info.ID, "duration", t.info.Duration)
	return t.info, nil
}

// RemoveTrack stops and forgets a track.
func (e *Engine) RemoveTrack(id string) error {
	e.mu.Lock()
	t, err := e.findLocked(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	i := e.indexLocked(id)
	if t.src != nil {
		t.src.Stop()
		t.src = nil
	}
	e.tracks = append(e.tracks[:i:i], e.tracks[i+1:]...)

	duration := e.durationLocked()
	if e.playing && duration == 0 {
		e.stopLocked()
		return nil
	}
	e.position = util.Min(e.position, duration)
	e.mu.Unlock()
	return nil
}

func (e *Engine) indexLocked(id string) int {
	for i, t := range e.tracks {
		if t.info.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) findLocked(id string) (*track, error) {
	if i := e.indexLocked(id); i >= 0 {
		return e.tracks[i], nil
	}
	return nil, fault.Wrap(ErrTrackNotFound,
		ftag.With(ftag.NotFound),
		fmsg.WithDesc("track "+id, "Track not found"))
}

// durationLocked is the length of the longest playable track.
func (e *Engine) durationLocked() float64 {
	d := 0.0
	for _, t := range e.tracks {
		if t.playable() {
			d = util.Max(d, t.info.Duration)
		}
	}
	return d
}

func (e *Engine) soloActiveLocked() bool {
	for _, t := range e.tracks {
		if t.info.IsSoloed {
			return true
		}
	}
	return false
}

func audible(t *track, soloActive bool) bool {
	if soloActive {
		return t.info.IsSoloed
	}
	return !t.info.IsMuted
}

// Play starts every playable track from the current position at one shared
// graph time. Playing past the end starts again from zero. Calling Play
// while playing does nothing.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		return nil
	}
	return e.playLocked()
}

func (e *Engine) playLocked() error {
	duration := e.durationLocked()
	if duration == 0 {
		return ErrTrackNotReady
	}
	if e.position >= duration {
		e.position = 0
	}

	when := e.graph.Now()
	soloActive := e.soloActiveLocked()
	for _, t := range e.tracks {
		if !t.playable() {
			continue
		}
		if t.src != nil {
			t.src.Stop()
			t.src = nil
		}
		remaining := t.info.Duration - e.position
		if remaining <= 0 {
			continue
		}

		t.env = FadeEnvelope(when, remaining, t.info.GainLevel, t.info.FadeInSeconds, t.info.FadeOutSeconds)
		if audible(t, soloActive) {
			t.env.Apply(t.ch.Gain())
		} else {
			t.ch.Gain().SetValue(0)
		}
		t.ch.Pan().SetValue(t.info.PanPosition)

		src := e.graph.NewSource(t.buf, t.ch)
		if err := src.Start(when, e.position); err != nil {
			e.log.Error("starting source", "track", t.info.DisplayName, "error", err)
			continue
		}
		t.src = src
		t.info.State = model.TrackPlaying
	}

	e.anchor = when - e.position
	e.playing = true
	e.loop.Start(e.sched, e.interval, e.tick)
	e.log.Debug("playing", "from", e.position, "at", when)
	return nil
}

// Stop tears down every scheduled source and keeps the position. It is
// safe to call in any state.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopLocked()
}

// Pause is Stop: the position is kept either way.
func (e *Engine) Pause() {
	e.Stop()
}

// stopLocked releases mu before notifying observers.
func (e *Engine) stopLocked() {
	e.teardownLocked()
	e.notifyLocked()
}

// notifyLocked releases mu and sends the transport to the observers.
func (e *Engine) notifyLocked() {
	state := e.transportLocked()
	observers := e.observers
	e.mu.Unlock()
	for _, fn := range observers {
		fn(state)
	}
}

func (e *Engine) teardownLocked() {
	e.loop.Stop()
	if e.playing {
		e.position = util.Clamp(e.graph.Now()-e.anchor, 0, e.durationLocked())
	}
	for _, t := range e.tracks {
		if t.src != nil {
			t.src.Stop()
			t.src = nil
		}
		if t.info.State == model.TrackPlaying {
			t.info.State = model.TrackReady
		}
	}
	e.playing = false
}

// Seek moves the position, clamped to the transport. While playing, the
// old sources are all stopped before the new ones are started.
func (e *Engine) Seek(seconds float64) error {
	e.mu.Lock()
	duration := e.durationLocked()
	target := util.Clamp(seconds, 0, duration)
	if !e.playing {
		e.position = target
		e.mu.Unlock()
		return nil
	}
	if target >= duration {
		e.teardownLocked()
		e.position = duration
		e.notifyLocked()
		return nil
	}
	defer e.mu.Unlock()
	e.teardownLocked()
	e.position = target
	return e.playLocked()
}

// tick is the time loop: it publishes the position and stops the
// transport at the end.
func (e *Engine) tick() {
	e.mu.Lock()
	if !e.playing {
		e.mu.Unlock()
		return
	}
	duration := e.durationLocked()
	elapsed := util.Clamp(e.graph.Now()-e.anchor, 0, duration)
	if elapsed >= duration {
		e.log.Debug("reached end", "duration", duration)
		e.stopLocked()
		return
	}
	e.notifyLocked()
}

func (e *Engine) transportLocked() model.TransportState {
	state := model.TransportState{
		IsPlaying:          e.playing,
		CurrentTimeSeconds: e.position,
		DurationSeconds:    e.durationLocked(),
		AnchorTime:         e.anchor,
	}
	if e.playing {
		state.CurrentTimeSeconds = util.Clamp(e.graph.Now()-e.anchor, 0, state.DurationSeconds)
	}
	return state
}

func (e *Engine) Transport() model.TransportState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transportLocked()
}

// applyAudibilityLocked re-derives solo precedence and sets every track's
// live gain.
func (e *Engine) applyAudibilityLocked() {
	soloActive := e.soloActiveLocked()
	for _, t := range e.tracks {
		if audible(t, soloActive) {
			e.setGainLocked(t, t.info.GainLevel)
		} else {
			e.setGainLocked(t, 0)
		}
	}
}

// setGainLocked sets a track's gain from now on. While the track is
// playing, the rest of its fade-out is kept, scaled to v.
func (e *Engine) setGainLocked(t *track, v float64) {
	g := t.ch.Gain()
	if t.src == nil {
		g.SetValue(v)
		return
	}
	now := e.graph.Now()
	g.CancelScheduledValues(now)
	env := t.env
	if v == 0 || !env.FadeOut || now >= env.End {
		g.SetValueAtTime(v, now)
		return
	}
	if now < env.FadeOutStart {
		g.SetValueAtTime(v, now)
		g.SetValueAtTime(v, env.FadeOutStart)
	} else {
		g.SetValueAtTime(v*(env.End-now)/(env.End-env.FadeOutStart), now)
	}
	g.LinearRampToValueAtTime(0, env.End)
}

func (e *Engine) SetVolume(id string, volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.findLocked(id)
	if err != nil {
		return err
	}
	t.info.GainLevel = util.Clamp(volume, 0, 1)
	if audible(t, e.soloActiveLocked()) {
		e.setGainLocked(t, t.info.GainLevel)
	}
	return nil
}

// SetPan takes -1 (left) to 1 (right).
func (e *Engine) SetPan(id string, pan float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.findLocked(id)
	if err != nil {
		return err
	}
	t.info.PanPosition = util.Clamp(pan, -1, 1)
	t.ch.Pan().SetValue(t.info.PanPosition)
	return nil
}

// SetFadeIn affects the next Play.
func (e *Engine) SetFadeIn(id string, seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.findLocked(id)
	if err != nil {
		return err
	}
	t.info.FadeInSeconds = util.Max(0, seconds)
	return nil
}

// SetFadeOut affects the next Play.
func (e *Engine) SetFadeOut(id string, seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.findLocked(id)
	if err != nil {
		return err
	}
	t.info.FadeOutSeconds = util.Max(0, seconds)
	return nil
}

// ToggleMute returns the new mute state.
func (e *Engine) ToggleMute(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.findLocked(id)
	if err != nil {
		return false, err
	}
	t.info.IsMuted = !t.info.IsMuted
	e.applyAudibilityLocked()
	return t.info.IsMuted, nil
}

// ToggleSolo returns the new solo state.
func (e *Engine) ToggleSolo(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.findLocked(id)
	if err != nil {
		return false, err
	}
	t.info.IsSoloed = !t.info.IsSoloed
	e.applyAudibilityLocked()
	return t.info.IsSoloed, nil
}

func (e *Engine) Tracks() []model.TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make([]model.TrackInfo, 0, len(e.tracks))
	for _, t := range e.tracks {
		res = append(res, t.info)
	}
	return res
}

func (e *Engine) Track(id string) (model.TrackInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.findLocked(id)
	if err != nil {
		return model.TrackInfo{}, err
	}
	return t.info, nil
}

// Waveform returns the display buckets computed when the track loaded.
func (e *Engine) Waveform(id string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.findLocked(id)
	if err != nil {
		return nil, err
	}
	return append([]float32(nil), t.waveform...), nil
}

// Close stops playback. The engine can still be used afterwards.
func (e *Engine) Close() error {
	e.Stop()
	return nil
}
