package input

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/jsphweid/chordlab/chord"
	"github.com/jsphweid/chordlab/constants"
	"github.com/jsphweid/chordlab/model"
	"github.com/jsphweid/chordlab/pitch"
	"github.com/jsphweid/chordlab/ticker"
	"github.com/jsphweid/chordlab/util"
)

// UnsupportedPlatform marks errors from a capability the host does not have.
const UnsupportedPlatform ftag.Kind = "UNSUPPORTED_PLATFORM"

type Mode int

const (
	ModeMIDI Mode = iota
	ModeMicrophone
)

func (m Mode) String() string {
	if m == ModeMicrophone {
		return "microphone"
	}
	return "midi"
}

type (
	// MIDIAccess is the platform MIDI capability. Listen delivers raw
	// (status, key, velocity) triples until stop is called.
	MIDIAccess interface {
		Inputs() []string
		Listen(input string, handler func(status, key, velocity uint8)) (stop func(), err error)
	}

	// Microphone opens a capture stream. Open may block while the user is
	// asked for permission.
	Microphone interface {
		Open(ctx context.Context) (Capture, error)
	}

	// Capture is a live, continuously overwritten sample buffer. Read copies
	// the most recent samples into buf and returns how many it wrote.
	Capture interface {
		Read(buf []float32) int
		SampleRate() float64
		Close() error
	}

	// Snapshot is an immutable copy of the aggregator state.
	Snapshot struct {
		Mode       Mode
		Listening  bool
		MIDIInput  string
		Difficulty int
		Notes      []model.Note
		Detected   *model.Detection
		Error      string
	}

	Option func(*Aggregator)
)

// Aggregator merges MIDI or microphone input into one active note set and
// keeps the detected chord in step with it.
type Aggregator struct {
	// ctl serializes start, stop and rebinding; mu guards the state below
	ctl sync.Mutex
	mu  sync.Mutex

	mode       Mode
	listening  bool
	difficulty int
	notes      []model.Note
	history    []model.HeardNote
	detected   *model.Detection
	err        error

	midiAccess MIDIAccess
	midiInput  string
	stopMIDI   func()

	mic     Microphone
	capture Capture
	window  []float32

	library  *chord.Library
	detector *pitch.Detector
	sched    ticker.Scheduler
	clock    ticker.Clock
	loop     ticker.Slot
	interval time.Duration
	keep     time.Duration

	observers []func(Snapshot)
	log       *slog.Logger
}

func WithMIDI(access MIDIAccess) Option {
	return func(a *Aggregator) { a.midiAccess = access }
}

func WithMicrophone(mic Microphone) Option {
	return func(a *Aggregator) { a.mic = mic }
}

func WithScheduler(s ticker.Scheduler) Option {
	return func(a *Aggregator) { a.sched = s }
}

func WithClock(c ticker.Clock) Option {
	return func(a *Aggregator) { a.clock = c }
}

func WithDetector(d *pitch.Detector) Option {
	return func(a *Aggregator) { a.detector = d }
}

func WithLibrary(l *chord.Library) Option {
	return func(a *Aggregator) { a.library = l }
}

// WithHistoryWindow sets how long a heard pitch stays in the active set.
func WithHistoryWindow(d time.Duration) Option {
	return func(a *Aggregator) { a.keep = d }
}

func WithFrameInterval(d time.Duration) Option {
	return func(a *Aggregator) { a.interval = d }
}

func WithWindowSize(n int) Option {
	return func(a *Aggregator) { a.window = make([]float32, n) }
}

func WithMode(m Mode) Option {
	return func(a *Aggregator) { a.mode = m }
}

func WithDifficulty(level int) Option {
	return func(a *Aggregator) { a.difficulty = clampDifficulty(level) }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		difficulty: constants.DefaultDifficulty,
		library:    chord.Default(),
		detector:   pitch.NewDetector(),
		sched:      ticker.Real{},
		clock:      ticker.SystemClock{},
		interval:   constants.FrameInterval,
		keep:       constants.NoteHistoryWindow,
		window:     make([]float32, constants.WindowSize),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func clampDifficulty(level int) int {
	return util.Clamp(level, constants.MinDifficulty, constants.MaxDifficulty)
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on whichever goroutine made the change and must not block.
func (a *Aggregator) Subscribe(fn func(Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// StartListening starts the current mode. Failures are returned and also
// kept as the aggregator error; listening does not start. Calling it while
// already listening does nothing.
func (a *Aggregator) StartListening(ctx context.Context) error {
	a.ctl.Lock()
	defer a.ctl.Unlock()

	a.mu.Lock()
	if a.listening {
		a.mu.Unlock()
		return nil
	}
	a.err = nil
	mode := a.mode
	a.mu.Unlock()

	var err error
	switch mode {
	case ModeMIDI:
		err = a.startMIDI()
	case ModeMicrophone:
		err = a.startMicrophone(ctx)
	}

	a.mu.Lock()
	if err != nil {
		a.err = err
		a.log.Warn("listening failed", "mode", mode, "error", err)
	} else {
		a.listening = true
		a.log.Debug("listening", "mode", mode)
	}
	a.publishLocked()
	return err
}

func (a *Aggregator) startMIDI() error {
	if a.midiAccess == nil {
		return fault.New("no midi access",
			ftag.With(UnsupportedPlatform),
			fmsg.WithDesc("midi unavailable", "MIDI input is not supported on this platform"))
	}
	a.mu.Lock()
	input := a.midiInput
	a.mu.Unlock()
	if input == "" {
		inputs := a.midiAccess.Inputs()
		if len(inputs) == 0 {
			return fault.New("no midi inputs",
				ftag.With(ftag.NotFound),
				fmsg.WithDesc("no midi input", "No MIDI input device selected"))
		}
		input = inputs[0]
	}
	stop, err := a.midiAccess.Listen(input, a.handleMIDI)
	if err != nil && ftag.Get(err) == ftag.NotFound {
		return fault.Wrap(err, fmsg.With("listen to midi input"))
	}
	if err != nil {
		return fault.Wrap(err,
			ftag.With(kindOr(err, ftag.PermissionDenied)),
			fmsg.WithDesc("listen to midi input", "MIDI access denied"))
	}
	a.mu.Lock()
	a.midiInput = input
	a.stopMIDI = stop
	a.mu.Unlock()
	return nil
}

func (a *Aggregator) startMicrophone(ctx context.Context) error {
	if a.mic == nil {
		return fault.New("no microphone",
			ftag.With(UnsupportedPlatform),
			fmsg.WithDesc("microphone unavailable", "Microphone capture is not supported on this platform"))
	}
	capture, err := a.mic.Open(ctx)
	if err != nil {
		return fault.Wrap(err,
			ftag.With(kindOr(err, ftag.PermissionDenied)),
			fmsg.WithDesc("open microphone", "Failed to access microphone"))
	}
	a.mu.Lock()
	a.capture = capture
	a.history = nil
	a.mu.Unlock()
	a.loop.Start(a.sched, a.interval, a.frame)
	return nil
}

// kindOr keeps an UnsupportedPlatform tag set by the platform layer and
// otherwise uses fallback.
func kindOr(err error, fallback ftag.Kind) ftag.Kind {
	if ftag.Get(err) == UnsupportedPlatform {
		return UnsupportedPlatform
	}
	return fallback
}

// StopListening releases the MIDI subscription or microphone stream before
// returning and clears notes, detection and error. It is safe in any state.
func (a *Aggregator) StopListening() {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	a.stopLocked()
}

func (a *Aggregator) stopLocked() {
	a.loop.Stop()

	a.mu.Lock()
	stopMIDI := a.stopMIDI
	capture := a.capture
	a.stopMIDI = nil
	a.capture = nil
	a.listening = false
	a.mu.Unlock()

	if stopMIDI != nil {
		stopMIDI()
	}
	if capture != nil {
		if err := capture.Close(); err != nil {
			a.log.Warn("closing microphone", "error", err)
		}
	}

	// sources are released, so nothing can refill the set after this
	a.mu.Lock()
	a.notes = nil
	a.history = nil
	a.detected = nil
	a.err = nil
	a.publishLocked()
}

// SwitchMode stops any active listening and selects the other input. It
// does not start listening in the new mode.
func (a *Aggregator) SwitchMode(m Mode) {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	a.stopLocked()

	a.mu.Lock()
	a.mode = m
	a.publishLocked()
}

// SelectMIDIInput picks the MIDI device to listen to. If MIDI is already
// being listened to, the subscription moves to the new device.
func (a *Aggregator) SelectMIDIInput(name string) error {
	a.ctl.Lock()
	defer a.ctl.Unlock()

	if a.midiAccess == nil {
		return fault.New("no midi access",
			ftag.With(UnsupportedPlatform),
			fmsg.WithDesc("midi unavailable", "MIDI input is not supported on this platform"))
	}
	found := false
	for _, in := range a.midiAccess.Inputs() {
		if in == name {
			found = true
			break
		}
	}
	if !found {
		return fault.New("unknown midi input "+name,
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("unknown midi input", "MIDI input "+name+" was not found"))
	}

	a.mu.Lock()
	rebind := a.listening && a.mode == ModeMIDI
	a.midiInput = name
	a.mu.Unlock()
	if !rebind {
		return nil
	}

	a.stopLocked()
	a.mu.Lock()
	a.midiInput = name
	a.mu.Unlock()
	err := a.startMIDI()

	a.mu.Lock()
	if err != nil {
		a.err = err
	} else {
		a.listening = true
	}
	a.publishLocked()
	return err
}

func (a *Aggregator) SetDifficulty(level int) {
	a.mu.Lock()
	a.difficulty = clampDifficulty(level)
	a.detectLocked()
	a.publishLocked()
}

func (a *Aggregator) ClearNotes() {
	a.mu.Lock()
	a.notes = nil
	a.history = nil
	a.detectLocked()
	a.publishLocked()
}

// handleMIDI applies one raw MIDI message. A note-on with velocity 0 is a
// note-off. Notes are tracked by pitch class, so releasing any octave of a
// pitch class removes it.
func (a *Aggregator) handleMIDI(status, key, velocity uint8) {
	note := model.NoteFromMIDI(key)
	a.mu.Lock()
	if !a.listening {
		a.mu.Unlock()
		return
	}
	switch command := status >> 4; {
	case command == 0x9 && velocity > 0:
		if a.indexLocked(note) >= 0 {
			a.mu.Unlock()
			return
		}
		a.notes = append(a.notes, note)
	case command == 0x8 || command == 0x9:
		i := a.indexLocked(note)
		if i < 0 {
			a.mu.Unlock()
			return
		}
		a.notes = append(a.notes[:i:i], a.notes[i+1:]...)
	default:
		a.mu.Unlock()
		return
	}
	a.detectLocked()
	a.publishLocked()
}

func (a *Aggregator) indexLocked(note model.Note) int {
	for i, n := range a.notes {
		if n.SamePitchClass(note) {
			return i
		}
	}
	return -1
}

// frame runs one pitch detection against the microphone and rebuilds the
// active set from the pitches heard within the history window.
func (a *Aggregator) frame() {
	a.mu.Lock()
	if a.capture == nil {
		a.mu.Unlock()
		return
	}
	now := a.clock.Now()
	if n := a.capture.Read(a.window); n > 0 {
		if r, ok := a.detector.Detect(a.window[:n], a.capture.SampleRate()); ok {
			a.history = append(a.history, model.HeardNote{Note: r.Note, At: now})
			a.log.Debug("heard", "note", r.Note.String(), "freq", r.Frequency, "cents", r.Note.Cents)
		}
	}

	kept := a.history[:0]
	for _, h := range a.history {
		if now.Sub(h.At) < a.keep {
			kept = append(kept, h)
		}
	}
	a.history = kept

	heard := make([]model.Note, 0, len(kept))
	for _, h := range kept {
		heard = append(heard, h.Note)
	}
	next := util.Dedup(heard, func(n model.Note) string { return n.Name })
	if sameNames(a.notes, next) {
		a.mu.Unlock()
		return
	}
	a.notes = next
	a.detectLocked()
	a.publishLocked()
}

func sameNames(a, b []model.Note) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].String() != b[i].String() {
			return false
		}
	}
	return true
}

func (a *Aggregator) detectLocked() {
	if len(a.notes) < 2 {
		a.detected = nil
		return
	}
	a.detected = a.library.DetectChord(model.NoteNames(a.notes), a.difficulty)
}

// publishLocked must be called with mu held; it releases mu before calling
// the observers.
func (a *Aggregator) publishLocked() {
	snap := a.snapshotLocked()
	observers := a.observers
	a.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

func (a *Aggregator) snapshotLocked() Snapshot {
	s := Snapshot{
		Mode:       a.mode,
		Listening:  a.listening,
		MIDIInput:  a.midiInput,
		Difficulty: a.difficulty,
		Notes:      append([]model.Note(nil), a.notes...),
		Error:      issue(a.err),
	}
	if a.detected != nil {
		d := *a.detected
		s.Detected = &d
	}
	return s
}

func issue(err error) string {
	if err == nil {
		return ""
	}
	if msg := fmsg.GetIssue(err); msg != "" {
		return msg
	}
	return err.Error()
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator) ActiveNotes() []model.Note {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.Note(nil), a.notes...)
}

// DetectedChord is nil with fewer than two active notes or no match.
func (a *Aggregator) DetectedChord() *model.Detection {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detected == nil {
		return nil
	}
	d := *a.detected
	return &d
}

// MatchTargetChord scores the active notes against symbol.
func (a *Aggregator) MatchTargetChord(symbol string) model.ChordMatchResult {
	notes := a.ActiveNotes()
	return a.library.MatchChord(model.NoteNames(notes), symbol)
}

func (a *Aggregator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// ErrorMessage is the user-facing text of the last error, or "".
func (a *Aggregator) ErrorMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return issue(a.err)
}

func (a *Aggregator) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

func (a *Aggregator) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}
