package pitch

import (
	"math"

	"github.com/jsphweid/chordlab/constants"
	"github.com/jsphweid/chordlab/model"
	"github.com/viterin/vek/vek32"
)

type (
	// Range is the band of frequencies accepted as reliable, in Hz.
	Range struct {
		Min, Max float64
	}

	// Detector estimates the fundamental frequency of a window of samples by
	// autocorrelation. It keeps a scratch buffer between calls, so a Detector
	// must not be shared between goroutines.
	Detector struct {
		SilenceThreshold float32
		ClipThreshold    float32
		Range            Range

		corr []float32
	}

	// Reading is one accepted detection.
	Reading struct {
		Frequency  float64
		MIDI       int
		Note       model.Note
		Confidence float64
	}
)

var DefaultRange = Range{Min: constants.MinFrequency, Max: constants.MaxFrequency}

func (r Range) Contains(freq float64) bool {
	return freq >= r.Min && freq <= r.Max
}

func NewDetector() *Detector {
	return &Detector{
		SilenceThreshold: constants.SilenceThreshold,
		ClipThreshold:    constants.ClipThreshold,
		Range:            DefaultRange,
	}
}

// Frequency returns the estimated fundamental of buf, or ok == false when the
// buffer is silent or has no usable period.
func (d *Detector) Frequency(buf []float32, sampleRate float64) (freq float64, ok bool) {
	if len(buf) < 3 || sampleRate <= 0 {
		return 0, false
	}
	rms := math.Sqrt(float64(vek32.Dot(buf, buf)) / float64(len(buf)))
	if rms < float64(d.SilenceThreshold) {
		return 0, false
	}

	buf = d.trim(buf)
	n := len(buf)
	if n < 3 {
		return 0, false
	}

	if cap(d.corr) < n {
		d.corr = make([]float32, n)
	}
	c := d.corr[:n]
	for lag := 0; lag < n; lag++ {
		c[lag] = vek32.Dot(buf[:n-lag], buf[lag:])
	}

	// lag 0 always correlates best; skip the slope down to the first dip
	dip := 0
	for dip < n-1 && c[dip] > c[dip+1] {
		dip++
	}
	if dip >= n-1 {
		return 0, false
	}

	maxPos := dip
	for i := dip; i < n; i++ {
		if c[i] > c[maxPos] {
			maxPos = i
		}
	}
	if maxPos == 0 {
		return 0, false
	}

	period := float64(maxPos)
	if maxPos < n-1 {
		x1, x2, x3 := float64(c[maxPos-1]), float64(c[maxPos]), float64(c[maxPos+1])
		a := (x1 + x3 - 2*x2) / 2
		b := (x3 - x1) / 2
		if a != 0 {
			period -= b / (2 * a)
		}
	}
	if period <= 0 {
		return 0, false
	}
	return sampleRate / period, true
}

// trim cuts buf down to the span between the first and last samples louder
// than the clip threshold. A buffer with no such sample is left whole.
func (d *Detector) trim(buf []float32) []float32 {
	first, last := -1, -1
	for i, v := range buf {
		if math.Abs(float64(v)) > float64(d.ClipThreshold) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return buf
	}
	return buf[first : last+1]
}

// Detect runs Frequency and converts an in-range result to a note.
func (d *Detector) Detect(buf []float32, sampleRate float64) (Reading, bool) {
	freq, ok := d.Frequency(buf, sampleRate)
	if !ok || !d.Range.Contains(freq) {
		return Reading{}, false
	}
	note, midi := FreqToNote(freq)
	confidence := 0.5
	if note.Cents > -20 && note.Cents < 20 {
		confidence = 1
	}
	return Reading{Frequency: freq, MIDI: midi, Note: note, Confidence: confidence}, true
}

// FreqToNote maps a frequency to the nearest equal-tempered note (A4 = 440 Hz)
// and returns it with its MIDI number.
func FreqToNote(freq float64) (model.Note, int) {
	midi := 12*math.Log2(freq/440) + 69
	rounded := math.Round(midi)
	key := int(rounded)
	index := ((key % 12) + 12) % 12
	return model.Note{
		Name:   model.PitchClasses[index],
		Octave: int(math.Floor(rounded/12)) - 1,
		Cents:  int(math.Round((midi - rounded) * 100)),
	}, key
}
