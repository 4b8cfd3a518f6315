package engine

import (
	"github.com/jsphweid/chordlab/model"
	"github.com/viterin/vek/vek32"
)

// Waveform reduces the first channel of buf to buckets mean magnitudes,
// scaled so the loudest bucket is 1. Trailing samples that do not fill a
// whole bucket are ignored.
func Waveform(buf *model.Buffer, buckets int) []float32 {
	if buckets <= 0 {
		return nil
	}
	out := make([]float32, buckets)
	if buf.Frames() == 0 {
		return out
	}
	data := buf.Channels[0]
	block := len(data) / buckets
	if block == 0 {
		block = 1
	}
	magnitudes := vek32.Abs(data)
	for i := range out {
		start := i * block
		if start+block > len(magnitudes) {
			break
		}
		out[i] = vek32.Mean(magnitudes[start : start+block])
	}
	if peak := vek32.Max(out); peak > 0 {
		vek32.DivNumber_Inplace(out, peak)
	}
	return out
}
