package codec

import (
	"bytes"
	"io"
	"math"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jsphweid/chordlab/model"
	"github.com/jsphweid/chordlab/util"
)

// WAV decodes PCM wave files into float samples in [-1, 1].
type WAV struct{}

func (WAV) Decode(data []byte) (*model.Buffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fault.New("not a wav file",
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("invalid wav header", "Unsupported or corrupt audio file"))
	}
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("read pcm", "Unsupported or corrupt audio file"))
	}
	channels := pcm.Format.NumChannels
	if channels <= 0 {
		return nil, fault.New("wav has no channels", ftag.With(ftag.InvalidArgument))
	}

	depth := int(d.BitDepth)
	scale := float32(math.Pow(2, float64(depth-1)))
	frames := len(pcm.Data) / channels
	buf := &model.Buffer{SampleRate: pcm.Format.SampleRate, Channels: make([][]float32, channels)}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames*channels; i++ {
		v := float32(pcm.Data[i])
		if depth == 8 {
			// 8 bit wav is unsigned
			v -= 128
		}
		buf.Channels[i%channels][i/channels] = v / scale
	}
	return buf, nil
}

// EncodeWAV writes buf as 16 bit PCM. Samples outside [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, buf *model.Buffer) error {
	const depth = 16
	channels := len(buf.Channels)
	frames := buf.Frames()
	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: buf.SampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: depth,
	}
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			v := util.Clamp(buf.Channels[c][f], -1, 1)
			pcm.Data[f*channels+c] = int(math.Round(float64(v) * math.MaxInt16))
		}
	}

	enc := wav.NewEncoder(w, buf.SampleRate, depth, channels, 1)
	if err := enc.Write(pcm); err != nil {
		return fault.Wrap(err, fmsg.With("write wav samples"))
	}
	if err := enc.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("finish wav file"))
	}
	return nil
}
