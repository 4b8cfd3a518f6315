package device

import (
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/ebitengine/oto/v3"
)

// Output plays a stereo float32 stream on the default audio device.
type Output struct {
	ctx    *oto.Context
	player *oto.Player
}

// OpenOutput starts pulling interleaved little-endian float32 stereo from
// src at sampleRate. Only one oto context may exist per process.
func OpenOutput(src io.Reader, sampleRate int) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("cannot create oto context", "Audio output is not available"))
	}
	<-ready
	player := ctx.NewPlayer(src)
	player.Play()
	return &Output{ctx: ctx, player: player}, nil
}

func (o *Output) Close() error {
	if err := o.player.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("cannot close oto player"))
	}
	return nil
}
