package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/jsphweid/chordlab/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeThenDecode(t *testing.T) {
	in := &model.Buffer{
		SampleRate: 8000,
		Channels: [][]float32{
			{0, 0.5, -0.5, 1, 2},
			{0.25, -0.25, 0, -1, -2},
		},
	}
	path := filepath.Join(t.TempDir(), "two.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeWAV(f, in))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out, err := WAV{}.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, 8000, out.SampleRate)
	require.Len(t, out.Channels, 2)
	// out-of-range samples were clipped on the way in
	assert.InDeltaSlice(t, []float32{0, 0.5, -0.5, 1, 1}, out.Channels[0], 1e-3)
	assert.InDeltaSlice(t, []float32{0.25, -0.25, 0, -1, -1}, out.Channels[1], 1e-3)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := WAV{}.Decode([]byte("RIFF but not really a wave file"))
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))
}
