package midi

import (
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestReadMidiFile(t *testing.T) {
	s := smf.New()
	var tr smf.Track
	tr.Add(0, gomidi.NoteOn(0, 60, 100))
	tr.Add(480, gomidi.NoteOff(0, 60))
	tr.Close(0)
	require.NoError(t, s.Add(tr))

	path := filepath.Join(t.TempDir(), "one.mid")
	require.NoError(t, s.WriteFile(path))

	got, err := ReadMidiFile(path)
	require.NoError(t, err)
	require.Len(t, got.Tracks, 1)

	var ch, key, vel uint8
	assert.True(t, got.Tracks[0][0].Message.GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(60), key)
}

func TestReadMidiFileMissing(t *testing.T) {
	s, err := ReadMidiFile(filepath.Join(t.TempDir(), "nope.mid"))
	assert.Nil(t, s)
	assert.Equal(t, ftag.NotFound, ftag.Get(err))
}

func TestParseMidiRejectsGarbage(t *testing.T) {
	_, err := ParseMidi([]byte("definitely not midi"))
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))
}

func scale(keys ...uint8) *smf.SMF {
	s := smf.New()
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	for _, k := range keys {
		tr.Add(0, gomidi.NoteOn(0, k, 100))
		tr.Add(480, gomidi.NoteOff(0, k))
	}
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		panic(err)
	}
	return s
}

func TestExcerptStartsAtOffset(t *testing.T) {
	s := scale(60, 62, 64, 65)
	ex := Excerpt(s, 960, 0)
	require.Len(t, ex.Tracks, 1)

	tr := ex.Tracks[0]
	// tempo, the note off at the offset, two more notes, end of track
	require.Len(t, tr, 7)
	assert.Equal(t, uint32(0), tr[0].Delta)
	assert.Equal(t, []uint8{62, 64, 64, 65, 65}, s2keys(tr))

	var ch, key, vel uint8
	assert.True(t, tr[2].Message.GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(64), key)
	assert.Equal(t, uint32(0), tr[2].Delta)
	assert.True(t, tr[3].Message.GetNoteOff(&ch, &key, &vel))
	assert.Equal(t, uint32(480), tr[3].Delta)
}

func TestExcerptLimitsNotes(t *testing.T) {
	ex := Excerpt(scale(60, 62, 64, 65), 0, 3)
	tr := ex.Tracks[0]
	require.Len(t, tr, 5)
	assert.True(t, isEndOfTrack(tr[4].Message))
	assert.Equal(t, []uint8{60, 60, 62}, s2keys(tr))
}

func s2keys(tr smf.Track) []uint8 {
	var keys []uint8
	for _, ev := range tr {
		var ch, key, vel uint8
		if ev.Message.GetNoteOn(&ch, &key, &vel) || ev.Message.GetNoteOff(&ch, &key, &vel) {
			keys = append(keys, key)
		}
	}
	return keys
}
