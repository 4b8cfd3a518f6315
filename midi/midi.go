package midi

import (
	"bytes"
	"fmt"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadMidiFile reads and parses a standard MIDI file.
func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s = nil
			e = fault.New(fmt.Sprint(r),
				ftag.With(ftag.InvalidArgument),
				fmsg.WithDesc("parse midi file", "Could not parse "+filepath))
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.NotFound),
			fmsg.WithDesc("read midi file", "Could not read "+filepath))
	}
	return ParseMidi(dat)
}

// ParseMidi parses standard MIDI file bytes.
func ParseMidi(dat []byte) (*smf.SMF, error) {
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("parse midi file", "Not a valid MIDI file"))
	}
	return res, nil
}
