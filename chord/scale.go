package chord

import "github.com/jsphweid/chordlab/model"

type Scale struct {
	Name      string
	Intervals []int
}

var Scales = map[string]Scale{
	"major":           {Name: "Major", Intervals: []int{0, 2, 4, 5, 7, 9, 11}},
	"minor":           {Name: "Natural Minor", Intervals: []int{0, 2, 3, 5, 7, 8, 10}},
	"harmonicMinor":   {Name: "Harmonic Minor", Intervals: []int{0, 2, 3, 5, 7, 8, 11}},
	"melodicMinor":    {Name: "Melodic Minor", Intervals: []int{0, 2, 3, 5, 7, 9, 11}},
	"pentatonicMajor": {Name: "Pentatonic Major", Intervals: []int{0, 2, 4, 7, 9}},
	"pentatonicMinor": {Name: "Pentatonic Minor", Intervals: []int{0, 3, 5, 7, 10}},
	"blues":           {Name: "Blues", Intervals: []int{0, 3, 5, 6, 7, 10}},
	"dorian":          {Name: "Dorian", Intervals: []int{0, 2, 3, 5, 7, 9, 10}},
	"mixolydian":      {Name: "Mixolydian", Intervals: []int{0, 2, 4, 5, 7, 9, 10}},
}

// ScaleNotes returns the pitch classes of a scale, or nil if the root or
// scale is unknown.
func ScaleNotes(root, scale string) []string {
	r, ok := semitone(root)
	if !ok {
		return nil
	}
	s, ok := Scales[scale]
	if !ok {
		return nil
	}
	return namesFromFormula(r, s.Intervals)
}

func InScale(note, root, scale string) bool {
	name, ok := NormalizeNote(note)
	if !ok {
		return false
	}
	for _, n := range ScaleNotes(root, scale) {
		if n == name {
			return true
		}
	}
	return false
}

// NoteName returns the pitch class of a MIDI key with its octave, e.g. "C4".
func NoteName(key uint8) string {
	return model.NoteFromMIDI(key).String()
}
