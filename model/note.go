package model

import "fmt"

// PitchClasses lists the 12 canonical pitch class names, sharps only, C = 0.
var PitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is a pitch class plus octave. Cents is the deviation from the nearest
// semitone, in [-50, 50]; zero for notes that did not come from a frequency.
type Note struct {
	Name   string `json:"name"`
	Octave int    `json:"octave"`
	Cents  int    `json:"cents"`
}

// NoteFromMIDI converts a MIDI note number to a Note (60 = C4).
func NoteFromMIDI(key uint8) Note {
	return Note{
		Name:   PitchClasses[key%12],
		Octave: int(key)/12 - 1,
	}
}

// String returns the full name, e.g. "C#4".
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// SamePitchClass compares two notes ignoring octave and cents.
func (n Note) SamePitchClass(o Note) bool {
	return n.Name == o.Name
}

type Notes = []uint8

// NoteNames returns the full names of the notes, in order.
func NoteNames(notes []Note) []string {
	res := make([]string, 0, len(notes))
	for _, n := range notes {
		res = append(res, n.String())
	}
	return res
}
