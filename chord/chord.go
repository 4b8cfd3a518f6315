package chord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jsphweid/chordlab/model"
	"gitlab.com/gomidi/midi/v2/smf"
)

// PitchClassKey returns a stable key for a set of note strings, ignoring
// octaves and spelling: ["E4", "C5", "Bb2"] and ["C", "E", "A#"] share a key.
func PitchClassKey(notes []string) string {
	names := normalizeAll(notes)
	sort.Slice(names, func(i, j int) bool {
		return noteToSemitone[names[i]] < noteToSemitone[names[j]]
	})
	return strings.Join(names, "-")
}

// Collapse drops every chord with the same pitch classes as the chord kept
// before it. With onsetsOnly, chords left behind by a note off are dropped
// first, so only struck chords remain.
func Collapse(chords []model.Chord, onsetsOnly bool) []model.Chord {
	var res []model.Chord
	last := ""
	for _, c := range chords {
		if onsetsOnly && !c.FormedByNoteOn {
			continue
		}
		key := PitchClassKey(NoteNames(c.Notes))
		if key == last {
			continue
		}
		last = key
		res = append(res, c)
	}
	return res
}

// NoteNames converts MIDI keys to note names such as "C4".
func NoteNames(keys []uint8) []string {
	res := make([]string, len(keys))
	for i, k := range keys {
		res[i] = NoteName(k)
	}
	return res
}

type reducedEvent struct {
	offset    int64
	isNoteOff bool
	note      uint8
}

func getChord(pressed map[uint8]int64, offset int64, formedByNoteOn bool) model.Chord {
	c := model.Chord{Offset: offset, FormedByNoteOn: formedByNoteOn}
	for note := range pressed {
		c.Notes = append(c.Notes, note)
	}
	sort.Slice(c.Notes, func(i, j int) bool {
		return c.Notes[i] < c.Notes[j]
	})
	return c
}

// GetChords returns the sounding note sets of a MIDI file over time, ordered
// by offset. Empty sets are dropped.
func GetChords(s *smf.SMF) (chords []model.Chord, err error) {
	// smf can panic on malformed tracks
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("could not read chords: %v", r)
		}
	}()

	var reducedEvents []reducedEvent
	for _, events := range s.Tracks {
		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			absTime := s.TimeAt(absTicks)
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
				reducedEvents = append(reducedEvents, reducedEvent{offset: absTime, note: key})
			case event.Message.GetNoteOn(&channel, &key, &velocity),
				event.Message.GetNoteOff(&channel, &key, &velocity):
				reducedEvents = append(reducedEvents, reducedEvent{offset: absTime, isNoteOff: true, note: key})
			}
		}
	}

	// prioritize smaller offset values then note off
	sort.SliceStable(reducedEvents, func(i, j int) bool {
		if reducedEvents[i].offset != reducedEvents[j].offset {
			return reducedEvents[i].offset < reducedEvents[j].offset
		}
		return reducedEvents[i].isNoteOff && !reducedEvents[j].isNoteOff
	})

	// the last event at an offset wins
	timestampToChords := make(map[int64]model.Chord)
	pressed := make(map[uint8]int64)
	for _, evt := range reducedEvents {
		if evt.isNoteOff {
			delete(pressed, evt.note)
		} else {
			pressed[evt.note] = evt.offset
		}
		timestampToChords[evt.offset] = getChord(pressed, evt.offset, !evt.isNoteOff)
	}

	for _, c := range timestampToChords {
		if len(c.Notes) > 0 {
			chords = append(chords, c)
		}
	}
	sort.Slice(chords, func(i, j int) bool {
		return chords[i].Offset < chords[j].Offset
	})
	return chords, nil
}
