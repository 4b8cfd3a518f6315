package chord

import (
	"math"
	"strings"

	"github.com/jsphweid/chordlab/constants"
	"github.com/jsphweid/chordlab/model"
	"github.com/jsphweid/chordlab/util"
)

var noteToSemitone = map[string]int{
	"C": 0, "C#": 1, "D": 2, "D#": 3, "E": 4, "F": 5,
	"F#": 6, "G": 7, "G#": 8, "A": 9, "A#": 10, "B": 11,
}

var flatToSharp = map[string]string{
	"DB": "C#",
	"EB": "D#",
	"GB": "F#",
	"AB": "G#",
	"BB": "A#",
}

// NormalizeNote strips octave digits, uppercases and respells flats as
// sharps: "Db4" -> "C#". Anything that is not one of the 12 pitch classes
// gives ok == false.
func NormalizeNote(raw string) (name string, ok bool) {
	name = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' || r == ' ' {
			return -1
		}
		return r
	}, raw)
	name = strings.ToUpper(name)
	if sharp, isFlat := flatToSharp[name]; isFlat {
		name = sharp
	}
	if _, known := noteToSemitone[name]; !known {
		return "", false
	}
	return name, true
}

func semitone(raw string) (int, bool) {
	name, ok := NormalizeNote(raw)
	if !ok {
		return 0, false
	}
	return noteToSemitone[name], true
}

// normalizeAll drops unrecognized notes and duplicates, keeping first-seen order.
func normalizeAll(raw []string) []string {
	var res []string
	for _, r := range raw {
		if n, ok := NormalizeNote(r); ok {
			res = append(res, n)
		}
	}
	return util.Dedup(res, func(s string) string { return s })
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// MatchChord scores played notes against a catalogue chord.
func MatchChord(played []string, target string) model.ChordMatchResult {
	return defaultLibrary.MatchChord(played, target)
}

// MatchChord compares pitch classes only. Score is the percentage of the
// chord's notes that were played, minus 5 per extra note (at most 20). An
// exact match allows one extra note.
func (l *Library) MatchChord(played []string, target string) model.ChordMatchResult {
	res := model.ChordMatchResult{MissingNotes: []string{}, ExtraNotes: []string{}}
	def, ok := l.Lookup(target)
	if !ok {
		return res
	}
	res.MatchedChordSymbol = def.Symbol

	targetNotes := normalizeAll(def.NoteNames)
	playedNotes := normalizeAll(played)
	targetSet := toSet(targetNotes)
	playedSet := toSet(playedNotes)

	for _, n := range targetNotes {
		if playedSet[n] {
			res.MatchedCount++
		} else {
			res.MissingNotes = append(res.MissingNotes, n)
		}
	}
	for _, n := range playedNotes {
		if !targetSet[n] {
			res.ExtraNotes = append(res.ExtraNotes, n)
		}
	}
	res.TotalNotes = len(targetNotes)

	var accuracy float64
	if res.TotalNotes > 0 {
		accuracy = float64(res.MatchedCount) / float64(res.TotalNotes) * 100
	}
	penalty := util.Min(len(res.ExtraNotes)*constants.ExtraNotePenalty, constants.MaxExtraNotePenalty)
	res.Score = util.Max(0, int(math.Round(accuracy-float64(penalty))))
	res.IsExactMatch = len(res.MissingNotes) == 0 && len(res.ExtraNotes) <= constants.ExactMatchExtraTolerance
	return res
}

// DetectChord returns the best scoring chord at or below maxDifficulty, or nil.
func DetectChord(played []string, maxDifficulty int) *model.Detection {
	return defaultLibrary.DetectChord(played, maxDifficulty)
}

// DetectChord needs at least two played notes. A candidate must score at
// least 60; on equal scores the chord earlier in the catalogue wins.
func (l *Library) DetectChord(played []string, maxDifficulty int) *model.Detection {
	if len(played) < 2 {
		return nil
	}
	var best *model.Detection
	for _, c := range l.UpTo(maxDifficulty) {
		result := l.MatchChord(played, c.Symbol)
		if result.Score < constants.MinDetectScore {
			continue
		}
		if best == nil || result.Score > best.Match.Score {
			best = &model.Detection{Chord: c, Match: result}
		}
	}
	return best
}
