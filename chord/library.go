package chord

import (
	"github.com/jsphweid/chordlab/constants"
	"github.com/jsphweid/chordlab/model"
	"golang.org/x/exp/slices"
)

// Formulas maps a chord quality to its semitone offsets from the root.
var Formulas = map[string][]int{
	"major": {0, 4, 7},
	"minor": {0, 3, 7},

	"7":    {0, 4, 7, 10},
	"maj7": {0, 4, 7, 11},
	"m7":   {0, 3, 7, 10},
	"dim":  {0, 3, 6},
	"aug":  {0, 4, 8},

	"sus2":  {0, 2, 7},
	"sus4":  {0, 5, 7},
	"add9":  {0, 4, 7, 14},
	"7sus4": {0, 5, 7, 10},
	"m7b5":  {0, 3, 6, 10},

	"9":    {0, 4, 7, 10, 14},
	"maj9": {0, 4, 7, 11, 14},
	"m9":   {0, 3, 7, 10, 14},
	"11":   {0, 4, 7, 10, 14, 17},
	"13":   {0, 4, 7, 10, 14, 21},
	"dim7": {0, 3, 6, 9},
	"aug7": {0, 4, 8, 10},
	"6":    {0, 4, 7, 9},
	"m6":   {0, 3, 7, 9},
}

var DifficultyLevels = []model.DifficultyLevel{
	{Level: 1, Name: "Beginner", Description: "Basic major chords"},
	{Level: 2, Name: "Easy", Description: "Major and minor chords"},
	{Level: 3, Name: "Medium", Description: "Adding 7th chords"},
	{Level: 4, Name: "Hard", Description: "Bar chords, suspended, add9"},
	{Level: 5, Name: "Expert", Description: "Jazz voicings, extended chords"},
}

type entry struct {
	symbol     string
	root       string
	quality    string
	difficulty int
	guitar     [6]int
	barFret    int
	piano      []int
}

// catalogue order is the tie-break order for detection
var entries = []entry{
	// beginner
	{"C", "C", "major", 1, [6]int{-1, 3, 2, 0, 1, 0}, 0, []int{0, 4, 7}},
	{"G", "G", "major", 1, [6]int{3, 0, 0, 0, 2, 3}, 0, []int{7, 11, 14}},
	{"D", "D", "major", 1, [6]int{-1, -1, 0, 2, 3, 2}, 0, []int{2, 6, 9}},
	{"A", "A", "major", 1, [6]int{-1, 0, 2, 2, 2, 0}, 0, []int{9, 13, 16}},
	{"E", "E", "major", 1, [6]int{0, 0, 1, 2, 2, 0}, 0, []int{4, 8, 11}},

	// easy
	{"Am", "A", "minor", 2, [6]int{-1, 0, 2, 2, 1, 0}, 0, []int{9, 12, 16}},
	{"Em", "E", "minor", 2, [6]int{0, 0, 0, 2, 2, 0}, 0, []int{4, 7, 11}},
	{"Dm", "D", "minor", 2, [6]int{-1, -1, 0, 2, 3, 1}, 0, []int{2, 5, 9}},
	{"Bm", "B", "minor", 2, [6]int{-1, 2, 4, 4, 3, 2}, 2, []int{11, 14, 18}},
	{"F", "F", "major", 2, [6]int{1, 1, 2, 3, 3, 1}, 1, []int{5, 9, 12}},
	{"Fm", "F", "minor", 2, [6]int{1, 1, 1, 3, 3, 1}, 1, []int{5, 8, 12}},

	// medium
	{"G7", "G", "7", 3, [6]int{3, 0, 0, 0, 0, 1}, 0, []int{7, 11, 14, 17}},
	{"D7", "D", "7", 3, [6]int{-1, -1, 0, 2, 1, 2}, 0, []int{2, 6, 9, 12}},
	{"A7", "A", "7", 3, [6]int{-1, 0, 2, 0, 2, 0}, 0, []int{9, 13, 16, 19}},
	{"E7", "E", "7", 3, [6]int{0, 0, 1, 0, 2, 0}, 0, []int{4, 8, 11, 14}},
	{"Am7", "A", "m7", 3, [6]int{-1, 0, 2, 0, 1, 0}, 0, []int{9, 12, 16, 19}},
	{"Em7", "E", "m7", 3, [6]int{0, 0, 0, 0, 2, 0}, 0, []int{4, 7, 11, 14}},
	{"Cmaj7", "C", "maj7", 3, [6]int{-1, 3, 2, 0, 0, 0}, 0, []int{0, 4, 7, 11}},
	{"Dm7", "D", "m7", 3, [6]int{-1, -1, 0, 2, 1, 1}, 0, []int{2, 5, 9, 12}},
	{"Bdim", "B", "dim", 3, [6]int{-1, 2, 3, 4, 3, -1}, 0, []int{11, 14, 17}},

	// hard
	{"Dsus2", "D", "sus2", 4, [6]int{-1, -1, 0, 2, 3, 0}, 0, []int{2, 4, 9}},
	{"Dsus4", "D", "sus4", 4, [6]int{-1, -1, 0, 2, 3, 3}, 0, []int{2, 7, 9}},
	{"Asus2", "A", "sus2", 4, [6]int{-1, 0, 2, 2, 0, 0}, 0, []int{9, 11, 16}},
	{"Asus4", "A", "sus4", 4, [6]int{-1, 0, 2, 2, 3, 0}, 0, []int{9, 14, 16}},
	{"Cadd9", "C", "add9", 4, [6]int{-1, 3, 2, 0, 3, 0}, 0, []int{0, 4, 7, 14}},
	{"Gadd9", "G", "add9", 4, [6]int{3, 0, 0, 2, 0, 3}, 0, []int{7, 11, 14, 21}},
	{"F#m", "F#", "minor", 4, [6]int{2, 2, 2, 4, 4, 2}, 2, []int{6, 9, 13}},
	{"C#m", "C#", "minor", 4, [6]int{-1, 4, 6, 6, 5, 4}, 4, []int{1, 4, 8}},
	{"Bb", "Bb", "major", 4, [6]int{-1, 1, 3, 3, 3, 1}, 1, []int{10, 14, 17}},

	// expert
	{"Cmaj9", "C", "maj9", 5, [6]int{-1, 3, 2, 0, 0, 0}, 0, []int{0, 4, 7, 11, 14}},
	{"Am9", "A", "m9", 5, [6]int{-1, 0, 2, 4, 1, 0}, 0, []int{9, 12, 16, 19, 23}},
	{"Dm9", "D", "m9", 5, [6]int{-1, -1, 0, 2, 1, 0}, 0, []int{2, 5, 9, 12, 16}},
	{"G13", "G", "13", 5, [6]int{3, 0, 0, 0, 0, 0}, 0, []int{7, 11, 14, 17, 21, 28}},
	{"C6", "C", "6", 5, [6]int{-1, 3, 2, 2, 1, 0}, 0, []int{0, 4, 7, 9}},
	{"Am6", "A", "m6", 5, [6]int{-1, 0, 2, 2, 1, 2}, 0, []int{9, 12, 16, 18}},
	{"Bdim7", "B", "dim7", 5, [6]int{-1, 2, 3, 1, 3, 1}, 0, []int{11, 14, 17, 20}},
	{"Fmaj7", "F", "maj7", 5, [6]int{1, 0, 2, 2, 1, 0}, 0, []int{5, 9, 12, 16}},
}

// Library is the immutable chord catalogue, in catalogue order.
type Library struct {
	chords   []model.ChordDefinition
	bySymbol map[string]int
}

var defaultLibrary = buildLibrary(entries)

// Default returns the built-in catalogue.
func Default() *Library {
	return defaultLibrary
}

func buildLibrary(es []entry) *Library {
	lib := &Library{bySymbol: make(map[string]int, len(es))}
	for _, e := range es {
		formula := Formulas[e.quality]
		if formula == nil {
			panic("chord library: unknown quality " + e.quality + " for " + e.symbol)
		}
		root, ok := semitone(e.root)
		if !ok {
			panic("chord library: bad root " + e.root + " for " + e.symbol)
		}
		lib.bySymbol[e.symbol] = len(lib.chords)
		lib.chords = append(lib.chords, model.ChordDefinition{
			Symbol:          e.symbol,
			Quality:         e.quality,
			NoteNames:       namesFromFormula(root, formula),
			IntervalFormula: slices.Clone(formula),
			Difficulty:      e.difficulty,
			Fingering: model.FingeringHints{
				Guitar: model.GuitarFingering{Frets: e.guitar, BarFret: e.barFret},
				Piano:  slices.Clone(e.piano),
			},
		})
	}
	return lib
}

func namesFromFormula(root int, formula []int) []string {
	names := make([]string, len(formula))
	for i, interval := range formula {
		names[i] = model.PitchClasses[(root+interval)%12]
	}
	return names
}

// Lookup returns a copy of the definition for symbol.
func (l *Library) Lookup(symbol string) (model.ChordDefinition, bool) {
	i, ok := l.bySymbol[symbol]
	if !ok {
		return model.ChordDefinition{}, false
	}
	return clone(l.chords[i]), true
}

// All returns every chord in catalogue order.
func (l *Library) All() []model.ChordDefinition {
	return l.filter(func(model.ChordDefinition) bool { return true })
}

// UpTo returns the chords at or below maxDifficulty, in catalogue order.
func (l *Library) UpTo(maxDifficulty int) []model.ChordDefinition {
	return l.filter(func(c model.ChordDefinition) bool { return c.Difficulty <= maxDifficulty })
}

// AtLevel returns the chords of exactly one difficulty level.
func (l *Library) AtLevel(level int) []model.ChordDefinition {
	return l.filter(func(c model.ChordDefinition) bool { return c.Difficulty == level })
}

func (l *Library) filter(keep func(model.ChordDefinition) bool) []model.ChordDefinition {
	var res []model.ChordDefinition
	for _, c := range l.chords {
		if keep(c) {
			res = append(res, clone(c))
		}
	}
	return res
}

func clone(c model.ChordDefinition) model.ChordDefinition {
	c.NoteNames = slices.Clone(c.NoteNames)
	c.IntervalFormula = slices.Clone(c.IntervalFormula)
	c.Fingering.Piano = slices.Clone(c.Fingering.Piano)
	return c
}

// Level returns the description of a difficulty level, clamped to the valid
// range.
func Level(level int) model.DifficultyLevel {
	if level < constants.MinDifficulty {
		level = constants.MinDifficulty
	}
	if level > constants.MaxDifficulty {
		level = constants.MaxDifficulty
	}
	return DifficultyLevels[level-1]
}
