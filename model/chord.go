package model

// Chord is a set of MIDI keys sounding together at an offset within a MIDI
// file. Offset is in microseconds from the start of the file.
type Chord struct {
	Offset         int64
	Notes          Notes
	FormedByNoteOn bool
}

// GuitarFingering is a six string fingering, low E first. -1 is a muted string.
type GuitarFingering struct {
	Frets   [6]int `json:"fingering"`
	BarFret int    `json:"barFret"`
}

// FingeringHints is instrument specific position data. The theory engine
// never looks inside it.
type FingeringHints struct {
	Guitar GuitarFingering `json:"guitar"`
	Piano  []int           `json:"piano"`
}

// ChordDefinition is a catalogue entry. NoteNames and IntervalFormula have the
// same length and NoteNames[i] is the root moved up by IntervalFormula[i].
type ChordDefinition struct {
	Symbol          string         `json:"symbol"`
	Quality         string         `json:"quality"`
	NoteNames       []string       `json:"notes"`
	IntervalFormula []int          `json:"formula"`
	Difficulty      int            `json:"difficulty"`
	Fingering       FingeringHints `json:"fingering"`
}

type ChordMatchResult struct {
	MatchedChordSymbol string   `json:"chord,omitempty"`
	Score              int      `json:"score"`
	MissingNotes       []string `json:"missingNotes"`
	ExtraNotes         []string `json:"extraNotes"`
	IsExactMatch       bool     `json:"match"`
	MatchedCount       int      `json:"matchedNotes"`
	TotalNotes         int      `json:"totalNotes"`
}

// Detection is the best catalogue match for a set of played notes.
type Detection struct {
	Chord ChordDefinition  `json:"data"`
	Match ChordMatchResult `json:"result"`
}

// SimplifiedChord is the result of fitting a chord to a difficulty level.
// Notes is empty and Chord is nil when the original symbol is not in the
// catalogue.
type SimplifiedChord struct {
	ResolvedSymbol string           `json:"chord"`
	Notes          []string         `json:"notes"`
	IsSimplified   bool             `json:"isSimplified"`
	OriginalSymbol string           `json:"original"`
	Chord          *ChordDefinition `json:"data,omitempty"`
}

type DifficultyLevel struct {
	Level       int    `json:"level"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
