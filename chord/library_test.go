package chord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLibraryEntriesAreConsistent(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Default().All() {
		assert := assert.New(t)
		assert.False(seen[c.Symbol], "duplicate %s", c.Symbol)
		seen[c.Symbol] = true

		assert.Equal(len(c.IntervalFormula), len(c.NoteNames), c.Symbol)
		assert.Equal(Formulas[c.Quality], c.IntervalFormula, c.Symbol)
		assert.GreaterOrEqual(c.Difficulty, 1, c.Symbol)
		assert.LessOrEqual(c.Difficulty, 5, c.Symbol)

		root := noteToSemitone[c.NoteNames[0]]
		for i, interval := range c.IntervalFormula {
			assert.Equal(noteToSemitone[c.NoteNames[i]], (root+interval)%12, c.Symbol)
		}
	}
	assert.Len(t, seen, len(entries))
}

func TestLibraryDerivesNotesFromFormula(t *testing.T) {
	assert := assert.New(t)
	g13, ok := Default().Lookup("G13")
	assert.True(ok)
	assert.Equal([]string{"G", "B", "D", "F", "A", "E"}, g13.NoteNames)

	fm, _ := Default().Lookup("Fm")
	assert.Equal([]string{"F", "G#", "C"}, fm.NoteNames)

	bb, _ := Default().Lookup("Bb")
	assert.Equal([]string{"A#", "D", "F"}, bb.NoteNames)
}

func TestLookupReturnsCopies(t *testing.T) {
	c, _ := Default().Lookup("C")
	c.NoteNames[0] = "X"
	again, _ := Default().Lookup("C")
	assert.Equal(t, "C", again.NoteNames[0])
}

func TestUpToAndAtLevel(t *testing.T) {
	assert := assert.New(t)
	lib := Default()
	beginner := lib.AtLevel(1)
	assert.Len(beginner, 5)
	assert.Equal("C", beginner[0].Symbol)

	for _, c := range lib.UpTo(2) {
		assert.LessOrEqual(c.Difficulty, 2)
	}
	assert.Len(lib.UpTo(5), len(entries))
	assert.Empty(lib.UpTo(0))
}

func TestLevelClamps(t *testing.T) {
	assert.Equal(t, "Beginner", Level(-3).Name)
	assert.Equal(t, "Expert", Level(9).Name)
	assert.Equal(t, "Medium", Level(3).Name)
}

func TestScaleNotes(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]string{"C", "D", "E", "F", "G", "A", "B"}, ScaleNotes("C", "major"))
	assert.Equal([]string{"A", "C", "D", "E", "G"}, ScaleNotes("A4", "pentatonicMinor"))
	assert.Nil(ScaleNotes("H", "major"))
	assert.Nil(ScaleNotes("C", "lydian"))

	assert.True(InScale("F#4", "G", "major"))
	assert.True(InScale("Gb", "D", "major"))
	assert.False(InScale("F", "G", "major"))
	assert.False(InScale("", "G", "major"))
}
