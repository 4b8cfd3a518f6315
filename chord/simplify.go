package chord

import (
	"regexp"

	"github.com/jsphweid/chordlab/constants"
	"github.com/jsphweid/chordlab/model"
)

// Graph is a directed simplification graph: each chord symbol points to at
// most one simpler chord. Nodes need not be in the catalogue and the graph
// may contain cycles; walks are bounded by a hop limit.
type Graph map[string]string

// DefaultSimplifications is the built-in simplification graph.
var DefaultSimplifications = Graph{
	// 7ths to triads
	"G7": "G", "D7": "D", "A7": "A", "E7": "E", "C7": "C", "F7": "F", "B7": "B",
	"Am7": "Am", "Em7": "Em", "Dm7": "Dm", "Bm7": "Bm", "Fm7": "Fm",
	"Cmaj7": "C", "Gmaj7": "G", "Dmaj7": "D", "Amaj7": "A", "Fmaj7": "F",

	// diminished to minor
	"Bdim": "Bm", "Bdim7": "Bm", "Cdim": "Cm", "Ddim": "Dm",

	// suspended to major
	"Dsus2": "D", "Dsus4": "D", "Asus2": "A", "Asus4": "A",
	"Gsus2": "G", "Gsus4": "G", "Csus2": "C", "Csus4": "C",

	"Cadd9": "C", "Gadd9": "G", "Dadd9": "D", "Aadd9": "A",

	// extended to the 7th it extends
	"Cmaj9": "Cmaj7", "Am9": "Am7", "Dm9": "Dm7", "G13": "G7",
	"C6": "C", "Am6": "Am",

	// bar chord alternatives
	"F#m": "Em", "C#m": "Am", "Bb": "A",
}

// Next returns the simpler neighbour of symbol.
func (g Graph) Next(symbol string) (string, bool) {
	next, ok := g[symbol]
	return next, ok
}

// LastResortSymbol is returned when nothing else fits the difficulty.
const LastResortSymbol = "C"

var rootPattern = regexp.MustCompile(`^[A-G][#b]?`)

// ChordForDifficulty fits symbol to maxDifficulty using the default catalogue
// and simplification graph.
func ChordForDifficulty(symbol string, maxDifficulty int) model.SimplifiedChord {
	return defaultLibrary.ChordForDifficulty(DefaultSimplifications, symbol, maxDifficulty)
}

// ChordForDifficulty returns symbol unchanged if it fits. Otherwise it follows
// the graph for at most MaxSimplificationHops hops, stopping at the first
// catalogue chord that fits. If that fails it tries the root's major triad,
// then its minor triad, then C major. Symbols missing from the catalogue
// are returned as they are, with no notes.
func (l *Library) ChordForDifficulty(g Graph, symbol string, maxDifficulty int) model.SimplifiedChord {
	def, ok := l.Lookup(symbol)
	if !ok {
		return model.SimplifiedChord{
			ResolvedSymbol: symbol,
			Notes:          []string{},
			OriginalSymbol: symbol,
		}
	}
	if def.Difficulty <= maxDifficulty {
		return resolved(def, symbol, false)
	}

	current := symbol
	for hop := 0; hop < constants.MaxSimplificationHops; hop++ {
		next, ok := g.Next(current)
		if !ok {
			break
		}
		current = next
		if simpler, ok := l.Lookup(current); ok && simpler.Difficulty <= maxDifficulty {
			return resolved(simpler, symbol, true)
		}
	}

	if root := rootPattern.FindString(symbol); root != "" {
		for _, candidate := range []string{root, root + "m"} {
			if c, ok := l.Lookup(candidate); ok && c.Difficulty <= maxDifficulty {
				return resolved(c, symbol, true)
			}
		}
	}

	c, _ := l.Lookup(LastResortSymbol)
	return resolved(c, symbol, true)
}

func resolved(c model.ChordDefinition, original string, simplified bool) model.SimplifiedChord {
	return model.SimplifiedChord{
		ResolvedSymbol: c.Symbol,
		Notes:          c.NoteNames,
		IsSimplified:   simplified,
		OriginalSymbol: original,
		Chord:          &c,
	}
}
