package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jsphweid/chordlab/model"
)

var (
	chordStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	symbolColumn = lipgloss.NewStyle().Width(8).Align(lipgloss.Left)
)

var sparks = []rune("▁▂▃▄▅▆▇█")

func renderChord(c model.ChordDefinition) string {
	return fmt.Sprintf("%s %s %s",
		symbolColumn.Render(chordStyle.Render(c.Symbol)),
		strings.Join(c.NoteNames, " "),
		dimStyle.Render(fmt.Sprintf("level %d", c.Difficulty)))
}

func renderMatch(r model.ChordMatchResult) string {
	style := warnStyle
	if r.IsExactMatch {
		style = goodStyle
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", chordStyle.Render(r.MatchedChordSymbol), style.Render(fmt.Sprintf("%d%%", r.Score)))
	if len(r.MissingNotes) > 0 {
		fmt.Fprintf(&b, "  missing %s", strings.Join(r.MissingNotes, " "))
	}
	if len(r.ExtraNotes) > 0 {
		fmt.Fprintf(&b, "  extra %s", strings.Join(r.ExtraNotes, " "))
	}
	return b.String()
}

func renderDetection(d *model.Detection) string {
	if d == nil {
		return dimStyle.Render("no chord")
	}
	return renderMatch(d.Match)
}

func renderFingering(f model.FingeringHints) string {
	frets := make([]string, len(f.Guitar.Frets))
	for i, fr := range f.Guitar.Frets {
		if fr < 0 {
			frets[i] = "x"
		} else {
			frets[i] = fmt.Sprint(fr)
		}
	}
	s := "guitar " + strings.Join(frets, "")
	if f.Guitar.BarFret > 0 {
		s += fmt.Sprintf(" (barre %d)", f.Guitar.BarFret)
	}
	return dimStyle.Render(s)
}

// sparkline draws values in [0, 1] as block characters.
func sparkline(values []float32) string {
	var b strings.Builder
	for _, v := range values {
		i := int(v * float32(len(sparks)-1))
		if i < 0 {
			i = 0
		}
		if i >= len(sparks) {
			i = len(sparks) - 1
		}
		b.WriteRune(sparks[i])
	}
	return b.String()
}
