package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/chordlab/chord"
	"github.com/jsphweid/chordlab/midi"
	"github.com/spf13/cobra"
)

var (
	scanFrom   uint64
	scanNotes  int
	scanAll    bool
	scanOnsets bool
)

func init() {
	scanCmd.Flags().Uint64Var(&scanFrom, "from", 0, "start at this tick")
	scanCmd.Flags().IntVar(&scanNotes, "notes", 0, "stop after this many note events per track (0 = all)")
	scanCmd.Flags().IntVarP(&maxDifficulty, "difficulty", "d", 0, "highest difficulty to detect (default from config)")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "also print note sets no chord was found for")
	scanCmd.Flags().BoolVar(&scanOnsets, "onsets", false, "skip note sets left behind when a note is released")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan <file.mid>",
	Short: "Names the chords in a MIDI file over time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mf, err := midi.ReadMidiFile(args[0])
		if err != nil {
			return err
		}
		if scanFrom > 0 || scanNotes > 0 {
			mf = midi.Excerpt(mf, scanFrom, scanNotes)
		}
		chords, err := chord.GetChords(mf)
		if err != nil {
			return err
		}

		level := difficulty()
		last := ""
		for _, c := range chord.Collapse(chords, scanOnsets) {
			names := chord.NoteNames(c.Notes)
			d := chord.DetectChord(names, level)
			at := dimStyle.Render(fmt.Sprintf("%8.2fs", float64(c.Offset)/1e6))
			switch {
			case d != nil:
				if d.Chord.Symbol == last {
					continue
				}
				last = d.Chord.Symbol
				fmt.Printf("%s %s %s\n", at, renderMatch(d.Match), dimStyle.Render(strings.Join(names, " ")))
			case scanAll:
				last = ""
				fmt.Printf("%s %s\n", at, dimStyle.Render(strings.Join(names, " ")))
			}
		}
		return nil
	},
}
