package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/chordlab/chord"
	"github.com/jsphweid/chordlab/util"
	"github.com/spf13/cobra"
)

var (
	chordsLevel   int
	maxDifficulty int
)

func init() {
	chordsCmd.Flags().IntVar(&chordsLevel, "level", 0, "only chords of this difficulty level")
	detectCmd.Flags().IntVarP(&maxDifficulty, "difficulty", "d", 0, "highest difficulty to consider (default from config)")
	simplifyCmd.Flags().IntVarP(&maxDifficulty, "difficulty", "d", 0, "difficulty to fit the chord to (default from config)")

	rootCmd.AddCommand(chordsCmd, matchCmd, detectCmd, simplifyCmd, scalesCmd)
}

func difficulty() int {
	if maxDifficulty > 0 {
		return maxDifficulty
	}
	return cfg.Difficulty
}

var chordsCmd = &cobra.Command{
	Use:   "chords [symbol]",
	Short: "Lists the chord library, or shows one chord",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib := chord.Default()
		if len(args) == 1 {
			def, ok := lib.Lookup(args[0])
			if !ok {
				return fmt.Errorf("chord %s is not in the library", args[0])
			}
			fmt.Println(renderChord(def))
			fmt.Println(renderFingering(def.Fingering))
			return nil
		}

		all := lib.All()
		if chordsLevel > 0 {
			all = lib.AtLevel(chordsLevel)
		}
		lastLevel := 0
		for _, def := range all {
			if def.Difficulty != lastLevel && chordsLevel == 0 {
				lvl := chord.Level(def.Difficulty)
				fmt.Println(warnStyle.Render(fmt.Sprintf("%d %s", lvl.Level, lvl.Name)) + " " + dimStyle.Render(lvl.Description))
				lastLevel = def.Difficulty
			}
			fmt.Println(renderChord(def))
		}
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <target> <note>...",
	Short: "Scores played notes against a target chord",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(renderMatch(chord.MatchChord(args[1:], args[0])))
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect <note>...",
	Short: "Names the chord formed by a set of notes",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(renderDetection(chord.DetectChord(args, difficulty())))
	},
}

var simplifyCmd = &cobra.Command{
	Use:   "simplify <symbol>",
	Short: "Fits a chord to a difficulty level",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res := chord.ChordForDifficulty(args[0], difficulty())
		switch {
		case res.Chord == nil:
			fmt.Println(warnStyle.Render(res.OriginalSymbol + " is not in the library"))
		case res.IsSimplified:
			fmt.Printf("%s -> %s %s\n", dimStyle.Render(res.OriginalSymbol), chordStyle.Render(res.ResolvedSymbol), strings.Join(res.Notes, " "))
		default:
			fmt.Printf("%s %s\n", chordStyle.Render(res.ResolvedSymbol), strings.Join(res.Notes, " "))
		}
	},
}

var scalesCmd = &cobra.Command{
	Use:   "scales [root] [scale]",
	Short: "Lists the known scales, or the notes of one",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			root := "C"
			if len(args) == 1 {
				root = args[0]
			}
			for _, name := range util.GetKeys(chord.Scales) {
				notes := chord.ScaleNotes(root, name)
				fmt.Printf("%s %s\n", symbolColumn.Width(18).Render(chordStyle.Render(name)), strings.Join(notes, " "))
			}
			return nil
		}
		notes := chord.ScaleNotes(args[0], args[1])
		if notes == nil {
			return fmt.Errorf("unknown root %q or scale %q", args[0], args[1])
		}
		fmt.Println(strings.Join(notes, " "))
		return nil
	},
}
