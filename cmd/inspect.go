package cmd

import (
	"fmt"
	"os"

	"github.com/jsphweid/chordlab/codec"
	"github.com/jsphweid/chordlab/engine"
	"github.com/spf13/cobra"
)

var inspectBuckets int

func init() {
	inspectCmd.Flags().IntVar(&inspectBuckets, "width", 60, "waveform width in characters")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.wav>...",
	Short: "Shows the format and waveform of WAV files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			if err := inspect(path); err != nil {
				return err
			}
		}
		return nil
	},
}

func inspect(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	buf, err := codec.WAV{}.Decode(data)
	if err != nil {
		return err
	}
	fmt.Println(chordStyle.Render(path))
	fmt.Printf("  %d Hz, %d channels, %d frames, %s\n", buf.SampleRate, len(buf.Channels), buf.Frames(), formatSeconds(buf.Duration()))
	fmt.Printf("  %s\n", sparkline(engine.Waveform(buf, inspectBuckets)))
	return nil
}
