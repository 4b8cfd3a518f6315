package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/chordlab/device"
	"github.com/jsphweid/chordlab/input"
	"github.com/jsphweid/chordlab/midi"
	"github.com/jsphweid/chordlab/model"
	"github.com/jsphweid/chordlab/pitch"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

var (
	listenMic    bool
	listenPort   string
	listenTarget string
	listenPorts  bool
)

func init() {
	listenCmd.Flags().BoolVar(&listenMic, "mic", false, "listen to the microphone instead of MIDI")
	listenCmd.Flags().StringVar(&listenPort, "port", "", "MIDI input port (default from config, else the first port)")
	listenCmd.Flags().StringVar(&listenTarget, "target", "", "chord to score what you play against")
	listenCmd.Flags().IntVarP(&maxDifficulty, "difficulty", "d", 0, "highest difficulty to detect (default from config)")
	listenCmd.Flags().BoolVar(&listenPorts, "ports", false, "list MIDI input ports and exit")
	rootCmd.AddCommand(listenCmd)
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Names the chord you are playing, live",
	RunE: func(cmd *cobra.Command, args []string) error {
		access := midi.NewAccess(slog.Default())
		defer access.Close()

		if listenPorts {
			for _, in := range access.Inputs() {
				fmt.Println(in)
			}
			return nil
		}

		mode := input.ModeMIDI
		if listenMic || cfg.InputMode == "microphone" {
			mode = input.ModeMicrophone
		}
		detector := pitch.NewDetector()
		detector.SilenceThreshold = cfg.SilenceThreshold
		detector.ClipThreshold = cfg.ClipThreshold
		detector.Range = pitch.Range{Min: cfg.MinFrequency, Max: cfg.MaxFrequency}

		agg := input.New(
			input.WithMode(mode),
			input.WithMIDI(access),
			input.WithMicrophone(&device.Microphone{SampleRate: uint32(cfg.SampleRate), Log: slog.Default()}),
			input.WithDetector(detector),
			input.WithDifficulty(difficulty()),
			input.WithHistoryWindow(cfg.HistoryWindow),
			input.WithFrameInterval(cfg.FrameInterval()),
			input.WithLogger(slog.Default()),
		)

		port := listenPort
		if port == "" {
			port = cfg.MIDIPort
		}

		// mic frames arrive at the frame rate; only redraw once things settle
		debounced := debounce.New(50 * time.Millisecond)
		agg.Subscribe(func(s input.Snapshot) {
			debounced(func() { fmt.Println(renderSnapshot(s, agg)) })
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if err := startAggregator(ctx, agg, port); err != nil {
			return err
		}
		defer agg.StopListening()

		what := agg.Mode().String()
		if s := agg.Snapshot(); s.MIDIInput != "" && mode == input.ModeMIDI {
			what = s.MIDIInput
		}
		fmt.Println(dimStyle.Render("listening to " + what + ", ctrl-c to stop"))
		<-ctx.Done()
		return nil
	},
}

// startAggregator binds port, if any, and starts listening. Errors keep
// their fault kind and user-facing message.
func startAggregator(ctx context.Context, agg *input.Aggregator, port string) error {
	if port != "" && agg.Mode() == input.ModeMIDI {
		if err := agg.SelectMIDIInput(port); err != nil {
			return err
		}
	}
	return agg.StartListening(ctx)
}

func renderSnapshot(s input.Snapshot, agg *input.Aggregator) string {
	if s.Error != "" {
		return warnStyle.Render(s.Error)
	}
	notes := dimStyle.Render(strings.Join(model.NoteNames(s.Notes), " "))
	if listenTarget != "" && len(s.Notes) > 0 {
		return renderMatch(agg.MatchTargetChord(listenTarget)) + "  " + notes
	}
	return renderDetection(s.Detected) + "  " + notes
}
