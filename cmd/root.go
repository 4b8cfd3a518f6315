package cmd

import (
	"log/slog"
	"os"

	"github.com/jsphweid/chordlab/config"
	"github.com/jsphweid/chordlab/constants"
	"github.com/spf13/cobra"
)

var (
	cfg        = config.Default()
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "chordlab",
	Short: "Chord practice and multi-track playback",
	Long: `chordlab names the chord you are playing on a MIDI keyboard or into a
microphone, scores it against a target, simplifies chords to your level and
plays stems in sync with a small mixer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			configPath = constants.GetConfigPath()
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		slog.Debug("config loaded", "path", configPath, "difficulty", cfg.Difficulty)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $CHORDLAB_CONFIG or ~/.config/chordlab/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
