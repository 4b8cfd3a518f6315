package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/jsphweid/chordlab/codec"
	"github.com/jsphweid/chordlab/device"
	"github.com/jsphweid/chordlab/engine"
	"github.com/jsphweid/chordlab/mixer"
	"github.com/jsphweid/chordlab/model"
	"github.com/jsphweid/chordlab/ticker"
	"github.com/jsphweid/chordlab/util"
	"github.com/spf13/cobra"
)

var (
	playSeek    float64
	playSolo    []string
	playMute    []string
	playVolume  float64
	playFadeIn  float64
	playFadeOut float64
	playRender  string
)

func init() {
	playCmd.Flags().Float64Var(&playSeek, "seek", 0, "start position in seconds")
	playCmd.Flags().StringSliceVar(&playSolo, "solo", nil, "solo the named tracks (file base names)")
	playCmd.Flags().StringSliceVar(&playMute, "mute", nil, "mute the named tracks (file base names)")
	playCmd.Flags().Float64Var(&playVolume, "volume", -1, "volume of every track, 0 to 1 (default from config)")
	playCmd.Flags().Float64Var(&playFadeIn, "fade-in", 0, "fade in seconds")
	playCmd.Flags().Float64Var(&playFadeOut, "fade-out", 0, "fade out seconds")
	playCmd.Flags().StringVar(&playRender, "render", "", "mix down to this WAV file instead of the speakers")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <file.wav>...",
	Short: "Plays WAV stems in sync",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mx := mixer.New(cfg.SampleRate)

		var sched ticker.Scheduler = ticker.Real{}
		var manual *ticker.Manual
		if playRender != "" {
			manual = ticker.NewManual(time.Now())
			sched = manual
		}

		volume := cfg.DefaultVolume
		if playVolume >= 0 {
			volume = playVolume
		}
		eng := engine.New(mx, codec.WAV{},
			engine.WithScheduler(sched),
			engine.WithFrameInterval(cfg.FrameInterval()),
			engine.WithWaveformBuckets(cfg.WaveformBuckets),
			engine.WithDefaultVolume(volume),
			engine.WithLogger(slog.Default()),
		)
		defer eng.Close()

		if err := loadTracks(eng, args); err != nil {
			return err
		}
		if err := eng.Seek(playSeek); err != nil {
			return err
		}

		if manual != nil {
			return renderMix(eng, mx, manual, playRender)
		}
		return playLive(cmd, eng, mx)
	},
}

func loadTracks(eng *engine.Engine, paths []string) error {
	loaded := 0
	for _, path := range paths {
		name := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return fault.Wrap(err, ftag.With(ftag.NotFound), fmsg.WithDesc("read "+path, "Could not read "+path))
		}
		info, err := eng.LoadTrack(name, data)
		if err != nil {
			fmt.Println(warnStyle.Render(fmsg.GetIssue(err)))
			continue
		}
		loaded++

		if err := applyTrackFlags(eng, info); err != nil {
			return err
		}
		wf, err := eng.Waveform(info.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s\n", symbolColumn.Width(20).Render(chordStyle.Render(name)), sparkline(compress(wf, 40)), dimStyle.Render(formatSeconds(info.Duration)))
	}
	if loaded == 0 {
		return engine.ErrTrackNotReady
	}
	return nil
}

func applyTrackFlags(eng *engine.Engine, info model.TrackInfo) error {
	if err := eng.SetFadeIn(info.ID, playFadeIn); err != nil {
		return err
	}
	if err := eng.SetFadeOut(info.ID, playFadeOut); err != nil {
		return err
	}
	for _, name := range playSolo {
		if name == info.DisplayName {
			if _, err := eng.ToggleSolo(info.ID); err != nil {
				return err
			}
		}
	}
	for _, name := range playMute {
		if name == info.DisplayName {
			if _, err := eng.ToggleMute(info.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func playLive(cmd *cobra.Command, eng *engine.Engine, mx *mixer.Mixer) error {
	out, err := device.OpenOutput(mx, cfg.SampleRate)
	if err != nil {
		return err
	}
	defer out.Close()

	done := make(chan struct{}, 1)
	lastSecond := -1
	eng.OnTime(func(s model.TransportState) {
		if sec := int(s.CurrentTimeSeconds); sec != lastSecond {
			lastSecond = sec
			fmt.Printf("\r%s / %s", formatSeconds(s.CurrentTimeSeconds), formatSeconds(s.DurationSeconds))
		}
		if !s.IsPlaying {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if err := eng.Play(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		eng.Stop()
	case <-done:
	}
	fmt.Println()
	return nil
}

// renderMix pulls the mix through the mixer faster than real time, ticking
// the engine's time loop once per frame's worth of samples.
func renderMix(eng *engine.Engine, mx *mixer.Mixer, manual *ticker.Manual, path string) error {
	if err := eng.Play(); err != nil {
		return err
	}
	frames := cfg.SampleRate / cfg.FrameRate
	if frames < 1 {
		frames = 1
	}
	block := make([]float32, frames*2)
	out := &model.Buffer{SampleRate: cfg.SampleRate, Channels: make([][]float32, 2)}
	for eng.Transport().IsPlaying {
		mx.Render(block)
		for i := 0; i < frames; i++ {
			out.Channels[0] = append(out.Channels[0], block[2*i])
			out.Channels[1] = append(out.Channels[1], block[2*i+1])
		}
		manual.Advance(cfg.FrameInterval())
		manual.Tick()
	}

	f, err := os.Create(path)
	if err != nil {
		return fault.Wrap(err, fmsg.WithDesc("create "+path, "Could not create "+path))
	}
	defer f.Close()
	if err := codec.EncodeWAV(f, out); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s)\n", path, formatSeconds(out.Duration()))
	return nil
}

func formatSeconds(s float64) string {
	total := int(s)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// compress averages values down to at most n buckets for terminal display.
func compress(values []float32, n int) []float32 {
	if len(values) <= n {
		return values
	}
	res := make([]float32, n)
	per := len(values) / n
	for i := range res {
		res[i] = util.Sum(values[i*per:(i+1)*per]) / float32(per)
	}
	return res
}
