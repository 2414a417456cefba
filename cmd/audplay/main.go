// SPDX-License-Identifier: EPL-2.0

// Command audplay plays a single audio file through the default output
// device, resolving the name the same way a game's audio layer would.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ik5/audstream/config"
	"github.com/ik5/audstream/formats/midi"
	"github.com/ik5/audstream/log"
	"github.com/ik5/audstream/playback"
	"github.com/ik5/audstream/stream"
	"github.com/ik5/audstream/vfs"
)

var (
	flagLoop   bool
	flagVolume float64
	flagPitch  float64
	flagOffset float64
)

var rootCmd = &cobra.Command{
	Use:   "audplay <file>",
	Short: "Stream an audio file to the output device",
	Long: `Audplay decodes an audio file incrementally and plays it through the
default output device. Files are matched by content: Ogg Vorbis and
Standard MIDI files are detected by signature, everything else is decoded
by extension (wav, mp3, aiff).

MIDI playback needs a SoundFont; configure one via audstream.yaml or the
AUDSTREAM_MIDI_SOUNDFONT environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().BoolVarP(&flagLoop, "loop", "l", false, "loop playback")
	rootCmd.Flags().Float64VarP(&flagVolume, "volume", "v", 1.0, "playback volume (0.0 to 1.0)")
	rootCmd.Flags().Float64VarP(&flagPitch, "pitch", "p", 1.0, "playback pitch")
	rootCmd.Flags().Float64VarP(&flagOffset, "offset", "o", 0.0, "start offset in seconds")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.GetLogger()
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	midi.Configure(midi.Settings{
		SoundFont: cfg.MIDI.SoundFont,
		Chorus:    cfg.MIDI.Chorus,
		Reverb:    cfg.MIDI.Reverb,
	})

	dev, err := playback.New(cfg.Playback.SampleRate, cfg.Playback.Channels)
	if err != nil {
		return fmt.Errorf("opening playback device: %w", err)
	}
	defer dev.Close()

	mode := stream.NotLooped
	if flagLoop {
		mode = stream.Looped
	}

	st := stream.New(vfs.New(nil), dev, mode, "audplay", stream.WithLogger(logger))
	defer st.Close()

	if err := st.Open(args[0]); err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	if st.State() == stream.Closed {
		return fmt.Errorf("unable to decode %s", args[0])
	}

	st.SetVolume(float32(flagVolume))
	if flagPitch != 1.0 {
		st.SetPitch(float32(flagPitch))
	}

	st.Play(flagOffset)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-sigc:
			fmt.Println("\ninterrupted")
			st.Stop()
			return nil
		case <-tick.C:
			if st.State() == stream.Stopped {
				return nil
			}
			fmt.Printf("\r%8.2fs", st.Offset())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
