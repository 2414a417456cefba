// SPDX-License-Identifier: EPL-2.0

package midi

import (
	"fmt"
	"os"
	"sync"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// synthRate is the rate the synthesizer renders at, in Hz.
const synthRate = 44100

// Settings mirror the host configuration for the SoundFont synthesizer.
type Settings struct {
	// SoundFont is the path to the .sf2 file to synthesize with. An
	// empty path leaves MIDI playback unavailable.
	SoundFont string
	Chorus    bool
	Reverb    bool
}

var state struct {
	mu     sync.Mutex
	cfg    Settings
	inited bool
	sf     *meltysynth.SoundFont
	err    error
}

// Configure records the synthesizer settings. The SoundFont itself is
// loaded lazily, on the first MIDI stream that needs it.
func Configure(cfg Settings) {
	state.mu.Lock()
	defer state.mu.Unlock()

	state.cfg = cfg
	state.inited = false
	state.sf = nil
	state.err = nil
}

// InitIfNeeded loads the configured SoundFont once. The load result,
// success or failure, sticks until Configure is called again.
func InitIfNeeded() error {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.inited {
		return state.err
	}
	state.inited = true

	if state.cfg.SoundFont == "" {
		state.err = ErrNoSoundFont
		return state.err
	}

	f, err := os.Open(state.cfg.SoundFont)
	if err != nil {
		state.err = fmt.Errorf("opening soundfont: %w", err)
		return state.err
	}
	defer f.Close()

	sf, err := meltysynth.NewSoundFont(f)
	if err != nil {
		state.err = fmt.Errorf("parsing soundfont %s: %w", state.cfg.SoundFont, err)
		return state.err
	}

	state.sf = sf
	return nil
}

// Available reports whether a synthesizer backend can be built.
func Available() bool {
	state.mu.Lock()
	defer state.mu.Unlock()

	return state.inited && state.sf != nil
}

func soundFont() (*meltysynth.SoundFont, Settings, error) {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.sf == nil {
		if state.err != nil {
			return nil, state.cfg, state.err
		}
		return nil, state.cfg, ErrNoSoundFont
	}
	return state.sf, state.cfg, nil
}
