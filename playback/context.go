// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// The audio context is a process-wide singleton; every Device shares it,
// so the first Device pins the device rate and channel count.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func otoContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("opening audio device: %w", err)
			return
		}
		<-ready

		otoCtx = ctx
	})

	return otoCtx, otoErr
}
