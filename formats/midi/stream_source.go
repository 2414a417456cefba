// SPDX-License-Identifier: EPL-2.0

package midi

import (
	"fmt"
	"io"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// chunk size in bytes handed out per fill; the synthesizer renders
// stereo, so this is streamBufSize/4 frames per chunk.
const streamBufSize = 32768

// StreamSource renders a Standard MIDI File through the configured
// SoundFont synthesizer and streams the result as stereo PCM chunks.
type StreamSource struct {
	seq    *meltysynth.MidiFileSequencer
	mf     *meltysynth.MidiFile
	looped bool

	totalFrames int64
	pos         int64 // frames rendered within the current iteration

	left  []float32
	right []float32
}

// NewStreamSource parses rs as SMF and builds a fresh synthesizer voice
// for it. rs is fully consumed and closed before returning, on both the
// success and the failure path.
func NewStreamSource(rs io.ReadSeekCloser, looped bool) (*StreamSource, error) {
	sf, cfg, err := soundFont()
	if err != nil {
		rs.Close()
		return nil, err
	}

	mf, err := meltysynth.NewMidiFile(rs)
	rs.Close()
	if err != nil {
		return nil, fmt.Errorf("parsing midi file: %w", err)
	}

	settings := meltysynth.NewSynthesizerSettings(synthRate)
	settings.EnableReverbAndChorus = cfg.Reverb || cfg.Chorus

	synth, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("building synthesizer: %w", err)
	}

	seq := meltysynth.NewMidiFileSequencer(synth)
	seq.Play(mf, looped)

	frames := streamBufSize / 4
	return &StreamSource{
		seq:         seq,
		mf:          mf,
		looped:      looped,
		totalFrames: int64(mf.GetLength().Seconds() * synthRate),
		left:        make([]float32, frames),
		right:       make([]float32, frames),
	}, nil
}

func (s *StreamSource) SampleRate() int        { return synthRate }
func (s *StreamSource) LoopStartFrames() int64 { return 0 }

// SetPitch is never absorbed here; the mixer applies it.
func (s *StreamSource) SetPitch(pitch float32) bool { return false }

func (s *StreamSource) Close() error {
	s.seq.Stop()
	return nil
}

// SeekTo restarts the sequence and renders offset seconds into the void.
// The sequencer has no random access; fast-forwarding is how the cursor
// moves.
func (s *StreamSource) SeekTo(offset float64) {
	s.seq.Stop()
	s.seq.Play(s.mf, s.looped)
	s.pos = 0

	skip := int64(offset * synthRate)
	if s.totalFrames > 0 && s.looped {
		skip %= s.totalFrames
	}
	for skip > 0 {
		n := int64(len(s.left))
		if n > skip {
			n = skip
		}
		s.seq.Render(s.left[:n], s.right[:n])
		s.pos += n
		skip -= n
	}
}

func (s *StreamSource) FillBuffer(dst *audio.PCM) audio.Status {
	frames := int64(len(s.left))

	if !s.looped {
		remain := s.totalFrames - s.pos
		if remain < 0 {
			remain = 0
		}
		if frames > remain {
			frames = remain
		}
	}

	if cap(dst.Data) < int(frames)*4 {
		dst.Data = make([]byte, frames*4)
	}
	dst.Data = dst.Data[:frames*4]
	dst.SampleRate = synthRate
	dst.Channels = 2
	dst.Bits = 16

	s.seq.Render(s.left[:frames], s.right[:frames])

	for i := 0; i < int(frames); i++ {
		l := utils.Float32ToInt16(s.left[i])
		r := utils.Float32ToInt16(s.right[i])
		dst.Data[4*i] = byte(l)
		dst.Data[4*i+1] = byte(uint16(l) >> 8)
		dst.Data[4*i+2] = byte(r)
		dst.Data[4*i+3] = byte(uint16(r) >> 8)
	}

	s.pos += frames

	if s.looped {
		if s.totalFrames > 0 && s.pos >= s.totalFrames {
			s.pos -= s.totalFrames
			return audio.StatusWrapAround
		}
		return audio.StatusOK
	}

	if s.pos >= s.totalFrames {
		return audio.StatusEndOfStream
	}
	return audio.StatusOK
}
