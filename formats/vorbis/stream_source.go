// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/utils"
)

// chunk size in bytes handed out per fill
const streamBufSize = 32768

// vorbisStreamReader is an interface over oggvorbis.Reader to allow testing
type vorbisStreamReader interface {
	oggReader
	SetPosition(pos int64) error
	Position() int64
	Length() int64
}

// StreamSource streams a Vorbis file as PCM chunks. A looped source wraps
// back to the LOOPSTART comment position (frame 0 when the file carries no
// loop tags); LOOPLENGTH bounds the loop iteration when present.
type StreamSource struct {
	dec    vorbisStreamReader
	closer io.Closer
	looped bool

	sampleRate int
	channels   int

	loopStart  int64
	loopLength int64

	frameBuf []float32
	dead     bool
}

// NewStreamSource wraps rs for streaming. On failure rs is closed before
// returning; on success the source owns rs.
func NewStreamSource(rs io.ReadSeekCloser, looped bool) (*StreamSource, error) {
	dec, err := oggvorbis.NewReader(rs)
	if err != nil {
		rs.Close()
		return nil, fmt.Errorf("%w", err)
	}

	start, length := parseLoopComments(dec.CommentHeader().Comments)

	return &StreamSource{
		dec:        dec,
		closer:     rs,
		looped:     looped,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		loopStart:  start,
		loopLength: length,
	}, nil
}

// parseLoopComments extracts LOOPSTART/LOOPLENGTH Vorbis comments, the
// tagging convention game music tooling writes. Both values are frame
// counts; missing or malformed tags yield zero.
func parseLoopComments(comments []string) (start, length int64) {
	for _, c := range comments {
		key, val, ok := strings.Cut(c, "=")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil || n < 0 {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "LOOPSTART":
			start = n
		case "LOOPLENGTH":
			length = n
		}
	}
	return start, length
}

func (s *StreamSource) SampleRate() int        { return s.sampleRate }
func (s *StreamSource) LoopStartFrames() int64 { return s.loopStart }

// SetPitch is never absorbed here; the mixer applies it.
func (s *StreamSource) SetPitch(pitch float32) bool { return false }

func (s *StreamSource) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	s.closer = nil
	return nil
}

func (s *StreamSource) SeekTo(offset float64) {
	pos := int64(offset * float64(s.sampleRate))
	if pos < 0 {
		pos = 0
	}
	if l := s.dec.Length(); l > 0 && pos > l {
		pos = l
	}
	if err := s.dec.SetPosition(pos); err != nil {
		if err := s.dec.SetPosition(0); err != nil {
			s.dead = true
		}
	}
}

// loopEnd is the first frame past the loop iteration, or 0 when the
// stream just runs to its natural end.
func (s *StreamSource) loopEnd() int64 {
	if s.looped && s.loopLength > 0 {
		return s.loopStart + s.loopLength
	}
	return 0
}

func (s *StreamSource) wrap() bool {
	return s.dec.SetPosition(s.loopStart) == nil
}

func (s *StreamSource) FillBuffer(dst *audio.PCM) audio.Status {
	if s.dead {
		return audio.StatusError
	}

	frames := streamBufSize / (2 * s.channels)
	want := frames * s.channels
	if cap(s.frameBuf) < want {
		s.frameBuf = make([]float32, want)
	}
	s.frameBuf = s.frameBuf[:want]

	if cap(dst.Data) < want*2 {
		dst.Data = make([]byte, want*2)
	}
	dst.Data = dst.Data[:want*2]
	dst.SampleRate = s.sampleRate
	dst.Channels = s.channels
	dst.Bits = 16

	filled := 0
	wrapped := false
	ended := false

	for filled < want {
		limit := want - filled

		if end := s.loopEnd(); end > 0 {
			remain := end - s.dec.Position()
			if remain <= 0 {
				if !s.wrap() {
					return audio.StatusError
				}
				wrapped = true
				continue
			}
			if int64(limit/s.channels) > remain {
				limit = int(remain) * s.channels
			}
		}

		n, err := s.dec.Read(s.frameBuf[filled : filled+limit])
		filled += n

		if err == io.EOF {
			if !s.looped {
				ended = true
				break
			}
			if !s.wrap() {
				return audio.StatusError
			}
			wrapped = true
			continue
		}
		if err != nil {
			return audio.StatusError
		}
	}

	for i := 0; i < filled; i++ {
		v := utils.Float32ToInt16(s.frameBuf[i])
		dst.Data[2*i] = byte(v)
		dst.Data[2*i+1] = byte(uint16(v) >> 8)
	}
	dst.Data = dst.Data[:filled*2]

	switch {
	case wrapped:
		return audio.StatusWrapAround
	case ended:
		return audio.StatusEndOfStream
	}
	return audio.StatusOK
}
