// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/audstream/utils"
)

// Status reports the outcome of filling one stream buffer.
type Status int

const (
	// StatusOK means the buffer was filled and more data follows.
	StatusOK Status = iota
	// StatusEndOfStream means the buffer holds the final chunk; no more
	// data will ever come.
	StatusEndOfStream
	// StatusWrapAround means the chunk spans a loop boundary and is the
	// last chunk of the pre-wrap iteration.
	StatusWrapAround
	// StatusError means the decoder failed and cannot recover.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEndOfStream:
		return "end of stream"
	case StatusWrapAround:
		return "wrap around"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// PCM is one chunk of decoded audio as the mixer consumes it:
// interleaved 16-bit little-endian samples.
type PCM struct {
	Data       []byte
	SampleRate int
	Channels   int
	Bits       int
}

// StreamSource produces PCM chunks for the stream driver. Implementations
// are pulled from a single producer goroutine; they do not need to be safe
// for concurrent use.
type StreamSource interface {
	// FillBuffer decodes the next chunk into dst, re-slicing dst.Data
	// to the number of bytes written.
	FillBuffer(dst *PCM) Status
	// SeekTo re-positions the decode cursor, in seconds.
	SeekTo(seconds float64)
	SampleRate() int
	// LoopStartFrames is the frame index the stream wraps back to
	// (often 0).
	LoopStartFrames() int64
	// SetPitch reports true if the source absorbs pitch itself; false
	// means the mixer has to apply it.
	SetPitch(pitch float32) bool
	Close() error
}

// DecodedStreamSource adapts any registered Decoder into a StreamSource.
// Seeking re-decodes from the start of the byte stream and skips ahead,
// so it works for formats whose decoders cannot seek natively. Pitch is
// absorbed by routing decode output through a Resampler.
type DecodedStreamSource struct {
	dec    Decoder
	rs     io.ReadSeeker
	closer io.Closer

	raw  Source // decoder output
	head Source // raw, or a resampler when pitch != 1

	looped     bool
	bufSize    int
	sampleRate int
	channels   int
	pitch      float32

	floatBuf []float32
	dead     bool
}

// NewDecodedStreamSource decodes rs with dec and wraps the result for
// streaming. bufSize is the chunk size in bytes handed out per fill.
// On failure rs is closed before returning; on success the returned
// source owns rs and closes it in Close.
func NewDecodedStreamSource(dec Decoder, rs io.ReadSeekCloser, bufSize int, looped bool) (*DecodedStreamSource, error) {
	src, err := dec.Decode(rs)
	if err != nil {
		rs.Close()
		return nil, fmt.Errorf("decoding stream: %w", err)
	}

	return &DecodedStreamSource{
		dec:        dec,
		rs:         rs,
		closer:     rs,
		raw:        src,
		head:       src,
		looped:     looped,
		bufSize:    bufSize,
		sampleRate: src.SampleRate(),
		channels:   src.Channels(),
		pitch:      1.0,
	}, nil
}

func (d *DecodedStreamSource) SampleRate() int        { return d.sampleRate }
func (d *DecodedStreamSource) LoopStartFrames() int64 { return 0 }

func (d *DecodedStreamSource) Close() error {
	if d.closer == nil {
		return nil
	}
	if err := d.closer.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	d.closer = nil
	return nil
}

// SetPitch re-rates the decode chain so the stream plays pitch times
// faster (and higher). Always absorbed here.
func (d *DecodedStreamSource) SetPitch(pitch float32) bool {
	if pitch <= 0 {
		return true
	}
	d.pitch = pitch
	d.rechain()
	return true
}

// rechain rebuilds the decode head for the current pitch. A pitch of 1
// reads the decoder output directly.
func (d *DecodedStreamSource) rechain() {
	if d.pitch == 1.0 {
		d.head = d.raw
		return
	}
	target := int(float64(d.sampleRate) / float64(d.pitch))
	if target < 1 {
		target = 1
	}
	d.head = NewResampler(d.raw, target)
}

// SeekTo rewinds the byte stream, re-decodes and skips offset seconds of
// frames. A decode failure marks the source dead; subsequent fills
// report StatusError.
func (d *DecodedStreamSource) SeekTo(offset float64) {
	if _, err := d.rs.Seek(0, io.SeekStart); err != nil {
		d.dead = true
		return
	}
	src, err := d.dec.Decode(d.rs)
	if err != nil {
		d.dead = true
		return
	}
	d.raw = src
	d.dead = false
	d.rechain()

	if offset <= 0 {
		return
	}
	d.skipFrames(int64(offset * float64(d.sampleRate)))
}

func (d *DecodedStreamSource) skipFrames(frames int64) {
	scratch := make([]float32, 4096*d.channels)
	remaining := frames * int64(d.channels)
	for remaining > 0 {
		want := int64(len(scratch))
		if want > remaining {
			want = remaining
		}
		n, err := d.raw.ReadSamples(scratch[:want])
		remaining -= int64(n)
		if err != nil || n == 0 {
			return
		}
	}
}

// rewind restarts decoding from frame zero, used on loop wrap.
func (d *DecodedStreamSource) rewind() bool {
	if _, err := d.rs.Seek(0, io.SeekStart); err != nil {
		return false
	}
	src, err := d.dec.Decode(d.rs)
	if err != nil {
		return false
	}
	d.raw = src
	d.rechain()
	return true
}

// FillBuffer reads decoded samples until dst holds bufSize bytes or the
// stream ends. A looped source that hits the end mid-fill rewinds and
// keeps filling; the chunk that crossed the boundary reports
// StatusWrapAround.
func (d *DecodedStreamSource) FillBuffer(dst *PCM) Status {
	if d.dead {
		return StatusError
	}

	frames := d.bufSize / (2 * d.channels)
	want := frames * d.channels
	if cap(d.floatBuf) < want {
		d.floatBuf = make([]float32, want)
	}
	d.floatBuf = d.floatBuf[:want]

	if cap(dst.Data) < want*2 {
		dst.Data = make([]byte, want*2)
	}
	dst.Data = dst.Data[:want*2]
	dst.SampleRate = d.sampleRate
	dst.Channels = d.channels
	dst.Bits = 16

	filled := 0
	wrapped := false
	ended := false

	for filled < want {
		n, err := d.head.ReadSamples(d.floatBuf[filled:want])
		filled += n

		if err == io.EOF {
			if !d.looped {
				ended = true
				break
			}
			if !d.rewind() {
				return StatusError
			}
			wrapped = true
			continue
		}
		if err != nil {
			return StatusError
		}
		if n == 0 {
			ended = true
			break
		}
	}

	for i := 0; i < filled; i++ {
		v := utils.Float32ToInt16(d.floatBuf[i])
		dst.Data[2*i] = byte(v)
		dst.Data[2*i+1] = byte(uint16(v) >> 8)
	}
	dst.Data = dst.Data[:filled*2]

	switch {
	case wrapped:
		return StatusWrapAround
	case ended:
		return StatusEndOfStream
	}
	return StatusOK
}
