// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"io"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/formats/aiff"
	"github.com/ik5/audstream/formats/midi"
	"github.com/ik5/audstream/formats/mp3"
	"github.com/ik5/audstream/formats/vorbis"
	"github.com/ik5/audstream/formats/wav"
)

// DefaultRegistry lists the decoders consulted, by extension hint, for
// sources that are neither Ogg Vorbis nor MIDI.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})
	return r
}

// openHandler picks a source constructor by content: the first four
// bytes decide between Vorbis, MIDI and the extension-hinted generic
// path. Source constructors close the byte stream on their failure path,
// so the handler never double-closes.
type openHandler struct {
	looped   bool
	registry *audio.Registry

	source   audio.StreamSource
	errorMsg string
}

func (h *openHandler) TryRead(rs io.ReadSeekCloser, ext string) bool {
	var sig [4]byte
	n, _ := io.ReadFull(rs, sig[:])
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		rs.Close()
		h.errorMsg = err.Error()
		return false
	}

	if n == 4 && string(sig[:]) == "OggS" {
		src, err := vorbis.NewStreamSource(rs, h.looped)
		if err != nil {
			h.errorMsg = err.Error()
			return false
		}
		h.source = src
		return true
	}

	if n == 4 && string(sig[:]) == "MThd" {
		midi.InitIfNeeded()

		if midi.Available() {
			src, err := midi.NewStreamSource(rs, h.looped)
			if err != nil {
				h.errorMsg = err.Error()
				return false
			}
			h.source = src
			return true
		}

		// No synthesizer; fall through to the generic path.
	}

	dec, ok := h.registry.Get(ext)
	if !ok {
		rs.Close()
		h.errorMsg = audio.ErrUnknownFormat.Error() + ": " + ext
		return false
	}

	src, err := audio.NewDecodedStreamSource(dec, rs, streamBufSize, h.looped)
	if err != nil {
		h.errorMsg = err.Error()
		return false
	}
	h.source = src
	return true
}
