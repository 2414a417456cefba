// SPDX-License-Identifier: EPL-2.0

// Package audstream is a streaming audio playback engine for Go
// applications.
//
// An audstream stream decodes a compressed or structured audio file
// incrementally and feeds an output device through a small ring of PCM
// buffers, with a control surface for open/play/pause/stop, volume,
// pitch, seeking and playback-offset queries.
//
// # Supported Formats
//
// Sources are selected by file content:
//   - Ogg Vorbis (signature "OggS") via formats/vorbis, including
//     LOOPSTART/LOOPLENGTH loop tags
//   - Standard MIDI files (signature "MThd") via formats/midi, rendered
//     through a SoundFont synthesizer
//   - WAV, MP3 and AIFF by extension via formats/wav, formats/mp3 and
//     formats/aiff
//
// # Quick Start
//
//	sink, err := playback.New(44100, 2)
//	if err != nil {
//	    // Handle error
//	}
//
//	st := stream.New(vfs.New(nil), sink, stream.Looped, "bgm")
//	if err := st.Open("audio/theme"); err != nil {
//	    // Handle error
//	}
//
//	st.Play(0)
//	// ... later
//	st.Close()
//
// The stream resolves names through a virtual filesystem, so "audio/theme"
// matches audio/theme.ogg, audio/theme.mid and friends.
//
// # Streaming Model
//
// Each playing stream runs one producer goroutine that keeps the sink's
// buffer ring filled while the device drains it. Looping wraps without a
// gap, a momentary underrun restarts the device silently, and a pause
// that races playback startup is honored rather than lost. See the
// stream package for the details.
//
// # Decode Utilities
//
// The audio subpackage keeps the lower-level building blocks public:
//
//	// Resample to 16kHz mono 16-bit PCM
//	src, _ := wav.Decoder{}.Decode(file)
//	pcm16, rate, _ := audio.ResampleToMono16(src, 16000, 4096)
//
// See the individual subpackages for more detailed documentation.
package audstream
