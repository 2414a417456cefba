// SPDX-License-Identifier: EPL-2.0

// Package midi streams Standard MIDI Files as rendered PCM.
//
// MIDI files carry no audio, only events, so playback needs a
// synthesizer. This package renders through a SoundFont synthesizer
// (github.com/sinshu/go-meltysynth); the SoundFont to use is
// process-wide state:
//
//	midi.Configure(midi.Settings{SoundFont: "/usr/share/sounds/sf2/default.sf2"})
//
// The font is loaded lazily by InitIfNeeded, which the stream opener
// calls the first time it meets an "MThd" signature. When no font is
// configured, Available reports false and the opener falls back to its
// generic path.
//
// # Output Format
//
// Rendered audio is stereo 16-bit PCM at 44.1kHz, regardless of the
// MIDI file. Looping restarts the sequence at the top; the sequencer
// has no notion of intra-song loop points.
//
// # Seeking
//
// The sequencer cannot jump; SeekTo restarts the sequence and renders
// the skipped span into the void. Seeking deep into a long file is
// accordingly not free.
package midi
