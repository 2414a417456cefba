// SPDX-License-Identifier: EPL-2.0

// Package stream drives incremental audio playback: a decoder fills a
// small ring of PCM buffers that a mixer-side sink drains, with looping,
// seeking and pause semantics handled in between.
//
// # The Stream
//
// A Stream is a state machine over Closed, Stopped, Playing and Paused.
// Opening a file installs a source and moves the stream to Stopped;
// playing spawns a producer goroutine that keeps the sink's buffer ring
// filled until the sweep is stopped, the source errors out, or the
// stream is closed:
//
//	sink, _ := playback.New(44100, 2)
//	st := stream.New(vfs.New(nil), sink, stream.Looped, "bgm")
//
//	if err := st.Open("music/theme"); err != nil {
//	    // Handle error
//	}
//	st.Play(0)
//
// # Offset accounting
//
// Offset reports wall seconds within the current loop iteration. The
// producer accumulates the frames of every recycled buffer; when the
// buffer that crossed the loop boundary is recycled the count resets to
// the source's loop start, so callers observe the offset wrap exactly
// when the music does.
//
// # Pause before playback begins
//
// A Pause issued between Play and the moment the first buffer actually
// reaches the mixer is remembered rather than dropped: the producer's
// own attempt to start the sink honors the pending pause, so the user's
// pause always wins the race.
//
// # Sources
//
// Files are matched by content: "OggS" selects the Vorbis source,
// "MThd" the SoundFont synthesizer (when one is configured), and
// anything else a decoder picked from the registry by extension hint.
package stream
