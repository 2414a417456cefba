// SPDX-License-Identifier: EPL-2.0

// Package playback binds the stream engine to a real output device.
//
// A Device implements the stream.Sink contract over a single oto player:
// it owns a small ring of PCM buffers, plays whatever the stream queues
// in FIFO order, and reports how many buffers the device has finished so
// the producer can recycle them.
//
// # Usage
//
//	dev, err := playback.New(44100, 2)
//	if err != nil {
//	    // Handle error
//	}
//	defer dev.Close()
//
//	st := stream.New(vfs.New(nil), dev, stream.NotLooped, "sfx")
//
// # Format adaptation
//
// Queued buffers keep their source format; the device adapts on the way
// out. Sample rates are converted by fractional frame stepping, mono
// material is duplicated across device channels, and pitch requested via
// SetPitch scales the stepping instead of touching the data.
//
// # The shared context
//
// The underlying audio context is a process-wide singleton. The first
// Device fixes its sample rate and channel count; later Devices share
// it regardless of the values they ask for.
package playback
