// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"

	"github.com/ik5/audstream/audio"
)

// SinkState is the mixer-side playback state of a sink.
type SinkState int

const (
	// SinkInitial is the state before the first Play.
	SinkInitial SinkState = iota
	SinkPlaying
	SinkPaused
	// SinkStopped is reached by an explicit Stop or by draining the
	// queue (underrun).
	SinkStopped
)

func (s SinkState) String() string {
	switch s {
	case SinkInitial:
		return "initial"
	case SinkPlaying:
		return "playing"
	case SinkPaused:
		return "paused"
	case SinkStopped:
		return "stopped"
	}
	return fmt.Sprintf("SinkState(%d)", int(s))
}

// BufferID names one buffer of a sink's pool. The zero value is the null
// buffer.
type BufferID int

// Sink is a mixer-side playback channel owning a small pool of PCM
// buffers. The stream queues filled buffers in decode order; the sink
// drains them asynchronously in that same order.
//
// Two goroutines touch a sink: the control side (volume, pitch,
// play/pause/stop, clearing) and the producer (queue, unqueue, play for
// underrun recovery). Implementations must be safe for that.
type Sink interface {
	SetVolume(v float32)
	SetPitch(v float32)

	Play()
	Pause()
	Stop()
	State() SinkState

	// SecondsOffset is the playback position in seconds relative to
	// the start of the currently queued data.
	SecondsOffset() float64

	// Buffers lists the sink's buffer pool. The list is fixed for the
	// sink's lifetime.
	Buffers() []BufferID
	// Buffer exposes a pool buffer for filling. Only unqueued buffers
	// may be written.
	Buffer(id BufferID) *audio.PCM

	Queue(id BufferID)
	// Unqueue removes the oldest fully played buffer from the queue,
	// or returns the null buffer when none is ready.
	Unqueue() BufferID
	// Processed counts queued buffers that have been fully played and
	// can be unqueued.
	Processed() int
	ClearQueue()
	// Detach drops any buffer attachment left from earlier use.
	Detach()

	Bits(id BufferID) int
	Size(id BufferID) int
	Channels(id BufferID) int
}
