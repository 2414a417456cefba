// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/log"
	"github.com/ik5/audstream/vfs"
)

const (
	// streamBufSize is the chunk size, in bytes, generic sources
	// decode per buffer.
	streamBufSize = 32768

	// audioSleep is how long the producer idles between refill passes.
	audioSleep = 10 * time.Millisecond
)

// State of a stream.
type State int

const (
	// Closed means no source is installed; Open is the only way out.
	Closed State = iota
	Stopped
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// LoopMode selects whether sources are built looping.
type LoopMode int

const (
	NotLooped LoopMode = iota
	Looped
)

// Stream drives one decoder against one sink: a producer goroutine fills
// and queues the sink's buffer ring while the mixer drains it, and the
// control surface below moves the stream through
// Closed/Stopped/Playing/Paused.
//
// The control surface is meant for a single goroutine; the producer is
// the only concurrency a Stream manages itself.
type Stream struct {
	fs     *vfs.FS
	sink   Sink
	looped bool

	threadName string
	registry   *audio.Registry

	state  State
	source audio.StreamSource
	pitch  float32

	startOffset float64
	procFrames  atomic.Int64
	lastBuf     BufferID

	pauseMu      sync.Mutex
	preemptPause bool

	threadTermReq   flag
	streamInited    flag
	sourceExhausted flag
	needsRewind     flag

	// producerDone is non-nil while a producer goroutine is running or
	// has terminated but not yet been joined.
	producerDone chan struct{}

	syncPoint func()
	log       *logrus.Logger
}

// Option tweaks a Stream at construction.
type Option func(*Stream)

// WithSyncPoint installs a hook the producer passes at the top of every
// refill pass, so a host scheduler can gate it at a known barrier.
func WithSyncPoint(fn func()) Option {
	return func(s *Stream) { s.syncPoint = fn }
}

// WithLogger replaces the default logger.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Stream) { s.log = l }
}

// WithRegistry replaces the decoder registry consulted for sources that
// are neither Ogg Vorbis nor MIDI.
func WithRegistry(r *audio.Registry) Option {
	return func(s *Stream) { s.registry = r }
}

// New builds a Stream over fsys and sink. The loop mode is fixed for the
// stream's lifetime; threadID only labels log output.
func New(fsys *vfs.FS, sink Sink, mode LoopMode, threadID string, opts ...Option) *Stream {
	s := &Stream{
		fs:         fsys,
		sink:       sink,
		looped:     mode == Looped,
		threadName: "stream (" + threadID + ")",
		registry:   DefaultRegistry(),
		pitch:      1.0,
		log:        log.GetLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	sink.SetVolume(1.0)
	sink.SetPitch(1.0)
	sink.Detach()

	return s
}

// Open resolves filename through the filesystem and installs a fresh
// source. A name that matches nothing leaves the current stream as it
// was; a file that matched but failed to open closes it. A file that
// opened but would not decode also closes it — the failure is logged and
// Open returns nil, leaving the stream Closed so Play becomes a silent
// no-op.
func (s *Stream) Open(filename string) error {
	h := &openHandler{looped: s.looped, registry: s.registry}

	if err := s.fs.OpenRead(h, filename); err != nil {
		if !errors.Is(err, vfs.ErrNoFile) {
			s.Close()
		}
		return err
	}

	s.Close()

	if h.source == nil {
		s.log.Warnf("unable to decode audio stream: %s: %s", filename, h.errorMsg)
		return nil
	}

	s.source = h.source
	s.needsRewind.clear()
	s.state = Stopped

	return nil
}

// Close stops playback, destroys the source and leaves the stream
// Closed. Safe to call repeatedly.
func (s *Stream) Close() {
	s.checkStopped()

	switch s.state {
	case Playing, Paused:
		s.stopStream()
		fallthrough
	case Stopped:
		s.closeSource()
		s.state = Closed
	}
}

// Play starts a new sweep from offset seconds when Stopped, or resumes
// when Paused. Without a source, or when Closed or already Playing, it
// does nothing.
func (s *Stream) Play(offset float64) {
	if s.source == nil {
		return
	}

	s.checkStopped()

	switch s.state {
	case Closed, Playing:
		return
	case Stopped:
		s.startStream(offset)
	case Paused:
		s.resumeStream()
	}

	s.state = Playing
}

// Pause suspends playback. A no-op unless Playing.
func (s *Stream) Pause() {
	s.checkStopped()

	switch s.state {
	case Closed, Stopped, Paused:
		return
	case Playing:
		s.pauseStream()
	}

	s.state = Paused
}

// Stop ends the current sweep. A no-op when Closed or Stopped.
func (s *Stream) Stop() {
	s.checkStopped()

	switch s.state {
	case Closed, Stopped:
		return
	case Playing, Paused:
		s.stopStream()
	}

	s.state = Stopped
}

// SetVolume forwards to the sink, in any state.
func (s *Stream) SetVolume(v float32) {
	s.sink.SetVolume(v)
}

// SetPitch applies pitch at the source when it can absorb it natively,
// otherwise at the sink.
func (s *Stream) SetPitch(v float32) {
	s.pitch = v

	if s.source != nil && s.source.SetPitch(v) {
		s.sink.SetPitch(1.0)
	} else {
		s.sink.SetPitch(v)
	}
}

// State reports the stream state, folding in a sweep that ended on its
// own.
func (s *Stream) State() State {
	s.checkStopped()

	return s.state
}

// Offset is the playback position in seconds within the current loop
// iteration.
func (s *Stream) Offset() float64 {
	if s.state == Closed || s.source == nil {
		return 0
	}

	procOffset := float64(s.procFrames.Load()) / float64(s.source.SampleRate())

	return procOffset + s.sink.SecondsOffset()
}

func (s *Stream) closeSource() {
	if s.source == nil {
		return
	}
	if err := s.source.Close(); err != nil {
		s.log.Warnf("closing source: %v", err)
	}
	s.source = nil
}

func (s *Stream) startStream(offset float64) {
	s.sink.ClearQueue()

	s.preemptPause = false
	s.streamInited.clear()
	s.sourceExhausted.clear()
	s.threadTermReq.clear()

	s.startOffset = offset
	s.procFrames.Store(int64(offset * float64(s.source.SampleRate())))

	s.producerDone = make(chan struct{})
	go s.streamData(s.producerDone)
}

func (s *Stream) stopStream() {
	s.threadTermReq.set()

	if s.producerDone != nil {
		<-s.producerDone
		s.producerDone = nil
		s.needsRewind.set()
	}

	// Stop the sink only after the producer is joined; up until it
	// sees the termination request it may start the sink again for
	// underrun recovery.
	s.sink.Stop()

	s.procFrames.Store(0)
}

func (s *Stream) pauseStream() {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()

	if s.sink.State() != SinkPlaying {
		// Playback has not actually begun yet. Remember the pause
		// instead of issuing it; the producer honors it when it
		// first tries to start the sink.
		s.preemptPause = true
	} else {
		s.sink.Pause()
	}
}

func (s *Stream) resumeStream() {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()

	if s.preemptPause {
		s.preemptPause = false
	} else {
		s.sink.Play()
	}
}

// checkStopped notices a sweep that ended on its own (source exhausted
// and the sink drained) and folds the stream back to Stopped.
func (s *Stream) checkStopped() {
	if s.state != Playing {
		return
	}

	// Nothing queued yet; the sink state means nothing.
	if !s.streamInited.isSet() {
		return
	}

	// Sink not playing with data still coming is just an underrun.
	if !s.sourceExhausted.isSet() {
		return
	}

	if s.sink.State() == SinkPlaying {
		return
	}

	s.stopStream()
	s.state = Stopped
}
