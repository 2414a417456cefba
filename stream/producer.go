// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"time"

	"github.com/ik5/audstream/audio"
)

// streamData is the producer goroutine: one run per sweep. Phase 1 fills
// the whole buffer ring; phase 2 recycles buffers as the mixer finishes
// them. It exits on a termination request or a decoder error — never on
// end of stream, since the sink still has queued data to drain.
func (s *Stream) streamData(done chan struct{}) {
	defer close(done)

	l := s.log.WithField("thread", s.threadName)
	l.Debug("producer started")
	defer l.Debug("producer finished")

	firstBuffer := true
	var status audio.Status

	if s.threadTermReq.isSet() {
		return
	}

	// The seek happens even when the cursor would already be in place;
	// a fresh sweep always re-positions the source.
	s.source.SeekTo(s.startOffset)

	for _, buf := range s.sink.Buffers() {
		if s.threadTermReq.isSet() {
			return
		}

		status = s.source.FillBuffer(s.sink.Buffer(buf))

		if status == audio.StatusError {
			return
		}

		s.sink.Queue(buf)

		if firstBuffer {
			s.resumeStream()

			firstBuffer = false
			s.streamInited.set()
		}

		if s.threadTermReq.isSet() {
			return
		}

		if status == audio.StatusEndOfStream {
			s.sourceExhausted.set()
			break
		}
	}

	// Wait for buffers to be consumed, then refill and queue them up
	// again.
	for {
		if s.syncPoint != nil {
			s.syncPoint()
		}

		procBufs := s.sink.Processed()

		for ; procBufs > 0; procBufs-- {
			if s.threadTermReq.isSet() {
				break
			}

			buf := s.sink.Unqueue()

			// Nothing came back; try again later.
			if buf == BufferID(0) {
				break
			}

			if buf == s.lastBuf {
				// The loop wrapped; the played-frame count
				// restarts at the loop point so Offset resets.
				s.procFrames.Store(s.source.LoopStartFrames())
				s.lastBuf = BufferID(0)
			} else {
				bits := s.sink.Bits(buf)
				size := s.sink.Size(buf)
				chans := s.sink.Channels(buf)

				if bits != 0 && chans != 0 {
					s.procFrames.Add(int64((size / (bits / 8)) / chans))
				}
			}

			if s.sourceExhausted.isSet() {
				continue
			}

			status = s.source.FillBuffer(s.sink.Buffer(buf))

			if status == audio.StatusError {
				s.sourceExhausted.set()
				return
			}

			s.sink.Queue(buf)

			// The mixer ran dry while we were refilling; kick it
			// back into motion.
			if s.sink.State() == SinkStopped {
				s.sink.Play()
			}

			// The last buffer before the source wrapped around:
			// catching its unqueue is what resets the
			// played-frame count.
			if status == audio.StatusWrapAround {
				s.lastBuf = buf
			}

			if status == audio.StatusEndOfStream {
				s.sourceExhausted.set()
			}
		}

		if s.threadTermReq.isSet() {
			break
		}

		time.Sleep(audioSleep)
	}
}
