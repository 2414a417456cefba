// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"sync"

	"github.com/ik5/audstream/audio"
)

// mockSource is a scriptable StreamSource. Each fill produces
// chunkFrames frames of silence and reports the next status from the
// script (the last entry repeats).
type mockSource struct {
	mu sync.Mutex

	rate        int
	channels    int
	chunkFrames int
	loopStart   int64

	statuses []audio.Status
	fills    int
	seeks    []float64

	pitchNative bool
	pitches     []float32

	closed bool

	// gate, when non-nil, blocks every fill until released once.
	gate chan struct{}
}

func newMockSource(rate, channels, chunkFrames int, statuses ...audio.Status) *mockSource {
	if len(statuses) == 0 {
		statuses = []audio.Status{audio.StatusOK}
	}
	return &mockSource{
		rate:        rate,
		channels:    channels,
		chunkFrames: chunkFrames,
		statuses:    statuses,
	}
}

func (m *mockSource) FillBuffer(dst *audio.PCM) audio.Status {
	if m.gate != nil {
		<-m.gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.fills
	m.fills++
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	status := m.statuses[idx]

	if status == audio.StatusError {
		return status
	}

	size := m.chunkFrames * m.channels * 2
	if cap(dst.Data) < size {
		dst.Data = make([]byte, size)
	}
	dst.Data = dst.Data[:size]
	dst.SampleRate = m.rate
	dst.Channels = m.channels
	dst.Bits = 16

	return status
}

func (m *mockSource) SeekTo(offset float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seeks = append(m.seeks, offset)
}

func (m *mockSource) SampleRate() int        { return m.rate }
func (m *mockSource) LoopStartFrames() int64 { return m.loopStart }

func (m *mockSource) SetPitch(pitch float32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pitches = append(m.pitches, pitch)
	return m.pitchNative
}

func (m *mockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

func (m *mockSource) fillCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fills
}

// mockSink is an in-memory Sink whose draining is driven by the test:
// markProcessed simulates the mixer finishing queued buffers.
type mockSink struct {
	mu sync.Mutex

	ids  []BufferID
	bufs map[BufferID]*audio.PCM

	queue     []BufferID
	processed int

	state SinkState

	volume float32
	pitch  float32

	playCalls  int
	pauseCalls int
	stopCalls  int
}

func newMockSink() *mockSink {
	s := &mockSink{
		bufs:  make(map[BufferID]*audio.PCM),
		state: SinkInitial,
	}
	for i := 1; i <= 3; i++ {
		id := BufferID(i)
		s.ids = append(s.ids, id)
		s.bufs[id] = &audio.PCM{}
	}
	return s
}

func (s *mockSink) SetVolume(v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

func (s *mockSink) SetPitch(v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pitch = v
}

func (s *mockSink) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SinkPlaying
	s.playCalls++
}

func (s *mockSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SinkPaused
	s.pauseCalls++
}

func (s *mockSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SinkStopped
	s.stopCalls++
}

func (s *mockSink) State() SinkState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *mockSink) SecondsOffset() float64 { return 0 }

func (s *mockSink) Buffers() []BufferID { return s.ids }

func (s *mockSink) Buffer(id BufferID) *audio.PCM { return s.bufs[id] }

func (s *mockSink) Queue(id BufferID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, id)
}

func (s *mockSink) Unqueue() BufferID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processed == 0 || len(s.queue) == 0 {
		return BufferID(0)
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	s.processed--
	return id
}

func (s *mockSink) Processed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed
}

func (s *mockSink) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	s.processed = 0
}

func (s *mockSink) Detach() {}

func (s *mockSink) Bits(id BufferID) int     { return s.bufs[id].Bits }
func (s *mockSink) Size(id BufferID) int     { return len(s.bufs[id].Data) }
func (s *mockSink) Channels(id BufferID) int { return s.bufs[id].Channels }

func (s *mockSink) queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// markProcessed simulates the mixer having finished n queued buffers.
func (s *mockSink) markProcessed(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processed+n > len(s.queue) {
		n = len(s.queue) - s.processed
	}
	s.processed += n
}

// setState forces a mixer-side state, bypassing the call counters.
func (s *mockSink) setState(st SinkState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

func (s *mockSink) plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playCalls
}
