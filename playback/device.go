// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/ik5/audstream/audio"
	"github.com/ik5/audstream/stream"
)

// deviceBufs is the size of each device's buffer ring.
const deviceBufs = 3

// Device is a stream.Sink over one oto player. Queued PCM buffers are
// drained FIFO by the player's pull reader, which also resamples to the
// device rate, adapts channel counts and applies pitch by fractional
// frame stepping.
type Device struct {
	mu sync.Mutex

	sampleRate int
	channels   int

	ids  []stream.BufferID
	bufs map[stream.BufferID]*audio.PCM

	// queue is the FIFO of queued buffers; the first processed entries
	// have been fully consumed by the reader but not yet unqueued.
	queue     []stream.BufferID
	processed int
	// headPos is the fractional frame position within the buffer
	// currently being read, queue[processed].
	headPos float64

	state stream.SinkState
	pitch float64

	player *oto.Player
}

// New opens a Device on the shared audio context. The first Device
// created fixes the context's rate and channel count.
func New(sampleRate, channels int) (*Device, error) {
	ctx, err := otoContext(sampleRate, channels)
	if err != nil {
		return nil, err
	}

	d := newDevice(sampleRate, channels)
	d.player = ctx.NewPlayer(d)
	d.player.SetVolume(1.0)

	return d, nil
}

// newDevice builds the bookkeeping half without a player attached.
func newDevice(sampleRate, channels int) *Device {
	d := &Device{
		sampleRate: sampleRate,
		channels:   channels,
		bufs:       make(map[stream.BufferID]*audio.PCM),
		state:      stream.SinkInitial,
		pitch:      1.0,
	}

	for i := 1; i <= deviceBufs; i++ {
		id := stream.BufferID(i)
		d.ids = append(d.ids, id)
		d.bufs[id] = &audio.PCM{}
	}

	return d
}

// Close releases the player. The shared context stays up for other
// devices.
func (d *Device) Close() error {
	if d.player == nil {
		return nil
	}
	return d.player.Close()
}

func (d *Device) SetVolume(v float32) {
	if d.player != nil {
		d.player.SetVolume(float64(v))
	}
}

func (d *Device) SetPitch(v float32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if v > 0 {
		d.pitch = float64(v)
	}
}

func (d *Device) Play() {
	d.mu.Lock()
	d.state = stream.SinkPlaying
	d.mu.Unlock()

	if d.player != nil {
		d.player.Play()
	}
}

func (d *Device) Pause() {
	d.mu.Lock()
	d.state = stream.SinkPaused
	d.mu.Unlock()

	if d.player != nil {
		d.player.Pause()
	}
}

func (d *Device) Stop() {
	d.mu.Lock()
	d.state = stream.SinkStopped
	d.mu.Unlock()

	if d.player != nil {
		d.player.Pause()
	}
}

func (d *Device) State() stream.SinkState {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

func (d *Device) Buffers() []stream.BufferID { return d.ids }

func (d *Device) Buffer(id stream.BufferID) *audio.PCM { return d.bufs[id] }

func (d *Device) Queue(id stream.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue = append(d.queue, id)
}

func (d *Device) Unqueue() stream.BufferID {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.processed == 0 || len(d.queue) == 0 {
		return stream.BufferID(0)
	}

	id := d.queue[0]
	d.queue = d.queue[1:]
	d.processed--

	return id
}

func (d *Device) Processed() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.processed
}

func (d *Device) ClearQueue() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue = nil
	d.processed = 0
	d.headPos = 0
}

func (d *Device) Detach() {
	d.ClearQueue()
}

func (d *Device) Bits(id stream.BufferID) int { return d.bufs[id].Bits }

func (d *Device) Size(id stream.BufferID) int { return len(d.bufs[id].Data) }

func (d *Device) Channels(id stream.BufferID) int { return d.bufs[id].Channels }

// SecondsOffset is the amount of queued source material already
// consumed, counted from the first still-queued buffer.
func (d *Device) SecondsOffset() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	var sum float64
	for i := 0; i < d.processed && i < len(d.queue); i++ {
		pcm := d.bufs[d.queue[i]]
		if frames, rate := pcmFrames(pcm), pcm.SampleRate; frames > 0 && rate > 0 {
			sum += float64(frames) / float64(rate)
		}
	}

	if d.processed < len(d.queue) {
		pcm := d.bufs[d.queue[d.processed]]
		if pcm.SampleRate > 0 {
			sum += d.headPos / float64(pcm.SampleRate)
		}
	}

	return sum
}

func pcmFrames(pcm *audio.PCM) int {
	if pcm.Channels == 0 || pcm.Bits == 0 {
		return 0
	}
	return len(pcm.Data) / (pcm.Bits / 8) / pcm.Channels
}

// sampleAt reads one interpolated sample for channel ch at fractional
// frame pos, clamping at the buffer edge.
func sampleAt(pcm *audio.PCM, pos float64, ch int) int16 {
	frames := pcmFrames(pcm)
	if frames == 0 {
		return 0
	}

	i := int(pos)
	if i >= frames {
		i = frames - 1
	}
	frac := pos - float64(i)

	s0 := pcmSample(pcm, i, ch)
	if i+1 >= frames {
		return s0
	}
	s1 := pcmSample(pcm, i+1, ch)

	return int16(float64(s0) + frac*float64(s1-s0))
}

func pcmSample(pcm *audio.PCM, frame, ch int) int16 {
	if ch >= pcm.Channels {
		ch = pcm.Channels - 1
	}
	idx := (frame*pcm.Channels + ch) * 2
	return int16(uint16(pcm.Data[idx]) | uint16(pcm.Data[idx+1])<<8)
}

// Read feeds the player: device-rate frames pulled out of the queue.
// When the queue runs dry mid-playback the device flips to Stopped and
// silence keeps the player ticking until the producer queues more data
// and calls Play again.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	frameBytes := 2 * d.channels

	for off := 0; off+frameBytes <= len(p); off += frameBytes {
		pcm, ok := d.current()
		if !ok {
			if d.state == stream.SinkPlaying {
				d.state = stream.SinkStopped
			}
			for i := off; i < len(p); i++ {
				p[i] = 0
			}
			return len(p), nil
		}

		for ch := 0; ch < d.channels; ch++ {
			v := sampleAt(pcm, d.headPos, ch)
			p[off+2*ch] = byte(v)
			p[off+2*ch+1] = byte(uint16(v) >> 8)
		}

		step := d.pitch
		if pcm.SampleRate > 0 {
			step *= float64(pcm.SampleRate) / float64(d.sampleRate)
		}
		d.headPos += step
	}

	// Buffers spent exactly at the end of the read still count as
	// processed now, not on the next read.
	d.current()

	n := len(p) / frameBytes * frameBytes
	return n, nil
}

// current advances past fully consumed buffers and returns the one the
// reader is positioned in.
func (d *Device) current() (*audio.PCM, bool) {
	for d.processed < len(d.queue) {
		pcm := d.bufs[d.queue[d.processed]]
		frames := pcmFrames(pcm)

		if d.headPos < float64(frames) {
			return pcm, true
		}

		d.headPos -= float64(frames)
		if frames == 0 {
			d.headPos = 0
		}
		d.processed++
	}

	return nil, false
}
