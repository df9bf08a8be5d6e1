package ui

import (
	"io"
	"sync"
)

// bytesPerFrame is one stereo frame of 16-bit samples.
const bytesPerFrame = 4

// AudioRingBuffer holds little-endian 16-bit stereo PCM between the
// emulation goroutine and oto's player, which pulls through Read.
// Read blocks while empty. WriteSamples never blocks: on overflow the
// oldest whole frames are dropped so channels stay aligned.
type AudioRingBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	head   int // next byte to read
	size   int // buffered bytes, always a multiple of bytesPerFrame
	closed bool
}

// NewAudioRingBuffer creates a ring buffer of about capacity bytes,
// rounded down to whole frames.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	capacity -= capacity % bytesPerFrame
	if capacity < bytesPerFrame {
		capacity = bytesPerFrame
	}
	rb := &AudioRingBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// WriteSamples appends interleaved stereo samples. A trailing odd
// sample is ignored.
func (rb *AudioRingBuffer) WriteSamples(samples []int16) {
	frames := len(samples) / 2
	if frames == 0 {
		return
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closed {
		return
	}

	capFrames := len(rb.buf) / bytesPerFrame
	if frames > capFrames {
		samples = samples[(frames-capFrames)*2:]
		frames = capFrames
	}

	need := frames * bytesPerFrame
	if over := rb.size + need - len(rb.buf); over > 0 {
		rb.head = (rb.head + over) % len(rb.buf)
		rb.size -= over
	}

	pos := (rb.head + rb.size) % len(rb.buf)
	for _, s := range samples[:frames*2] {
		rb.buf[pos] = byte(s)
		rb.buf[pos+1] = byte(s >> 8)
		pos += 2
		if pos == len(rb.buf) {
			pos = 0
		}
	}
	rb.size += need
	rb.cond.Signal()
}

// Read implements io.Reader. Returns io.EOF once closed and drained.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.size == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.cond.Wait()
	}

	n := len(p)
	if n > rb.size {
		n = rb.size
	}
	if n >= bytesPerFrame {
		n -= n % bytesPerFrame
	}
	first := copy(p[:n], rb.buf[rb.head:])
	if first < n {
		copy(p[first:n], rb.buf)
	}
	rb.head = (rb.head + n) % len(rb.buf)
	rb.size -= n
	return n, nil
}

// Buffered returns the number of bytes waiting to be read.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Clear discards everything buffered.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	rb.head = 0
	rb.size = 0
	rb.mu.Unlock()
}

// Close wakes any blocked reader. Reads drain what is left, then
// return io.EOF.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.cond.Broadcast()
	rb.mu.Unlock()
}
