package audio

import (
	"io"
	"sync"
)

// RingBuffer is a fixed-capacity byte FIFO between a producer that must
// be paced and a device reader that must never stall. Write blocks while
// the buffer is full; Read never blocks and pads any shortfall with
// silence.
type RingBuffer struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	buf      []byte
	readPos  int
	count    int
	closed   bool
	underrun uint64
}

// NewRingBuffer creates a ring buffer holding up to capacity bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	rb := &RingBuffer{buf: make([]byte, capacity)}
	rb.notFull = sync.NewCond(&rb.mu)
	return rb
}

// Write copies p into the buffer, blocking while it is full. It returns
// io.ErrClosedPipe once the buffer is closed.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for written < len(p) {
		for rb.count == len(rb.buf) && !rb.closed {
			rb.notFull.Wait()
		}
		if rb.closed {
			return written, io.ErrClosedPipe
		}
		writePos := (rb.readPos + rb.count) % len(rb.buf)
		free := len(rb.buf) - rb.count
		n := min(free, len(p)-written, len(rb.buf)-writePos)
		copy(rb.buf[writePos:writePos+n], p[written:written+n])
		rb.count += n
		written += n
	}
	return written, nil
}

// Read fills p with buffered bytes followed by zeros. After Close it
// drains what is left and then returns io.EOF.
func (rb *RingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed && rb.count == 0 {
		return 0, io.EOF
	}

	read := 0
	for read < len(p) && rb.count > 0 {
		n := min(rb.count, len(p)-read, len(rb.buf)-rb.readPos)
		copy(p[read:read+n], rb.buf[rb.readPos:rb.readPos+n])
		rb.readPos = (rb.readPos + n) % len(rb.buf)
		rb.count -= n
		read += n
	}
	if read > 0 {
		rb.notFull.Broadcast()
	}
	if rb.closed {
		return read, nil
	}
	if read < len(p) {
		rb.underrun++
		clear(p[read:])
	}
	return len(p), nil
}

// Buffered returns the number of bytes waiting to be read.
func (rb *RingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Underruns returns how many reads were padded with silence.
func (rb *RingBuffer) Underruns() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.underrun
}

// Clear drops all buffered bytes and wakes blocked writers.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	rb.readPos = 0
	rb.count = 0
	rb.notFull.Broadcast()
	rb.mu.Unlock()
}

// Close wakes blocked writers and makes further writes fail.
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.notFull.Broadcast()
	rb.mu.Unlock()
}
