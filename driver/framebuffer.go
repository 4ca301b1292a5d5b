package driver

import (
	"sync"

	emucore "github.com/Zash60/MedNES/api"
)

// Frame is a read-only view of a completed frame handed to the Presenter.
// Pixels is only valid for the duration of the Present call; a presenter
// that needs the data later must copy it.
type Frame struct {
	Seq    uint64
	Pixels []uint32
}

// FrameBuffer is the double-buffered Pixel Buffer. The frame pump writes
// into the back buffer and publishes it with swap; readers only ever see
// the front buffer, which always holds a fully completed frame.
type FrameBuffer struct {
	mu    sync.RWMutex
	bufs  [2][]uint32
	front int
	seq   uint64 // sequence of the frame in the front buffer, 0 = none yet
}

// NewFrameBuffer allocates both 256x240 buffers.
func NewFrameBuffer() *FrameBuffer {
	fb := &FrameBuffer{}
	for i := range fb.bufs {
		fb.bufs[i] = make([]uint32, emucore.FramePixels)
	}
	return fb
}

// back returns the buffer the next frame is written into. Only the frame
// pump calls this, and only between swaps.
func (fb *FrameBuffer) back() []uint32 {
	return fb.bufs[1-fb.front]
}

// swap publishes the back buffer as the newest completed frame.
func (fb *FrameBuffer) swap() Frame {
	fb.mu.Lock()
	fb.front = 1 - fb.front
	fb.seq++
	f := Frame{Seq: fb.seq, Pixels: fb.bufs[fb.front]}
	fb.mu.Unlock()
	return f
}

// Snapshot copies the newest completed frame into dst and returns its
// sequence number. It returns 0 before the first frame completes.
func (fb *FrameBuffer) Snapshot(dst []uint32) uint64 {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	if fb.seq == 0 {
		return 0
	}
	copy(dst, fb.bufs[fb.front])
	return fb.seq
}

// Seq returns the sequence number of the newest completed frame.
func (fb *FrameBuffer) Seq() uint64 {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.seq
}
