package video

import (
	"sync"

	emucore "github.com/Zash60/MedNES/api"
	"github.com/Zash60/MedNES/driver"
)

// sharedFramebuffer holds RGBA pixels written by the frame pump and read
// by ebiten's Draw. Separate write and read buffers let the pump convert
// the next frame while Draw uploads the previous one.
type sharedFramebuffer struct {
	mu          sync.Mutex
	writePixels []byte
	readPixels  []byte
	seq         uint64
}

func newSharedFramebuffer() *sharedFramebuffer {
	size := emucore.FramePixels * 4
	return &sharedFramebuffer{
		writePixels: make([]byte, size),
		readPixels:  make([]byte, size),
	}
}

// update converts a completed frame into the write buffer.
func (sf *sharedFramebuffer) update(f driver.Frame) {
	sf.mu.Lock()
	ARGBToRGBA(sf.writePixels, f.Pixels)
	sf.seq = f.Seq
	sf.mu.Unlock()
}

// read returns a snapshot of the newest frame, which the caller may use
// without holding the lock until the next call.
func (sf *sharedFramebuffer) read() (pixels []byte, seq uint64) {
	sf.mu.Lock()
	seq = sf.seq
	if seq > 0 {
		copy(sf.readPixels, sf.writePixels)
	}
	pixels = sf.readPixels
	sf.mu.Unlock()
	return pixels, seq
}
