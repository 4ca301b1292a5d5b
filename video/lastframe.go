package video

import (
	"sync"

	emucore "github.com/Zash60/MedNES/api"
	"github.com/Zash60/MedNES/driver"
)

// LastFrame is a headless presenter that keeps a copy of the most
// recent frame.
type LastFrame struct {
	mu     sync.Mutex
	pixels []uint32
	seq    uint64
	count  uint64
}

// NewLastFrame creates an empty LastFrame.
func NewLastFrame() *LastFrame {
	return &LastFrame{pixels: make([]uint32, emucore.FramePixels)}
}

// Present copies the frame.
func (l *LastFrame) Present(f driver.Frame) {
	l.mu.Lock()
	copy(l.pixels, f.Pixels)
	l.seq = f.Seq
	l.count++
	l.mu.Unlock()
}

// Snapshot copies the last frame into dst and returns its sequence
// number, or 0 if nothing was presented yet.
func (l *LastFrame) Snapshot(dst []uint32) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	copy(dst, l.pixels)
	return l.seq
}

// Count returns how many frames were presented.
func (l *LastFrame) Count() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
