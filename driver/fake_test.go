package driver

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	emucore "github.com/Zash60/MedNES/api"
)

// fakeCore is a scriptable core that also detects overlapping calls.
type fakeCore struct {
	fps     int
	loadErr error
	// loadFPS, if set, replaces fps once an image loads.
	loadFPS int

	// advance, if set, runs inside AdvanceFrame with the 1-based frame
	// number.
	advance func(n uint64, pixels []uint32) error
	// pull, if set, runs inside PullAudio with the 1-based poll number.
	pull func(n uint64, buf []int16) int

	inside   atomic.Int32
	overlaps atomic.Int32
	frames   atomic.Uint64
	polls    atomic.Uint64
	loads    atomic.Int32
	inputs   atomic.Int32
	held     atomic.Uint32 // button mask as seen by the core
	closed   atomic.Bool
}

func (f *fakeCore) enter() {
	if f.inside.Add(1) != 1 {
		f.overlaps.Add(1)
	}
}

func (f *fakeCore) exit() { f.inside.Add(-1) }

func (f *fakeCore) LoadImage(img emucore.Image) error {
	f.enter()
	defer f.exit()
	f.loads.Add(1)
	if f.loadErr == nil && f.loadFPS > 0 {
		f.fps = f.loadFPS
	}
	return f.loadErr
}

func (f *fakeCore) AdvanceFrame(pixels []uint32) error {
	f.enter()
	defer f.exit()
	n := f.frames.Add(1)
	if f.advance != nil {
		return f.advance(n, pixels)
	}
	for i := range pixels {
		pixels[i] = uint32(n)
	}
	return nil
}

func (f *fakeCore) PullAudio(buf []int16) int {
	f.enter()
	defer f.exit()
	n := f.polls.Add(1)
	if f.pull != nil {
		return f.pull(n, buf)
	}
	return 0
}

func (f *fakeCore) SendInput(b emucore.Button, pressed bool) {
	f.enter()
	defer f.exit()
	f.inputs.Add(1)
	bit := uint32(1) << b
	if pressed {
		f.held.Or(bit)
	} else {
		f.held.And(^bit)
	}
}

func (f *fakeCore) isHeld(b emucore.Button) bool {
	return f.held.Load()&(1<<b) != 0
}

func (f *fakeCore) AudioFormat() emucore.AudioFormat { return emucore.DefaultAudioFormat }

func (f *fakeCore) Timing() emucore.Timing {
	if f.fps > 0 {
		return emucore.Timing{FPS: f.fps}
	}
	return emucore.DefaultTiming
}

func (f *fakeCore) Close() error {
	f.closed.Store(true)
	return nil
}

// recordSink records every write. An optional err is returned from each
// write.
type recordSink struct {
	mu     sync.Mutex
	writes [][]int16
	err    error
}

func (s *recordSink) Write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, append([]int16(nil), samples...))
	return s.err
}

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// seqPresenter records presented sequence numbers.
type seqPresenter struct {
	mu   sync.Mutex
	seqs []uint64
}

func (p *seqPresenter) Present(f Frame) {
	p.mu.Lock()
	p.seqs = append(p.seqs, f.Seq)
	p.mu.Unlock()
}

func (p *seqPresenter) snapshot() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.seqs...)
}

var errBoom = errors.New("boom")

// writeROM creates a raw image file in a temp dir and returns its path.
func writeROM(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := append([]byte("NES\x1a\x01\x00"), make([]byte, 10+16384)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write rom: %v", err)
	}
	return path
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
