package driver

import (
	"log"
	"time"

	emucore "github.com/Zash60/MedNES/api"
)

// coreGuard serializes every call into the core. The core is not assumed to
// be reentrant, so the frame pump, the audio pump, input delivery and image
// loading all go through one lock, taken per call and released as soon as
// the call returns. It is never held across a sleep or a sink write.
//
// The lock is a one-slot semaphore rather than a sync.Mutex so acquisition
// can give up when the session is stopping or a deadline passes.
type coreGuard struct {
	core  emucore.Core
	sem   chan struct{}
	input inputLatch
}

func newCoreGuard(core emucore.Core) *coreGuard {
	return &coreGuard{core: core, sem: make(chan struct{}, 1)}
}

// acquire blocks until the lock is held or stop is closed.
func (g *coreGuard) acquire(stop <-chan struct{}) bool {
	select {
	case g.sem <- struct{}{}:
		return true
	case <-stop:
		return false
	}
}

func (g *coreGuard) acquireTimeout(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case g.sem <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

// tryAcquire takes the lock only if it is free.
func (g *coreGuard) tryAcquire() bool {
	select {
	case g.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (g *coreGuard) release() {
	<-g.sem
}

// advanceFrame runs one frame into pixels. ok is false when stop fired
// before the lock was acquired. Panics inside the core are returned as
// errors.
func (g *coreGuard) advanceFrame(stop <-chan struct{}, pixels []uint32) (ok bool, err error) {
	if !g.acquire(stop) {
		return false, nil
	}
	defer g.release()
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	ok = true
	g.input.flush(g.core)
	err = g.core.AdvanceFrame(pixels)
	return ok, err
}

// pullAudio drains ready samples into buf.
func (g *coreGuard) pullAudio(stop <-chan struct{}, buf []int16) (n int, ok bool, err error) {
	if !g.acquire(stop) {
		return 0, false, nil
	}
	defer g.release()
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, panicError(r)
		}
	}()
	ok = true
	g.input.flush(g.core)
	n = g.core.PullAudio(buf)
	if n < 0 {
		n = 0
	} else if n > len(buf) {
		n = len(buf)
	}
	return n, true, nil
}

// sendInput latches the button state and never waits. The core receives
// it right away if the lock is free, otherwise from the next frame or
// audio poll.
func (g *coreGuard) sendInput(b emucore.Button, pressed bool) {
	g.input.set(b, pressed)
	if !g.tryAcquire() {
		return
	}
	defer g.release()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: core panicked on input: %v", r)
		}
	}()
	g.input.flush(g.core)
}

// loadImage gives up with ErrCoreBusy if the lock is not available within
// timeout. On success it also returns the timing the core reports for the
// loaded image.
func (g *coreGuard) loadImage(img emucore.Image, timeout time.Duration) (timing emucore.Timing, err error) {
	if !g.acquireTimeout(timeout) {
		return emucore.Timing{}, ErrCoreBusy
	}
	defer g.release()
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	if err := g.core.LoadImage(img); err != nil {
		return emucore.Timing{}, err
	}
	g.input.reset()
	return emucore.TimingOf(g.core), nil
}
