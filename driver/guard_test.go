package driver

import (
	"errors"
	"testing"
	"time"

	emucore "github.com/Zash60/MedNES/api"
)

func TestGuardRecoversPanic(t *testing.T) {
	core := &fakeCore{advance: func(uint64, []uint32) error { panic("bad opcode") }}
	g := newCoreGuard(core)
	stop := NewStopSignal()

	ok, err := g.advanceFrame(stop.Done(), make([]uint32, emucore.FramePixels))
	if !ok {
		t.Fatal("ok = false for a call that ran")
	}
	if err == nil {
		t.Fatal("panic was not converted to an error")
	}

	// The lock must have been released.
	if !g.acquireTimeout(10 * time.Millisecond) {
		t.Fatal("lock still held after a panic")
	}
	g.release()
}

func TestGuardAcquireObservesStop(t *testing.T) {
	g := newCoreGuard(&fakeCore{})
	g.sem <- struct{}{} // held elsewhere

	stop := NewStopSignal()
	stop.Stop()
	ok, err := g.advanceFrame(stop.Done(), nil)
	if ok || err != nil {
		t.Errorf("advanceFrame = (%v, %v), want (false, nil)", ok, err)
	}
	n, ok, err := g.pullAudio(stop.Done(), make([]int16, 8))
	if n != 0 || ok || err != nil {
		t.Errorf("pullAudio = (%d, %v, %v), want (0, false, nil)", n, ok, err)
	}
}

func TestGuardLoadBusy(t *testing.T) {
	g := newCoreGuard(&fakeCore{})
	g.sem <- struct{}{}

	_, err := g.loadImage(emucore.Image{}, 10*time.Millisecond)
	if !errors.Is(err, ErrCoreBusy) {
		t.Errorf("loadImage() = %v, want ErrCoreBusy", err)
	}
}

func TestGuardInputLatchedWhileBusy(t *testing.T) {
	core := &fakeCore{}
	g := newCoreGuard(core)
	g.sem <- struct{}{}

	done := make(chan struct{})
	go func() {
		g.sendInput(emucore.ButtonA, true)
		g.sendInput(emucore.ButtonB, true)
		g.sendInput(emucore.ButtonA, false)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sendInput blocked on a busy lock")
	}
	if n := core.inputs.Load(); n != 0 {
		t.Fatalf("core saw %d inputs while the lock was held", n)
	}

	g.release()
	stop := NewStopSignal()
	if ok, err := g.advanceFrame(stop.Done(), make([]uint32, emucore.FramePixels)); !ok || err != nil {
		t.Fatalf("advanceFrame = (%v, %v)", ok, err)
	}
	if core.isHeld(emucore.ButtonA) || !core.isHeld(emucore.ButtonB) {
		t.Errorf("core mask = %08b, want only B held", core.held.Load())
	}
	if n := core.inputs.Load(); n != 1 {
		t.Errorf("core saw %d inputs, want 1 (A press and release cancel)", n)
	}
}

func TestGuardInputDeliveredWhenFree(t *testing.T) {
	core := &fakeCore{}
	g := newCoreGuard(core)

	g.sendInput(emucore.ButtonStart, true)
	if !core.isHeld(emucore.ButtonStart) {
		t.Fatal("press not delivered with a free lock")
	}
	g.sendInput(emucore.ButtonStart, true)
	if n := core.inputs.Load(); n != 1 {
		t.Errorf("repeated press sent %d events, want 1", n)
	}
	g.sendInput(emucore.ButtonStart, false)
	if core.isHeld(emucore.ButtonStart) {
		t.Error("release not delivered")
	}
}

func TestGuardLoadResetsInput(t *testing.T) {
	core := &fakeCore{}
	g := newCoreGuard(core)
	g.sendInput(emucore.ButtonUp, true)

	if _, err := g.loadImage(emucore.Image{}, 10*time.Millisecond); err != nil {
		t.Fatalf("loadImage() = %v", err)
	}
	core.held.Store(0) // a fresh image starts with nothing held
	g.sendInput(emucore.ButtonUp, false)
	if n := core.inputs.Load(); n != 1 {
		t.Errorf("core saw %d inputs, want only the original press", n)
	}
}

func TestGuardPullAudioClamps(t *testing.T) {
	core := &fakeCore{pull: func(uint64, []int16) int { return 99999 }}
	g := newCoreGuard(core)
	n, ok, err := g.pullAudio(NewStopSignal().Done(), make([]int16, 16))
	if !ok || err != nil || n != 16 {
		t.Errorf("pullAudio = (%d, %v, %v), want (16, true, nil)", n, ok, err)
	}
}
