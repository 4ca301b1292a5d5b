package driver

import (
	"sync/atomic"

	emucore "github.com/Zash60/MedNES/api"
)

// inputLatch holds the latest pressed state of every button. Writers never
// wait for the core; the state is handed over the next time the core lock
// is taken, so a stalled frame delays input but never loses the last edge.
type inputLatch struct {
	held    atomic.Uint32
	applied uint32 // guarded by the core lock
}

func (l *inputLatch) set(b emucore.Button, pressed bool) {
	bit := uint32(1) << b
	for {
		old := l.held.Load()
		next := old &^ bit
		if pressed {
			next |= bit
		}
		if old == next || l.held.CompareAndSwap(old, next) {
			return
		}
	}
}

// flush sends the core every button whose state changed since the last
// flush. A press and release that both land between two flushes cancel
// out. The core lock must be held.
func (l *inputLatch) flush(core emucore.Core) {
	held := l.held.Load()
	diff := held ^ l.applied
	if diff == 0 {
		return
	}
	l.applied = held
	for b := emucore.Button(0); b < emucore.NumButtons; b++ {
		bit := uint32(1) << b
		if diff&bit != 0 {
			core.SendInput(b, held&bit != 0)
		}
	}
}

// reset forgets all state after a fresh image load. The core lock must be
// held.
func (l *inputLatch) reset() {
	l.held.Store(0)
	l.applied = 0
}
