package driver

import (
	"sync/atomic"
	"time"
)

// FrameStats are counters maintained by the frame pump.
type FrameStats struct {
	Frames    uint64 // frames advanced and presented
	Late      uint64 // frames that finished at or after their deadline
	Forfeited uint64 // deadlines dropped after falling more than a period behind
}

// framePump drives the emulated frame cadence. Per iteration it advances
// the core into the back buffer, publishes and presents the frame, then
// waits for the next deadline. Frame N+1 is not started before frame N has
// been handed to the presenter, so at most one frame write is in flight.
type framePump struct {
	guard       *coreGuard
	frames      *FrameBuffer
	presenter   Presenter
	stop        *StopSignal
	fps         int
	spin        time.Duration
	fpsInterval time.Duration
	onFPS       func(float64)

	count     atomic.Uint64
	late      atomic.Uint64
	forfeited atomic.Uint64
}

// run returns nil when stopped and a *CoreFault when the core fails.
func (p *framePump) run() error {
	w := newWaiter(p.spin)
	start := time.Now()
	cadence := NewCadence(p.fps, start)
	meter := newFPSMeter(p.fpsInterval, start, p.onFPS)

	for !p.stop.Stopped() {
		ok, err := p.guard.advanceFrame(p.stop.Done(), p.frames.back())
		if !ok {
			return nil
		}
		if err != nil {
			return &CoreFault{Frame: p.count.Load() + 1, Err: err}
		}

		frame := p.frames.swap()
		if p.presenter != nil {
			p.presenter.Present(frame)
		}
		p.count.Add(1)

		now := time.Now()
		meter.tick(now)

		cadence.Advance()
		remaining, forfeited := cadence.Remaining(now)
		if forfeited {
			p.forfeited.Add(1)
		}
		if remaining == 0 {
			p.late.Add(1)
			continue
		}
		if !w.until(cadence.Deadline(), p.stop) {
			return nil
		}
	}
	return nil
}

func (p *framePump) stats() FrameStats {
	return FrameStats{
		Frames:    p.count.Load(),
		Late:      p.late.Load(),
		Forfeited: p.forfeited.Load(),
	}
}
