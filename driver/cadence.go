package driver

import (
	"runtime"
	"time"
)

// Cadence is the Frame Cadence State: the monotonic deadline of the next
// frame. Deadlines advance by repeated addition of the frame period, never
// by recomputation from the current time, so a transient stall does not
// become a permanent lag.
//
// The period is kept in integer nanoseconds with a remainder accumulator:
// at 60 FPS each step is 16666666ns plus one extra nanosecond on 40 of
// every 60 frames, which sums to exactly one second.
type Cadence struct {
	fps    int64
	base   time.Duration
	rem    int64
	acc    int64
	next   time.Time
	period time.Duration
}

// NewCadence starts a cadence at fps frames per second whose first
// deadline is start.
func NewCadence(fps int, start time.Time) *Cadence {
	if fps <= 0 {
		fps = 60
	}
	f := int64(fps)
	return &Cadence{
		fps:    f,
		base:   time.Duration(int64(time.Second) / f),
		rem:    int64(time.Second) % f,
		next:   start,
		period: time.Duration(int64(time.Second) / f),
	}
}

// Period returns the nominal frame period, truncated to a nanosecond.
func (c *Cadence) Period() time.Duration {
	return c.period
}

// Deadline returns the current deadline.
func (c *Cadence) Deadline() time.Time {
	return c.next
}

// Advance moves the deadline forward by one frame period and returns it.
func (c *Cadence) Advance() time.Time {
	step := c.base
	c.acc += c.rem
	if c.acc >= c.fps {
		c.acc -= c.fps
		step++
	}
	c.next = c.next.Add(step)
	return c.next
}

// Remaining returns how long to wait from now until the deadline. A late
// deadline yields zero. Lateness of more than one frame period is
// forfeited: the deadline is moved to now, so after a long stall at most
// one frame runs without waiting. forfeited reports whether that happened.
func (c *Cadence) Remaining(now time.Time) (remaining time.Duration, forfeited bool) {
	remaining = c.next.Sub(now)
	if remaining >= 0 {
		return remaining, false
	}
	if -remaining > c.period {
		c.next = now
		return 0, true
	}
	return 0, false
}

// waiter performs the two-phase wait: a coarse, interruptible timer sleep
// for the bulk of the interval, then a yielding spin for the last
// spinThreshold to land on the deadline.
type waiter struct {
	spinThreshold time.Duration
	timer         *time.Timer
}

func newWaiter(spinThreshold time.Duration) *waiter {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return &waiter{spinThreshold: spinThreshold, timer: t}
}

// until blocks until deadline. It returns false if stop fired first.
func (w *waiter) until(deadline time.Time, stop *StopSignal) bool {
	for {
		if stop.Stopped() {
			return false
		}
		rem := time.Until(deadline)
		if rem <= 0 {
			return true
		}
		if rem > w.spinThreshold {
			w.timer.Reset(rem - w.spinThreshold)
			select {
			case <-w.timer.C:
			case <-stop.Done():
				w.timer.Stop()
				return false
			}
			continue
		}
		runtime.Gosched()
	}
}

// sleep blocks for d or until stop fires. It returns false if stopped.
func (w *waiter) sleep(d time.Duration, stop *StopSignal) bool {
	w.timer.Reset(d)
	select {
	case <-w.timer.C:
		return true
	case <-stop.Done():
		w.timer.Stop()
		return false
	}
}
