package driver

import (
	"math/rand"
	"testing"
	"time"
)

func TestCadencePeriodSumsToOneSecond(t *testing.T) {
	for _, fps := range []int{50, 60, 75, 144} {
		start := time.Unix(0, 0)
		c := NewCadence(fps, start)
		for i := 0; i < fps; i++ {
			c.Advance()
		}
		if got := c.Deadline().Sub(start); got != time.Second {
			t.Errorf("fps %d: %d periods = %v, want 1s", fps, fps, got)
		}
	}
}

func TestCadencePeriod60(t *testing.T) {
	c := NewCadence(60, time.Now())
	if c.Period() != 16666666*time.Nanosecond {
		t.Errorf("Period() = %v, want 16.666666ms", c.Period())
	}
}

func TestCadenceDefaultsTo60(t *testing.T) {
	c := NewCadence(0, time.Now())
	if c.Period() != time.Second/60 {
		t.Errorf("Period() = %v, want %v", c.Period(), time.Second/60)
	}
}

// simulate runs frames with the given work and wait overshoot per frame
// against a virtual clock, returning the final clock and the number of
// frames that did not wait.
func simulate(c *Cadence, now time.Time, frames int, work, overshoot func(i int) time.Duration) (time.Time, int) {
	zeroWaits := 0
	for i := 0; i < frames; i++ {
		now = now.Add(work(i))
		c.Advance()
		rem, _ := c.Remaining(now)
		if rem == 0 {
			zeroWaits++
			continue
		}
		now = now.Add(rem + overshoot(i))
	}
	return now, zeroWaits
}

func TestCadenceDriftConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	start := time.Unix(0, 0)
	c := NewCadence(60, start)

	const frames = 600
	end, _ := simulate(c, start, frames,
		func(int) time.Duration { return 4 * time.Millisecond },
		func(int) time.Duration { return time.Duration(rng.Int63n(int64(2 * time.Millisecond))) },
	)

	elapsed := end.Sub(start)
	if diff := elapsed - 10*time.Second; diff < 0 || diff > 2*time.Millisecond {
		t.Errorf("600 frames took %v, want 10s within one overshoot", elapsed)
	}
}

func TestCadenceStallCatchUpIsCapped(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewCadence(60, start)

	now, _ := simulate(c, start, 10,
		func(int) time.Duration { return time.Millisecond },
		func(int) time.Duration { return 0 },
	)

	// Frame 11 stalls for 100ms, about six periods.
	now = now.Add(100 * time.Millisecond)
	c.Advance()
	rem, forfeited := c.Remaining(now)
	if rem != 0 || !forfeited {
		t.Fatalf("after stall: remaining=%v forfeited=%v, want 0 and true", rem, forfeited)
	}

	_, zeroWaits := simulate(c, now, 30,
		func(int) time.Duration { return time.Millisecond },
		func(int) time.Duration { return 0 },
	)
	if zeroWaits != 0 {
		t.Errorf("%d zero-wait frames after the forfeited one, want 0", zeroWaits)
	}
}

func TestCadenceAbsorbsSmallLateness(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewCadence(60, start)

	c.Advance()
	late := start.Add(c.Period() + 5*time.Millisecond)
	rem, forfeited := c.Remaining(late)
	if rem != 0 || forfeited {
		t.Fatalf("remaining=%v forfeited=%v, want 0 and false", rem, forfeited)
	}

	// The next deadline still lies on the original grid.
	c.Advance()
	rem, _ = c.Remaining(late)
	want := start.Add(2 * c.Period()).Sub(late)
	if diff := rem - want; diff < -time.Nanosecond || diff > time.Nanosecond {
		t.Errorf("remaining = %v, want %v", rem, want)
	}
}

func TestWaiterUntil(t *testing.T) {
	w := newWaiter(time.Millisecond)
	stop := NewStopSignal()

	deadline := time.Now().Add(20 * time.Millisecond)
	if !w.until(deadline, stop) {
		t.Fatal("until returned false without stop")
	}
	late := time.Since(deadline)
	if late < 0 {
		t.Fatalf("woke %v before the deadline", -late)
	}
	if late > 10*time.Millisecond {
		t.Errorf("woke %v after the deadline", late)
	}
}

func TestWaiterUntilInterrupted(t *testing.T) {
	w := newWaiter(time.Millisecond)
	stop := NewStopSignal()

	go func() {
		time.Sleep(10 * time.Millisecond)
		stop.Stop()
	}()

	begin := time.Now()
	if w.until(begin.Add(5*time.Second), stop) {
		t.Fatal("until returned true after stop")
	}
	if d := time.Since(begin); d > time.Second {
		t.Errorf("stop took %v to interrupt the wait", d)
	}
}

func TestWaiterSleepInterrupted(t *testing.T) {
	w := newWaiter(0)
	stop := NewStopSignal()
	stop.Stop()
	if w.sleep(time.Hour, stop) {
		t.Error("sleep returned true on a stopped signal")
	}
	if !w.sleep(time.Millisecond, NewStopSignal()) {
		t.Error("sleep returned false without stop")
	}
}

func TestFPSMeter(t *testing.T) {
	var reports []float64
	start := time.Unix(0, 0)
	m := newFPSMeter(time.Second, start, func(fps float64) { reports = append(reports, fps) })

	period := time.Second / 60
	for i := 1; i <= 130; i++ {
		m.tick(start.Add(time.Duration(i) * period))
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	for _, fps := range reports {
		if fps < 59.9 || fps > 60.1 {
			t.Errorf("reported %.2f fps, want 60", fps)
		}
	}
}
