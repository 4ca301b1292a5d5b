package emucore

// Timing holds the native frame rate of the emulated machine.
type Timing struct {
	FPS int
}

// DefaultTiming is the 60 Hz NTSC frame rate.
var DefaultTiming = Timing{FPS: 60}

// TimingOf returns the core's reported timing, falling back to
// DefaultTiming when the core does not report one or reports nonsense.
func TimingOf(c Core) Timing {
	if tr, ok := c.(TimingReporter); ok {
		if t := tr.Timing(); t.FPS > 0 {
			return t
		}
	}
	return DefaultTiming
}
