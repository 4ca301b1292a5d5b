package driver

import "time"

// fpsMeter counts presented frames and reports the observed rate roughly
// once per interval of wall clock. It is informational only; nothing it
// computes feeds back into pacing.
type fpsMeter struct {
	interval time.Duration
	count    int
	ref      time.Time
	report   func(float64)
}

func newFPSMeter(interval time.Duration, now time.Time, report func(float64)) *fpsMeter {
	if interval <= 0 {
		interval = time.Second
	}
	return &fpsMeter{interval: interval, ref: now, report: report}
}

// tick records one frame at now.
func (m *fpsMeter) tick(now time.Time) {
	m.count++
	elapsed := now.Sub(m.ref)
	if elapsed < m.interval {
		return
	}
	fps := float64(m.count) / elapsed.Seconds()
	m.count = 0
	m.ref = now
	if m.report != nil {
		m.report(fps)
	}
}
