// Package metrics publishes the driver's frame rate and session state to
// the log, to websocket clients and to a runtime stats viewer.
package metrics

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Reporter logs the measured frame rate together with the process CPU
// usage, at most once per interval.
type Reporter struct {
	interval time.Duration
	proc     *process.Process
	logf     func(format string, args ...any)
	now      func() time.Time

	mu      sync.Mutex
	last    time.Time
	fps     float64
	cpu     float64
	reports uint64
}

// NewReporter samples the current process. CPU usage is reported as zero
// when the process cannot be inspected.
func NewReporter(interval time.Duration) *Reporter {
	r := &Reporter{
		interval: interval,
		logf:     log.Printf,
		now:      time.Now,
	}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Printf("Warning: CPU sampling disabled: %v", err)
	} else {
		r.proc = p
		p.Percent(0) // prime the delta
	}
	return r
}

// Report records a frame rate measurement. It is safe to call from the
// frame pump.
func (r *Reporter) Report(fps float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fps = fps
	r.reports++

	now := r.now()
	if !r.last.IsZero() && now.Sub(r.last) < r.interval {
		return
	}
	r.last = now
	if r.proc != nil {
		if cpu, err := r.proc.Percent(0); err == nil {
			r.cpu = cpu
		}
	}
	r.logf("%.1f fps, %.1f%% CPU", r.fps, r.cpu)
}

// Last returns the most recent frame rate and CPU usage.
func (r *Reporter) Last() (fps, cpu float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fps, r.cpu
}

// Reports returns how many measurements have been recorded.
func (r *Reporter) Reports() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports
}
