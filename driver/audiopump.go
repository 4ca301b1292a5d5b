package driver

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// AudioStats are counters maintained by the audio pump.
type AudioStats struct {
	Polls      uint64 // pulls from the core
	IdleSleeps uint64 // pulls that returned no samples
	Writes     uint64 // successful sink writes
	Samples    uint64 // samples delivered to the sink
	Errors     uint64 // failed sink writes
}

// audioPump moves samples from the core to the sink. It pulls under the
// core lock, writes outside it, and sleeps briefly when the core had
// nothing ready, so an idle session does not burn a CPU.
type audioPump struct {
	guard   *coreGuard
	sink    AudioSink
	stop    *StopSignal
	window  int
	idle    time.Duration
	onError func(error)

	polls      atomic.Uint64
	idleSleeps atomic.Uint64
	writes     atomic.Uint64
	samples    atomic.Uint64
	errors     atomic.Uint64
}

func (p *audioPump) run() {
	buf := make([]int16, p.window)
	w := newWaiter(0)

	for !p.stop.Stopped() {
		n, ok, err := p.guard.pullAudio(p.stop.Done(), buf)
		if !ok {
			return
		}
		p.polls.Add(1)
		if err != nil {
			p.report(fmt.Errorf("audio pull: %w", err))
			return
		}

		if n == 0 {
			p.idleSleeps.Add(1)
			if !w.sleep(p.idle, p.stop) {
				return
			}
			continue
		}

		if err := p.sink.Write(buf[:n]); err != nil {
			count := p.errors.Add(1)
			serr := &AudioSinkError{Samples: n, Err: err}
			if count == 1 || count%100 == 0 {
				log.Printf("Warning: %v (%d errors)", serr, count)
			}
			p.report(serr)
			if !w.sleep(p.idle, p.stop) {
				return
			}
			continue
		}
		p.writes.Add(1)
		p.samples.Add(uint64(n))
	}
}

func (p *audioPump) report(err error) {
	if p.onError != nil {
		p.onError(err)
	}
}

func (p *audioPump) stats() AudioStats {
	return AudioStats{
		Polls:      p.polls.Load(),
		IdleSleeps: p.idleSleeps.Load(),
		Writes:     p.writes.Load(),
		Samples:    p.samples.Load(),
		Errors:     p.errors.Load(),
	}
}

// discardSink paces writes at the core's sample rate and drops the data.
// It stands in when no audio device is configured.
type discardSink struct {
	sampleRate int
	channels   int
}

func (d discardSink) Write(samples []int16) error {
	frames := len(samples) / max(d.channels, 1)
	time.Sleep(time.Duration(frames) * time.Second / time.Duration(max(d.sampleRate, 1)))
	return nil
}
