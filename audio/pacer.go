package audio

import (
	"sync"
	"time"

	emucore "github.com/Zash60/MedNES/api"
)

// maxPacerLag is how far behind real time a pacer may fall before it
// stops trying to catch up.
const maxPacerLag = 100 * time.Millisecond

// Pacer discards samples but blocks each Write for their real-time
// duration. It backs a session with no audio device and keeps the audio
// pump from draining the core faster than it produces.
type Pacer struct {
	format emucore.AudioFormat

	mu     sync.Mutex
	next   time.Time
	closed chan struct{}
	once   sync.Once
}

// NewPacer creates a pacer for format.
func NewPacer(format emucore.AudioFormat) *Pacer {
	if format.SampleRate <= 0 {
		format.SampleRate = emucore.DefaultAudioFormat.SampleRate
	}
	if format.Channels <= 0 {
		format.Channels = 1
	}
	return &Pacer{format: format, closed: make(chan struct{})}
}

// Duration returns the playback time of n interleaved samples.
func (p *Pacer) Duration(n int) time.Duration {
	frames := int64(n / p.format.Channels)
	return time.Duration(frames * int64(time.Second) / int64(p.format.SampleRate))
}

// Write blocks until the samples would have finished playing.
func (p *Pacer) Write(samples []int16) error {
	p.mu.Lock()
	now := time.Now()
	if p.next.Before(now.Add(-maxPacerLag)) {
		p.next = now
	}
	p.next = p.next.Add(p.Duration(len(samples)))
	wait := time.Until(p.next)
	p.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.closed:
	}
	return nil
}

// Close releases any blocked Write.
func (p *Pacer) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
