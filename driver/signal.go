package driver

import (
	"sync"
	"sync/atomic"
)

// StopSignal is the cooperative cancellation token shared by both pumps.
// Stopped is a lock-free atomic read suitable for hot loops; Done can be
// selected on by blocking waits.
type StopSignal struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewStopSignal creates an unset signal.
func NewStopSignal() *StopSignal {
	return &StopSignal{done: make(chan struct{})}
}

// Stop sets the signal. Safe to call more than once.
func (s *StopSignal) Stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.done)
	})
}

// Stopped reports whether Stop has been called.
func (s *StopSignal) Stopped() bool {
	return s.stopped.Load()
}

// Done returns a channel closed by Stop.
func (s *StopSignal) Done() <-chan struct{} {
	return s.done
}
