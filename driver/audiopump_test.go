package driver

import (
	"os"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// An audio pump whose core never has samples ready must settle into
// sleeping for the idle interval between polls.
func TestAudioPumpIdleCPU(t *testing.T) {
	if testing.Short() {
		t.Skip("measures process CPU time")
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		t.Skipf("process info unavailable: %v", err)
	}

	const idle = 2 * time.Millisecond
	p := &audioPump{
		guard:  newCoreGuard(&fakeCore{}),
		sink:   &recordSink{},
		stop:   NewStopSignal(),
		window: DefaultAudioWindow,
		idle:   idle,
	}
	done := make(chan struct{})

	before, err := proc.Times()
	if err != nil {
		t.Skipf("cpu times unavailable: %v", err)
	}
	begin := time.Now()
	go func() {
		defer close(done)
		p.run()
	}()
	time.Sleep(time.Second)
	p.stop.Stop()
	<-done
	wall := time.Since(begin)
	after, err := proc.Times()
	if err != nil {
		t.Skipf("cpu times unavailable: %v", err)
	}

	st := p.stats()
	if st.Polls != st.IdleSleeps {
		t.Errorf("polls = %d, idle sleeps = %d, want equal", st.Polls, st.IdleSleeps)
	}
	if limit := uint64(wall/idle) + 10; st.Polls > limit {
		t.Errorf("%d polls in %v, want at most %d for a %v idle sleep", st.Polls, wall, limit, idle)
	}
	if st.Polls < 50 {
		t.Errorf("only %d polls in %v", st.Polls, wall)
	}

	used := (after.User + after.System) - (before.User + before.System)
	if share := used / wall.Seconds(); share > 0.1 {
		t.Errorf("idle audio pump used %.1f%% of a CPU", share*100)
	}
}
