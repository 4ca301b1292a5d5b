package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	emucore "github.com/Zash60/MedNES/api"
)

// State is the Session State of the controller.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateRunning
	StateStopping
)

// String returns the display name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats is a point-in-time view of a session's pump counters.
type Stats struct {
	Frame  FrameStats
	Audio  AudioStats
	Uptime time.Duration
}

// Session is one image loaded and running. It ends on Stop, on a
// subsequent Load, or on a core fault.
type Session struct {
	id      string
	path    string
	name    string
	started time.Time

	stop   *StopSignal
	frames *FrameBuffer
	fp     *framePump
	ap     *audioPump

	frameDone chan struct{}
	audioDone chan struct{}
	done      chan struct{}

	endOnce   sync.Once
	mu        sync.Mutex
	fault     error
	stopErr   error
	abandoned bool
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Path returns the path the session was loaded from.
func (s *Session) Path() string { return s.path }

// Name returns the name of the image inside Path. For archives this is the
// entry name.
func (s *Session) Name() string { return s.name }

// Frames returns the session's double-buffered pixel buffer.
func (s *Session) Frames() *FrameBuffer { return s.frames }

// Done is closed once the session has ended and the controller is Idle.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the core fault that ended the session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fault
}

// Stats returns the session's counters.
func (s *Session) Stats() Stats {
	return Stats{
		Frame:  s.fp.stats(),
		Audio:  s.ap.stats(),
		Uptime: time.Since(s.started),
	}
}

func (s *Session) setFault(err error) {
	s.mu.Lock()
	s.fault = err
	s.mu.Unlock()
}

// Controller owns the Session State machine and the lifecycle of the two
// pumps. It is safe for concurrent use; control operations are serialized.
type Controller struct {
	core      emucore.Core
	guard     *coreGuard
	presenter Presenter
	sink      AudioSink
	cfg       Config
	fps       int // guarded by mu; re-read from the core per session

	opMu sync.Mutex // serializes Load, Stop and Close

	mu        sync.Mutex
	state     State
	session   *Session
	abandoned int // sessions whose pumps are still inside the core
}

// NewController creates an Idle controller for core. presenter may be nil
// for a session nobody watches; a nil sink discards audio in real time.
func NewController(core emucore.Core, presenter Presenter, sink AudioSink, cfg Config) *Controller {
	cfg = cfg.withDefaults()
	fps := cfg.FPS
	if fps <= 0 {
		fps = emucore.TimingOf(core).FPS
	}
	if sink == nil {
		f := core.AudioFormat()
		sink = discardSink{sampleRate: f.SampleRate, channels: f.Channels}
	}
	return &Controller{
		core:      core,
		guard:     newCoreGuard(core),
		presenter: presenter,
		sink:      sink,
		cfg:       cfg,
		fps:       fps,
	}
}

// FPS returns the frame rate the current or next session is paced at.
func (c *Controller) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the current session, or nil when Idle.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) setState(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()
	if from != to && c.cfg.Hooks.OnState != nil {
		c.cfg.Hooks.OnState(from, to)
	}
}

// Load resolves path, hands the image to the core and starts a new
// session. A session that is already running is stopped first.
func (c *Controller) Load(path string) (*Session, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if prev := c.Session(); prev != nil {
		if err := c.end(prev); err != nil {
			log.Printf("Warning: stopping previous session: %v", err)
		}
	}

	c.setState(StateLoading)
	img, err := c.resolve(path)
	if err != nil {
		c.setState(StateIdle)
		return nil, err
	}
	timing, err := c.guard.loadImage(img, c.cfg.LoadTimeout)
	if err != nil {
		c.setState(StateIdle)
		return nil, &LoadError{Path: path, Kind: ErrInvalidImage, Err: err}
	}

	c.mu.Lock()
	if c.cfg.FPS <= 0 && timing.FPS > 0 {
		c.fps = timing.FPS
	}
	fps := c.fps
	c.mu.Unlock()

	sess := c.newSession(path, img, fps)
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
	c.setState(StateRunning)
	c.start(sess)

	log.Printf("Session %s started: %s", sess.id, path)
	return sess, nil
}

func (c *Controller) resolve(path string) (emucore.Image, error) {
	if path == "" {
		return emucore.Image{}, &LoadError{Path: path, Kind: ErrNotFound}
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return emucore.Image{}, &LoadError{Path: path, Kind: ErrNotFound, Err: err}
		}
		return emucore.Image{}, &LoadError{Path: path, Kind: ErrInvalidImage, Err: err}
	}
	data, name, err := c.cfg.Resolve(path, c.cfg.Extensions)
	if err != nil {
		kind := ErrInvalidImage
		if errors.Is(err, fs.ErrNotExist) {
			kind = ErrNotFound
		}
		return emucore.Image{}, &LoadError{Path: path, Kind: kind, Err: err}
	}
	if name == "" {
		name = path
	}
	return emucore.Image{Path: name, Data: data}, nil
}

func (c *Controller) newSession(path string, img emucore.Image, fps int) *Session {
	sess := &Session{
		id:        uuid.NewString(),
		path:      path,
		name:      img.Path,
		started:   time.Now(),
		stop:      NewStopSignal(),
		frames:    NewFrameBuffer(),
		frameDone: make(chan struct{}),
		audioDone: make(chan struct{}),
		done:      make(chan struct{}),
	}
	sess.fp = &framePump{
		guard:       c.guard,
		frames:      sess.frames,
		presenter:   c.presenter,
		stop:        sess.stop,
		fps:         fps,
		spin:        c.cfg.SpinThreshold,
		fpsInterval: c.cfg.FPSInterval,
		onFPS:       c.cfg.Hooks.OnFPS,
	}
	sess.ap = &audioPump{
		guard:   c.guard,
		sink:    c.sink,
		stop:    sess.stop,
		window:  c.cfg.AudioWindow,
		idle:    c.cfg.AudioIdle,
		onError: c.cfg.Hooks.OnAudioError,
	}
	return sess
}

// start launches both pumps and a supervisor. It returns once both pump
// goroutines are running.
func (c *Controller) start(sess *Session) {
	var started sync.WaitGroup
	started.Add(2)

	go func() {
		defer close(sess.frameDone)
		c.enter(PumpFrame, &started)
		if err := sess.fp.run(); err != nil {
			sess.setFault(err)
		}
	}()
	go func() {
		defer close(sess.audioDone)
		c.enter(PumpAudio, &started)
		sess.ap.run()
	}()
	started.Wait()

	go c.supervise(sess)
}

func (c *Controller) enter(kind PumpKind, started *sync.WaitGroup) {
	if c.cfg.Hooks.SchedulingHint != nil {
		c.cfg.Hooks.SchedulingHint(kind)
	}
	if c.cfg.Hooks.OnPumpStart != nil {
		c.cfg.Hooks.OnPumpStart(kind)
	}
	started.Done()
}

// supervise tears the session down when the frame pump ended on its own.
func (c *Controller) supervise(sess *Session) {
	select {
	case <-sess.frameDone:
	case <-sess.done:
		return
	}
	fault := sess.Err()
	if fault == nil {
		return
	}
	log.Printf("Session %s: %v", sess.id, fault)
	if c.cfg.Hooks.OnFault != nil {
		c.cfg.Hooks.OnFault(fault)
	}
	if err := c.end(sess); err != nil {
		log.Printf("Warning: session %s teardown: %v", sess.id, err)
	}
}

// Stop ends the running session. It is a no-op when Idle. If a pump does
// not exit within the join timeout it is abandoned and the returned error
// matches ErrJoinTimeout; the controller is Idle in either case.
func (c *Controller) Stop() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	sess := c.Session()
	if sess == nil {
		return nil
	}
	return c.end(sess)
}

// end stops sess exactly once. Concurrent callers wait for the first.
func (c *Controller) end(sess *Session) error {
	sess.endOnce.Do(func() {
		c.mu.Lock()
		current := c.session == sess
		c.mu.Unlock()
		if current {
			c.setState(StateStopping)
		}

		sess.stop.Stop()
		errs := c.join(sess)

		sess.mu.Lock()
		sess.stopErr = errors.Join(errs...)
		sess.abandoned = len(errs) > 0
		sess.mu.Unlock()

		c.mu.Lock()
		if sess.abandoned {
			c.abandoned++
			go c.reap(sess)
		}
		if c.session == sess {
			c.session = nil
		}
		c.mu.Unlock()
		if current {
			c.setState(StateIdle)
		}
		log.Printf("Session %s stopped after %d frames", sess.id, sess.fp.count.Load())
		close(sess.done)
	})
	<-sess.done
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.stopErr
}

// reap waits for the pumps of an abandoned session to return from the core.
func (c *Controller) reap(sess *Session) {
	<-sess.frameDone
	<-sess.audioDone
	c.mu.Lock()
	c.abandoned--
	c.mu.Unlock()
	log.Printf("Session %s: abandoned pumps returned", sess.id)
}

func (c *Controller) abandonedPumps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.abandoned
}

// join waits for both pumps under one shared deadline.
func (c *Controller) join(sess *Session) []error {
	deadline := time.NewTimer(c.cfg.JoinTimeout)
	defer deadline.Stop()

	frameDone, audioDone := sess.frameDone, sess.audioDone
	for frameDone != nil || audioDone != nil {
		select {
		case <-frameDone:
			frameDone = nil
		case <-audioDone:
			audioDone = nil
		case <-deadline.C:
			var errs []error
			if frameDone != nil {
				errs = append(errs, fmt.Errorf("%w: %s pump abandoned", ErrJoinTimeout, PumpFrame))
			}
			if audioDone != nil {
				errs = append(errs, fmt.Errorf("%w: %s pump abandoned", ErrJoinTimeout, PumpAudio))
			}
			return errs
		}
	}
	return nil
}

// SendInput records a button transition for the core. It never blocks:
// if the core is busy the latest state of each button is delivered before
// the next frame. Events are dropped when no session is running or the
// button is invalid. It reports whether the event was accepted.
func (c *Controller) SendInput(b emucore.Button, pressed bool) bool {
	if !b.Valid() || c.State() != StateRunning {
		return false
	}
	c.guard.sendInput(b, pressed)
	return true
}

// Close stops any session and closes the core. The core is left open while
// an abandoned pump is still inside it.
func (c *Controller) Close() error {
	stopErr := c.Stop()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.abandonedPumps() > 0 {
		return errors.Join(stopErr, ErrCoreBusy)
	}
	return errors.Join(stopErr, c.core.Close())
}
