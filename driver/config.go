package driver

import (
	"time"

	"github.com/Zash60/MedNES/romloader"
)

// Presenter receives every completed frame. It must not retain
// frame.Pixels beyond the call; the buffer is reused two frames later.
type Presenter interface {
	Present(frame Frame)
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(Frame)

// Present calls f(frame).
func (f PresenterFunc) Present(frame Frame) { f(frame) }

// AudioSink is a streaming audio device. Write blocks until the device has
// room for the samples, which is what paces the audio pump.
type AudioSink interface {
	Write(samples []int16) error
}

// PumpKind identifies one of the two session pumps.
type PumpKind int

const (
	PumpFrame PumpKind = iota
	PumpAudio
)

// String returns the display name of the pump.
func (k PumpKind) String() string {
	switch k {
	case PumpFrame:
		return "frame"
	case PumpAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Hooks are optional callbacks fired by the controller and its pumps. They
// run on the goroutine that produced the event and must return quickly.
type Hooks struct {
	OnState      func(from, to State)
	OnPumpStart  func(kind PumpKind)
	OnFPS        func(fps float64)
	OnAudioError func(err error)
	OnFault      func(err error)

	// SchedulingHint runs on a pump's goroutine before its loop starts.
	// Deployments use it to lock the OS thread or raise its priority.
	SchedulingHint func(kind PumpKind)
}

// Config tunes the controller. Zero values select the defaults below.
type Config struct {
	// FPS overrides the frame rate. Zero uses the core's timing.
	FPS int

	// SpinThreshold is how long before a deadline the frame pump stops
	// sleeping and starts yielding.
	SpinThreshold time.Duration

	// AudioWindow is the capacity in samples of one audio pull.
	AudioWindow int

	// AudioIdle is the audio pump's sleep when no samples are ready.
	AudioIdle time.Duration

	// JoinTimeout bounds how long Stop waits for the pumps to exit.
	JoinTimeout time.Duration

	// LoadTimeout bounds how long Load waits for the core lock.
	LoadTimeout time.Duration

	// FPSInterval is the wall-clock interval of OnFPS reports.
	FPSInterval time.Duration

	// Extensions are the ROM extensions accepted by Resolve.
	Extensions []string

	// Resolve reads the image at path. It must wrap fs.ErrNotExist for
	// paths that do not exist. Defaults to romloader.Load.
	Resolve func(path string, extensions []string) ([]byte, string, error)

	Hooks Hooks
}

// Defaults used for zero Config fields.
const (
	DefaultSpinThreshold = time.Millisecond
	DefaultAudioWindow   = 1024
	DefaultAudioIdle     = 2 * time.Millisecond
	DefaultJoinTimeout   = time.Second
	DefaultLoadTimeout   = time.Second
)

func (c Config) withDefaults() Config {
	if c.SpinThreshold <= 0 {
		c.SpinThreshold = DefaultSpinThreshold
	}
	if c.AudioWindow <= 0 {
		c.AudioWindow = DefaultAudioWindow
	}
	if c.AudioIdle <= 0 {
		c.AudioIdle = DefaultAudioIdle
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = DefaultLoadTimeout
	}
	if c.FPSInterval <= 0 {
		c.FPSInterval = time.Second
	}
	if len(c.Extensions) == 0 {
		c.Extensions = romloader.DefaultExtensions
	}
	if c.Resolve == nil {
		c.Resolve = romloader.Load
	}
	return c
}
