package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by load errors for paths that do not resolve.
	ErrNotFound = errors.New("image not found")

	// ErrInvalidImage is matched by load errors for images the loader or
	// the core rejected.
	ErrInvalidImage = errors.New("invalid image")

	// ErrCoreBusy means the core lock could not be acquired in time,
	// typically because an abandoned pump is stuck inside a core call.
	ErrCoreBusy = errors.New("core busy")

	// ErrJoinTimeout is returned by Stop when a pump did not exit within
	// the join timeout and was abandoned. The controller is Idle anyway.
	ErrJoinTimeout = errors.New("pump join timed out")
)

// LoadError is returned by Controller.Load. Kind is ErrNotFound or
// ErrInvalidImage; Err is the underlying cause.
type LoadError struct {
	Path string
	Kind error
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("load %s: %v: %v", e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// CoreFault is a failure of the core during a frame advance. It is fatal to
// the session and never retried.
type CoreFault struct {
	Frame uint64
	Err   error
}

func (e *CoreFault) Error() string {
	return fmt.Sprintf("core fault at frame %d: %v", e.Frame, e.Err)
}

func (e *CoreFault) Unwrap() error { return e.Err }

// AudioSinkError is a non-fatal failure to deliver samples. Video keeps
// running and the audio for that interval is dropped.
type AudioSinkError struct {
	Samples int
	Err     error
}

func (e *AudioSinkError) Error() string {
	return fmt.Sprintf("audio sink write of %d samples: %v", e.Samples, e.Err)
}

func (e *AudioSinkError) Unwrap() error { return e.Err }

// panicError converts a recovered panic value into an error.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}

// UserMessage returns a static, human-readable message for errors surfaced
// by the controller.
func UserMessage(err error) string {
	var fault *CoreFault
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "ROM not found"
	case errors.Is(err, ErrCoreBusy):
		return "Emulator is busy, try again"
	case errors.Is(err, ErrInvalidImage):
		return "Failed to load ROM"
	case errors.As(err, &fault):
		return "Emulation halted: core fault"
	default:
		return "Emulation error"
	}
}
