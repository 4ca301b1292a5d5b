//go:build !(darwin || linux || freebsd)

package libretro

import (
	"errors"

	emucore "github.com/Zash60/MedNES/api"
)

// ErrUnsupported is returned by Open on platforms without dlopen.
var ErrUnsupported = errors.New("libretro: native cores are not supported on this platform")

// ErrInstanceActive is returned by Open while another core is open.
var ErrInstanceActive = errors.New("libretro: a core is already open")

// Options configure a frontend.
type Options struct {
	SystemDir  string
	SaveDir    string
	SampleRate int
}

// Core is unavailable on this platform.
type Core struct{}

// Open always fails with ErrUnsupported.
func Open(path string, opts Options) (*Core, error) {
	return nil, ErrUnsupported
}

func (c *Core) Name() string                     { return "" }
func (c *Core) Extensions() string               { return "" }
func (c *Core) LoadImage(emucore.Image) error    { return ErrUnsupported }
func (c *Core) AdvanceFrame([]uint32) error      { return ErrUnsupported }
func (c *Core) PullAudio([]int16) int            { return 0 }
func (c *Core) SendInput(emucore.Button, bool)   {}
func (c *Core) AudioFormat() emucore.AudioFormat { return emucore.DefaultAudioFormat }
func (c *Core) Timing() emucore.Timing           { return emucore.DefaultTiming }
func (c *Core) Close() error                     { return nil }
