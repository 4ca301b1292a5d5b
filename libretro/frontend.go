//go:build darwin || linux || freebsd

package libretro

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"

	emucore "github.com/Zash60/MedNES/api"
)

// ErrInstanceActive is returned by Open while another core is open. The
// libretro callbacks are process-wide, so only one core can run at a time.
var ErrInstanceActive = errors.New("libretro: a core is already open")

// Options configure a frontend.
type Options struct {
	// SystemDir and SaveDir are reported to the core through the
	// environment callback. Empty means the current directory.
	SystemDir string
	SaveDir   string

	// SampleRate is the output rate of PullAudio. Zero selects 44100.
	SampleRate int
}

// fifoCapacity holds about a quarter second of stereo audio.
const fifoCapacity = 48000 / 2

// Core is a libretro core loaded with purego. It implements emucore.Core.
type Core struct {
	lib  uintptr
	path string
	opts Options

	retroInit                func()
	retroDeinit              func()
	retroAPIVersion          func() uint32
	retroGetSystemInfo       func(info *systemInfo)
	retroGetSystemAVInfo     func(info *systemAVInfo)
	retroSetEnvironment      func(cb uintptr)
	retroSetVideoRefresh     func(cb uintptr)
	retroSetAudioSample      func(cb uintptr)
	retroSetAudioSampleBatch func(cb uintptr)
	retroSetInputPoll        func(cb uintptr)
	retroSetInputState       func(cb uintptr)
	retroLoadGame            func(game *gameInfo) bool
	retroUnloadGame          func()
	retroRun                 func()

	name         string
	version      string
	extensions   string
	needFullpath bool

	format    pixelFormat
	av        systemAVInfo
	last      []uint32
	fifo      *sampleFIFO
	resampler *resampler
	scratch   []int16
	buttons   atomic.Uint32

	systemDir []byte
	saveDir   []byte
	pinner    runtime.Pinner
	game      gameInfo
	gamePath  []byte
	gameData  []byte
	tempFile  string
	loaded    bool
}

var active atomic.Pointer[Core]

// Open loads the core at path and initializes it.
func Open(path string, opts Options) (*Core, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	c := &Core{
		path:      path,
		opts:      opts,
		format:    pixelFormat0RGB1555,
		last:      make([]uint32, emucore.FramePixels),
		fifo:      newSampleFIFO(fifoCapacity),
		resampler: newResampler(float64(opts.SampleRate), float64(opts.SampleRate)),
		systemDir: cString(dirOrDot(opts.SystemDir)),
		saveDir:   cString(dirOrDot(opts.SaveDir)),
	}
	if !active.CompareAndSwap(nil, c) {
		return nil, ErrInstanceActive
	}

	if err := c.open(); err != nil {
		active.Store(nil)
		return nil, err
	}
	return c, nil
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func (c *Core) open() error {
	lib, err := purego.Dlopen(c.path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("libretro: open %s: %w", c.path, err)
	}
	c.lib = lib

	symbols := []struct {
		fn   any
		name string
	}{
		{&c.retroInit, "retro_init"},
		{&c.retroDeinit, "retro_deinit"},
		{&c.retroAPIVersion, "retro_api_version"},
		{&c.retroGetSystemInfo, "retro_get_system_info"},
		{&c.retroGetSystemAVInfo, "retro_get_system_av_info"},
		{&c.retroSetEnvironment, "retro_set_environment"},
		{&c.retroSetVideoRefresh, "retro_set_video_refresh"},
		{&c.retroSetAudioSample, "retro_set_audio_sample"},
		{&c.retroSetAudioSampleBatch, "retro_set_audio_sample_batch"},
		{&c.retroSetInputPoll, "retro_set_input_poll"},
		{&c.retroSetInputState, "retro_set_input_state"},
		{&c.retroLoadGame, "retro_load_game"},
		{&c.retroUnloadGame, "retro_unload_game"},
		{&c.retroRun, "retro_run"},
	}
	for _, s := range symbols {
		if _, err := purego.Dlsym(lib, s.name); err != nil {
			purego.Dlclose(lib)
			return fmt.Errorf("libretro: %s: missing symbol %s", c.path, s.name)
		}
		purego.RegisterLibFunc(s.fn, lib, s.name)
	}

	if v := c.retroAPIVersion(); v != apiVersion {
		purego.Dlclose(lib)
		return fmt.Errorf("libretro: %s: unsupported API version %d", c.path, v)
	}

	var info systemInfo
	c.retroGetSystemInfo(&info)
	c.name = goString(info.libraryName)
	c.version = goString(info.libraryVersion)
	c.extensions = goString(info.validExtensions)
	c.needFullpath = info.needFullpath

	c.pinner.Pin(&c.systemDir[0])
	c.pinner.Pin(&c.saveDir[0])

	cb := callbacks()
	c.retroSetEnvironment(cb.environment)
	c.retroInit()
	c.retroSetVideoRefresh(cb.videoRefresh)
	c.retroSetAudioSample(cb.audioSample)
	c.retroSetAudioSampleBatch(cb.audioSampleBatch)
	c.retroSetInputPoll(cb.inputPoll)
	c.retroSetInputState(cb.inputState)

	log.Printf("libretro: loaded %s %s", c.name, c.version)
	return nil
}

// Name returns the core's library name and version.
func (c *Core) Name() string {
	return c.name + " " + c.version
}

// Extensions returns the "|"-separated extensions the core accepts.
func (c *Core) Extensions() string {
	return c.extensions
}

// LoadImage implements emucore.Core. A game that is already loaded is
// unloaded first.
func (c *Core) LoadImage(img emucore.Image) error {
	if c.loaded {
		c.unload()
	}
	c.format = pixelFormat0RGB1555

	gamePath := img.Path
	if c.needFullpath {
		// The core reads the file itself; archives were already
		// extracted, so hand it the extracted bytes on disk.
		dir, err := os.MkdirTemp("", "mednes-*")
		if err != nil {
			return fmt.Errorf("libretro: %w", err)
		}
		gamePath = filepath.Join(dir, filepath.Base(img.Path))
		if err := os.WriteFile(gamePath, img.Data, 0600); err != nil {
			os.RemoveAll(dir)
			return fmt.Errorf("libretro: %w", err)
		}
		c.tempFile = dir
	}

	c.gamePath = cString(gamePath)
	c.gameData = img.Data
	c.pinner.Pin(&c.gamePath[0])
	c.game = gameInfo{path: &c.gamePath[0]}
	if !c.needFullpath && len(c.gameData) > 0 {
		c.pinner.Pin(&c.gameData[0])
		c.game.data = unsafe.Pointer(&c.gameData[0])
		c.game.size = uintptr(len(c.gameData))
	}

	if !c.retroLoadGame(&c.game) {
		c.cleanupGame()
		return fmt.Errorf("libretro: %s rejected %s", c.name, img.Path)
	}
	c.loaded = true

	c.retroGetSystemAVInfo(&c.av)
	c.resampler.setRates(c.av.timing.sampleRate, float64(c.opts.SampleRate))
	c.fifo.reset()
	clear(c.last)
	log.Printf("libretro: %dx%d @ %.3f fps, %.0f Hz, %s",
		c.av.geometry.baseWidth, c.av.geometry.baseHeight, c.av.timing.fps, c.av.timing.sampleRate, c.format)
	return nil
}

func (c *Core) unload() {
	c.retroUnloadGame()
	c.loaded = false
	c.cleanupGame()
}

func (c *Core) cleanupGame() {
	// Unpin releases everything; the directory strings stay pinned.
	c.pinner.Unpin()
	c.pinner.Pin(&c.systemDir[0])
	c.pinner.Pin(&c.saveDir[0])
	c.game = gameInfo{}
	c.gamePath = nil
	c.gameData = nil
	if c.tempFile != "" {
		os.RemoveAll(c.tempFile)
		c.tempFile = ""
	}
}

// AdvanceFrame implements emucore.Core. Frames the core marks as dupes
// repeat the previous frame.
func (c *Core) AdvanceFrame(pixels []uint32) error {
	if !c.loaded {
		return errors.New("libretro: no game loaded")
	}
	c.retroRun()
	copy(pixels, c.last)
	return nil
}

// PullAudio implements emucore.Core.
func (c *Core) PullAudio(samples []int16) int {
	return c.fifo.pull(samples)
}

// SendInput implements emucore.Core.
func (c *Core) SendInput(b emucore.Button, pressed bool) {
	if !b.Valid() {
		return
	}
	bit := uint32(1) << joypadIDs[b]
	if pressed {
		c.buttons.Or(bit)
	} else {
		c.buttons.And(^bit)
	}
}

// AudioFormat implements emucore.Core. Audio is resampled to the
// configured rate.
func (c *Core) AudioFormat() emucore.AudioFormat {
	return emucore.AudioFormat{SampleRate: c.opts.SampleRate, Channels: 2}
}

// Timing implements emucore.TimingReporter once a game is loaded.
func (c *Core) Timing() emucore.Timing {
	if !c.loaded || c.av.timing.fps <= 0 {
		return emucore.DefaultTiming
	}
	return emucore.Timing{FPS: int(math.Round(c.av.timing.fps))}
}

// Close implements emucore.Core.
func (c *Core) Close() error {
	if c.loaded {
		c.unload()
	}
	c.retroDeinit()
	c.pinner.Unpin()
	err := purego.Dlclose(c.lib)
	active.CompareAndSwap(c, nil)
	if err != nil {
		return fmt.Errorf("libretro: close: %w", err)
	}
	return nil
}

func (c *Core) environment(cmd uint32, data unsafe.Pointer) bool {
	switch cmd &^ envExperimental {
	case envGetCanDupe:
		*(*bool)(data) = true
		return true
	case envSetPixelFormat:
		f := pixelFormat(*(*int32)(data))
		if !f.valid() {
			return false
		}
		c.format = f
		return true
	case envGetSystemDirectory:
		*(**byte)(data) = &c.systemDir[0]
		return true
	case envGetSaveDirectory:
		*(**byte)(data) = &c.saveDir[0]
		return true
	case envGetVariable:
		(*variable)(data).value = nil
		return false
	case envGetVariableUpdate:
		*(*bool)(data) = false
		return true
	case envSetGeometry:
		c.av.geometry = *(*gameGeometry)(data)
		return true
	case envSetMessage:
		msg := *(*struct {
			text   *byte
			frames uint32
		})(data)
		log.Printf("libretro: %s", goString(msg.text))
		return true
	case envShutdown, envSetPerformanceLevel, envSetInputDescriptors, envSetVariables, envSetSupportNoGame:
		return true
	default:
		return false
	}
}

func (c *Core) videoRefresh(data unsafe.Pointer, width, height uint32, pitch uintptr) {
	if data == nil || width == 0 || height == 0 {
		return // dupe
	}
	size := int(pitch)*int(height-1) + int(width)*c.format.bytesPerPixel()
	src := unsafe.Slice((*byte)(data), size)
	blit(c.last, src, int(width), int(height), int(pitch), c.format)
}

func (c *Core) audioBatch(data unsafe.Pointer, frames uintptr) uintptr {
	if data == nil || frames == 0 {
		return frames
	}
	in := unsafe.Slice((*int16)(data), int(frames)*2)
	c.scratch = c.resampler.process(c.scratch[:0], in)
	c.fifo.push(c.scratch)
	return frames
}

func (c *Core) inputState(port, device, index, id uint32) int16 {
	return joypadState(c.buttons.Load(), port, device, id)
}

// callbackSet holds the C function pointers handed to the core. purego
// callbacks cannot be freed, so they are created once per process and
// dispatch to the active core.
type callbackSet struct {
	environment      uintptr
	videoRefresh     uintptr
	audioSample      uintptr
	audioSampleBatch uintptr
	inputPoll        uintptr
	inputState       uintptr
}

var (
	cbOnce sync.Once
	cbSet  callbackSet
)

func callbacks() callbackSet {
	cbOnce.Do(func() {
		cbSet = callbackSet{
			environment: purego.NewCallback(func(cmd uint32, data unsafe.Pointer) bool {
				if c := active.Load(); c != nil && data != nil {
					return c.environment(cmd, data)
				}
				return false
			}),
			videoRefresh: purego.NewCallback(func(data unsafe.Pointer, width, height uint32, pitch uintptr) {
				if c := active.Load(); c != nil {
					c.videoRefresh(data, width, height, pitch)
				}
			}),
			audioSample: purego.NewCallback(func(left, right int16) {
				if c := active.Load(); c != nil {
					frame := [2]int16{left, right}
					c.audioBatch(unsafe.Pointer(&frame[0]), 1)
				}
			}),
			audioSampleBatch: purego.NewCallback(func(data unsafe.Pointer, frames uintptr) uintptr {
				if c := active.Load(); c != nil {
					return c.audioBatch(data, frames)
				}
				return frames
			}),
			inputPoll: purego.NewCallback(func() {}),
			inputState: purego.NewCallback(func(port, device, index, id uint32) int16 {
				if c := active.Load(); c != nil {
					return c.inputState(port, device, index, id)
				}
				return 0
			}),
		}
	})
	return cbSet
}
