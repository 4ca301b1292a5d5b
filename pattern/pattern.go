// Package pattern is a built-in core that needs no native library. It
// accepts any valid iNES image and draws a scrolling test card with a
// square-wave tone, which is enough to exercise the whole driver.
package pattern

import (
	"errors"
	"fmt"
	"math/bits"

	emucore "github.com/Zash60/MedNES/api"
	"github.com/Zash60/MedNES/romloader"
)

// ErrNotLoaded is returned by AdvanceFrame before an image is loaded.
var ErrNotLoaded = errors.New("pattern: no image loaded")

const (
	sampleRate      = 44100
	samplesPerFrame = sampleRate / 60
	maxQueued       = 4 * samplesPerFrame
	baseTone        = 440
	toneStep        = 110
	amplitude       = 3000
	barWidth        = emucore.FrameWidth / emucore.NumButtons
)

// One bar per button, in Button order.
var palette = [emucore.NumButtons]uint32{
	0xFFC00000, 0xFF00A000, 0xFF0040C0, 0xFFC0A000,
	0xFF8000C0, 0xFF00A0A0, 0xFFC06000, 0xFF606060,
}

const held = 0xFFFFFFFF

// Core implements emucore.Core.
type Core struct {
	header  romloader.Header
	loaded  bool
	frame   uint64
	buttons uint8
	scrollY int

	phase float64 // position within the current tone period, [0, 1)
	queue []int16
}

// New returns an empty core.
func New() *Core {
	return &Core{queue: make([]int16, 0, maxQueued)}
}

// Header returns the header of the loaded image.
func (c *Core) Header() romloader.Header { return c.header }

// LoadImage validates the iNES header and resets the machine.
func (c *Core) LoadImage(img emucore.Image) error {
	h, err := romloader.ParseINES(img.Data)
	if err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	c.header = h
	c.loaded = true
	c.frame = 0
	c.buttons = 0
	c.scrollY = 0
	c.phase = 0
	c.queue = c.queue[:0]
	return nil
}

// AdvanceFrame draws one frame and queues one frame of audio.
func (c *Core) AdvanceFrame(pixels []uint32) error {
	if !c.loaded {
		return ErrNotLoaded
	}
	c.frame++
	switch {
	case c.buttons&(1<<emucore.ButtonUp) != 0:
		c.scrollY--
	case c.buttons&(1<<emucore.ButtonDown) != 0:
		c.scrollY++
	}
	c.draw(pixels)
	c.tone()
	return nil
}

func (c *Core) draw(pixels []uint32) {
	shift := int(c.frame)
	for y := 0; y < emucore.FrameHeight; y++ {
		row := pixels[y*emucore.FrameWidth : (y+1)*emucore.FrameWidth]
		// Every 16th row is a dark scanline that moves with scrollY.
		if (y+c.scrollY)&15 == 0 {
			for x := range row {
				row[x] = 0xFF000000
			}
			continue
		}
		for x := range row {
			bar := ((x + shift) / barWidth) % emucore.NumButtons
			if c.buttons&(1<<bar) != 0 {
				row[x] = held
			} else {
				row[x] = palette[bar]
			}
		}
	}
}

// tone queues samplesPerFrame of a square wave whose pitch rises with the
// number of held buttons. The oldest samples are dropped once maxQueued
// is reached.
func (c *Core) tone() {
	freq := float64(baseTone + toneStep*bits.OnesCount8(c.buttons))
	step := freq / sampleRate
	if over := len(c.queue) + samplesPerFrame - maxQueued; over > 0 {
		c.queue = append(c.queue[:0], c.queue[over:]...)
	}
	for i := 0; i < samplesPerFrame; i++ {
		v := int16(amplitude)
		if c.phase >= 0.5 {
			v = -amplitude
		}
		c.queue = append(c.queue, v)
		c.phase += step
		if c.phase >= 1 {
			c.phase--
		}
	}
}

// PullAudio drains queued samples.
func (c *Core) PullAudio(samples []int16) int {
	n := copy(samples, c.queue)
	c.queue = append(c.queue[:0], c.queue[n:]...)
	return n
}

// SendInput records a button edge.
func (c *Core) SendInput(b emucore.Button, pressed bool) {
	if !b.Valid() {
		return
	}
	if pressed {
		c.buttons |= 1 << b
	} else {
		c.buttons &^= 1 << b
	}
}

// AudioFormat is 44100 Hz mono.
func (c *Core) AudioFormat() emucore.AudioFormat {
	return emucore.AudioFormat{SampleRate: sampleRate, Channels: 1}
}

// Timing reports NTSC-style 60 Hz.
func (c *Core) Timing() emucore.Timing { return emucore.DefaultTiming }

// Close unloads the image.
func (c *Core) Close() error {
	c.loaded = false
	c.queue = c.queue[:0]
	return nil
}
