// Package audio provides the streaming sinks the audio pump writes into.
// Every sink's Write blocks for roughly the real-time duration of the
// samples it is given, which is what paces a session's audio.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	emucore "github.com/Zash60/MedNES/api"
)

// Sink is a blocking sample sink.
type Sink interface {
	Write(samples []int16) error
	Close() error
}

// ringBufferDuration is how much audio the player buffers ahead of the
// device, which bounds how far the pump may run ahead of playback.
const ringBufferDuration = 80 * time.Millisecond

// oto context singleton. A process gets one context with one sample format.
var (
	otoCtx      *oto.Context
	otoFormat   emucore.AudioFormat
	otoInitOnce sync.Once
	otoInitErr  error
)

func ensureOtoContext(format emucore.AudioFormat) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoFormat = format
		<-ready
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoFormat != format {
		return nil, fmt.Errorf("audio context already opened at %d Hz x%d", otoFormat.SampleRate, otoFormat.Channels)
	}
	return otoCtx, nil
}

// Player plays samples through the system audio device via oto.
// Samples go into a ring buffer that oto's player pulls from; Write
// blocks while that buffer is full.
type Player struct {
	player *oto.Player
	ring   *RingBuffer
	bytes  []byte
}

// NewPlayer opens the audio device for format and starts playback at the
// given volume.
func NewPlayer(format emucore.AudioFormat, volume float64) (*Player, error) {
	ctx, err := ensureOtoContext(format)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	bytesPerSecond := format.SampleRate * format.Channels * 2
	capacity := int(int64(bytesPerSecond) * int64(ringBufferDuration) / int64(time.Second))
	capacity -= capacity % (format.Channels * 2)

	rb := NewRingBuffer(capacity)
	player := ctx.NewPlayer(rb)
	// The mux player's own buffer defaults to half a second; keep it close
	// to the ring buffer so the device does not run far ahead.
	player.SetBufferSize(capacity / 2)
	// Set volume before Play() to avoid a pop when muted
	player.SetVolume(clampVolume(volume))
	player.Play()

	return &Player{
		player: player,
		ring:   rb,
		bytes:  make([]byte, 0, 4096),
	}, nil
}

// Write converts samples to little-endian bytes and queues them, blocking
// while the ring buffer is full.
func (p *Player) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	p.bytes = appendLE(p.bytes[:0], samples)
	if _, err := p.ring.Write(p.bytes); err != nil {
		return fmt.Errorf("audio player: %w", err)
	}
	return nil
}

// Buffered returns the bytes queued ahead of the device.
func (p *Player) Buffered() int {
	return p.ring.Buffered() + p.player.BufferedSize()
}

// Underruns returns how many device reads found the buffer short.
func (p *Player) Underruns() uint64 {
	return p.ring.Underruns()
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = normal, 2.0 = max).
func (p *Player) SetVolume(vol float64) {
	p.player.SetVolume(clampVolume(vol))
}

// Close unblocks pending writes and stops playback.
func (p *Player) Close() error {
	p.ring.Close()
	return p.player.Close()
}

func clampVolume(vol float64) float64 {
	if vol < 0 {
		return 0
	}
	if vol > 2.0 {
		return 2.0
	}
	return vol
}

func appendLE(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = append(dst, byte(s), byte(s>>8))
	}
	return dst
}
