// Package libretro runs a libretro core shared library as an emulation
// core. The library is loaded at runtime without cgo; the driver sees it
// as an ordinary emucore.Core.
package libretro

import (
	"encoding/binary"
	"unsafe"

	emucore "github.com/Zash60/MedNES/api"
)

// apiVersion is the only RETRO_API_VERSION this frontend speaks.
const apiVersion = 1

// Environment commands handled by the frontend.
const (
	envGetCanDupe          = 3
	envSetMessage          = 6
	envShutdown            = 7
	envSetPerformanceLevel = 8
	envGetSystemDirectory  = 9
	envSetPixelFormat      = 10
	envSetInputDescriptors = 11
	envGetVariable         = 15
	envSetVariables        = 16
	envGetVariableUpdate   = 17
	envSetSupportNoGame    = 18
	envGetSaveDirectory    = 31
	envSetGeometry         = 37

	envExperimental = 0x10000
)

type pixelFormat int32

const (
	pixelFormat0RGB1555 pixelFormat = 0
	pixelFormatXRGB8888 pixelFormat = 1
	pixelFormatRGB565   pixelFormat = 2
)

func (f pixelFormat) valid() bool {
	return f >= pixelFormat0RGB1555 && f <= pixelFormatRGB565
}

func (f pixelFormat) bytesPerPixel() int {
	if f == pixelFormatXRGB8888 {
		return 4
	}
	return 2
}

func (f pixelFormat) String() string {
	switch f {
	case pixelFormat0RGB1555:
		return "0RGB1555"
	case pixelFormatXRGB8888:
		return "XRGB8888"
	case pixelFormatRGB565:
		return "RGB565"
	default:
		return "unknown"
	}
}

// Joypad device and button IDs.
const (
	deviceJoypad = 1

	joypadB      = 0
	joypadY      = 1
	joypadSelect = 2
	joypadStart  = 3
	joypadUp     = 4
	joypadDown   = 5
	joypadLeft   = 6
	joypadRight  = 7
	joypadA      = 8
	joypadX      = 9
	joypadMask   = 256
)

// joypadIDs maps console buttons onto the RetroPad.
var joypadIDs = [emucore.NumButtons]uint32{
	emucore.ButtonA:      joypadA,
	emucore.ButtonB:      joypadB,
	emucore.ButtonSelect: joypadSelect,
	emucore.ButtonStart:  joypadStart,
	emucore.ButtonUp:     joypadUp,
	emucore.ButtonDown:   joypadDown,
	emucore.ButtonLeft:   joypadLeft,
	emucore.ButtonRight:  joypadRight,
}

// joypadState answers an input_state query for port 0 from a mask of
// held RetroPad buttons.
func joypadState(mask, port, device, id uint32) int16 {
	if port != 0 || device != deviceJoypad {
		return 0
	}
	if id == joypadMask {
		return int16(mask)
	}
	if id >= 16 {
		return 0
	}
	return int16(mask >> id & 1)
}

// Mirrors of the C structs passed across the ABI. Field order and sizes
// must match libretro.h.
type systemInfo struct {
	libraryName     *byte
	libraryVersion  *byte
	validExtensions *byte
	needFullpath    bool
	blockExtract    bool
}

type gameInfo struct {
	path *byte
	data unsafe.Pointer
	size uintptr
	meta *byte
}

type gameGeometry struct {
	baseWidth   uint32
	baseHeight  uint32
	maxWidth    uint32
	maxHeight   uint32
	aspectRatio float32
}

type systemTiming struct {
	fps        float64
	sampleRate float64
}

type systemAVInfo struct {
	geometry gameGeometry
	timing   systemTiming
}

type variable struct {
	key   *byte
	value *byte
}

// goString copies a NUL-terminated C string.
func goString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// cString returns a NUL-terminated copy of s.
func cString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

func expand5(v uint32) uint32 { return v<<3 | v>>2 }
func expand6(v uint32) uint32 { return v<<2 | v>>4 }

// pixelAt decodes pixel x of a row into 0xFFRRGGBB.
func pixelAt(row []byte, x int, format pixelFormat) uint32 {
	switch format {
	case pixelFormatXRGB8888:
		return 0xFF000000 | binary.LittleEndian.Uint32(row[x*4:])&0x00FFFFFF
	case pixelFormatRGB565:
		v := uint32(binary.LittleEndian.Uint16(row[x*2:]))
		r := expand5(v >> 11 & 0x1F)
		g := expand6(v >> 5 & 0x3F)
		b := expand5(v & 0x1F)
		return 0xFF000000 | r<<16 | g<<8 | b
	default:
		v := uint32(binary.LittleEndian.Uint16(row[x*2:]))
		r := expand5(v >> 10 & 0x1F)
		g := expand5(v >> 5 & 0x1F)
		b := expand5(v & 0x1F)
		return 0xFF000000 | r<<16 | g<<8 | b
	}
}

// blit converts a width x height image with the given pitch into the
// 256x240 ARGB frame. Smaller images are centered on black; larger ones
// are cropped around their center.
func blit(dst []uint32, src []byte, width, height, pitch int, format pixelFormat) {
	if width <= 0 || height <= 0 {
		return
	}
	if width < emucore.FrameWidth || height < emucore.FrameHeight {
		clear(dst)
	}

	dstX, srcX, cols := centerSpan(width, emucore.FrameWidth)
	dstY, srcY, rows := centerSpan(height, emucore.FrameHeight)
	bpp := format.bytesPerPixel()

	for y := 0; y < rows; y++ {
		start := (srcY + y) * pitch
		end := start + (srcX+cols)*bpp
		if end > len(src) {
			return
		}
		row := src[start:end]
		out := dst[(dstY+y)*emucore.FrameWidth+dstX:]
		for x := 0; x < cols; x++ {
			out[x] = pixelAt(row, srcX+x, format)
		}
	}
}

// centerSpan aligns a source extent of n against a destination of size
// and returns the destination offset, source offset and overlap length.
func centerSpan(n, size int) (dstOff, srcOff, length int) {
	if n <= size {
		return (size - n) / 2, 0, n
	}
	return 0, (n - size) / 2, size
}

// sampleFIFO is a bounded queue of interleaved stereo samples that drops
// the oldest data on overflow. Calls are serialized by the driver's core
// lock.
type sampleFIFO struct {
	buf   []int16
	head  int
	count int
}

func newSampleFIFO(capacity int) *sampleFIFO {
	return &sampleFIFO{buf: make([]int16, capacity)}
}

func (f *sampleFIFO) push(samples []int16) {
	if len(samples) >= len(f.buf) {
		samples = samples[len(samples)-len(f.buf):]
		f.head, f.count = 0, 0
	}
	if over := f.count + len(samples) - len(f.buf); over > 0 {
		f.head = (f.head + over) % len(f.buf)
		f.count -= over
	}
	tail := (f.head + f.count) % len(f.buf)
	n := copy(f.buf[tail:], samples)
	copy(f.buf, samples[n:])
	f.count += len(samples)
}

// pull copies whole stereo frames into dst and returns the sample count.
func (f *sampleFIFO) pull(dst []int16) int {
	n := min(f.count, len(dst))
	n -= n % 2
	for i := 0; i < n; i++ {
		dst[i] = f.buf[(f.head+i)%len(f.buf)]
	}
	f.head = (f.head + n) % len(f.buf)
	f.count -= n
	return n
}

func (f *sampleFIFO) len() int { return f.count }

func (f *sampleFIFO) reset() { f.head, f.count = 0, 0 }

// resampler converts interleaved stereo between sample rates by linear
// interpolation. The core's native rate varies per core and per game;
// the sink's rate is fixed when the session starts.
type resampler struct {
	step float64 // input frames per output frame
	pos  float64
	prev [2]int16
}

func newResampler(inRate, outRate float64) *resampler {
	r := &resampler{step: 1}
	r.setRates(inRate, outRate)
	return r
}

func (r *resampler) setRates(inRate, outRate float64) {
	if inRate > 0 && outRate > 0 {
		r.step = inRate / outRate
	}
	r.pos = 0
	r.prev = [2]int16{}
}

// process appends the resampled form of in to out.
func (r *resampler) process(out, in []int16) []int16 {
	frames := len(in) / 2
	if frames == 0 {
		return out
	}
	if r.step == 1 {
		return append(out, in[:frames*2]...)
	}

	// Frame index 0 is the last frame of the previous batch; index k >= 1
	// is in[k-1].
	at := func(k, ch int) float64 {
		if k == 0 {
			return float64(r.prev[ch])
		}
		return float64(in[(k-1)*2+ch])
	}
	for {
		i := int(r.pos)
		if i+1 > frames {
			break
		}
		frac := r.pos - float64(i)
		for ch := 0; ch < 2; ch++ {
			a, b := at(i, ch), at(i+1, ch)
			out = append(out, int16(a+(b-a)*frac))
		}
		r.pos += r.step
	}
	r.pos -= float64(frames)
	r.prev = [2]int16{in[(frames-1)*2], in[(frames-1)*2+1]}
	return out
}
