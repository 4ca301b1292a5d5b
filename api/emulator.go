// Package emucore defines the fixed call contract between the driver and a
// native emulation core.
package emucore

// Native frame geometry. Every frame is a full 256x240 raster of 4-byte
// ARGB pixels (0xAARRGGBB).
const (
	FrameWidth  = 256
	FrameHeight = 240
	FramePixels = FrameWidth * FrameHeight
)

// Image is a resolved ROM image handed to the core. Path is the location
// the image was resolved from; Data holds the extracted image bytes.
type Image struct {
	Path string
	Data []byte
}

// AudioFormat describes the PCM stream produced by PullAudio. Samples are
// signed 16-bit; multi-channel data is interleaved.
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// DefaultAudioFormat is 44100 Hz mono.
var DefaultAudioFormat = AudioFormat{SampleRate: 44100, Channels: 1}

// Core is the contract every native core adapter must implement.
//
// Implementations are not required to be safe for concurrent use. The
// driver serializes every call behind a single lock.
type Core interface {
	// LoadImage parses and validates the image and resets the machine.
	// A non-nil error means the core rejected the image.
	LoadImage(img Image) error

	// AdvanceFrame runs exactly one emulated frame and writes it into
	// pixels, which holds FramePixels entries.
	AdvanceFrame(pixels []uint32) error

	// PullAudio copies up to len(samples) ready samples into samples and
	// returns how many were written. Zero means nothing is ready yet.
	PullAudio(samples []int16) int

	// SendInput delivers a discrete button event. There is no
	// acknowledgment; the latest state for a button wins.
	SendInput(button Button, pressed bool)

	// AudioFormat reports the format of the samples returned by PullAudio.
	AudioFormat() AudioFormat

	// Close releases any resources held by the core.
	Close() error
}

// TimingReporter is implemented by cores whose native frame rate differs
// from DefaultTiming.
type TimingReporter interface {
	Timing() Timing
}
