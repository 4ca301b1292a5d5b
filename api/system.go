package emucore

import (
	"fmt"
	"strings"
)

// Button identifies one of the eight logical controller buttons.
type Button int

const (
	ButtonA Button = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight

	// NumButtons is the size of the button enumeration.
	NumButtons = 8
)

var buttonNames = [NumButtons]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

// Valid reports whether b is inside the fixed enumeration.
func (b Button) Valid() bool {
	return b >= 0 && b < NumButtons
}

// String returns the display name of the button.
func (b Button) String() string {
	if !b.Valid() {
		return "Unknown"
	}
	return buttonNames[b]
}

// Buttons returns every button in enumeration order.
func Buttons() []Button {
	out := make([]Button, NumButtons)
	for i := range out {
		out[i] = Button(i)
	}
	return out
}

// ParseButton converts a display name (case-insensitive) back to a Button.
func ParseButton(name string) (Button, error) {
	for i, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// NESPixelAspectRatio is the NTSC pixel aspect ratio of the PPU output.
const NESPixelAspectRatio = 8.0 / 7.0

// DisplayAspectRatio returns the display aspect ratio for a frame of the
// given size drawn with pixels of the given aspect ratio.
func DisplayAspectRatio(width, height int, pixelAspectRatio float64) float64 {
	if height == 0 {
		return 0
	}
	return float64(width) / float64(height) * pixelAspectRatio
}
