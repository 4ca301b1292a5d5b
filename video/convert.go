// Package video contains the presenters a session's frames are handed to:
// an ebiten window for interactive play and an in-memory sink for
// headless runs, plus screenshot helpers.
package video

import (
	"image"

	emucore "github.com/Zash60/MedNES/api"
)

// ARGBToRGBA converts 0xAARRGGBB pixels into RGBA bytes. Alpha is forced
// opaque since cores commonly leave it zero. dst must hold 4*len(src)
// bytes; the number of pixels converted is returned.
func ARGBToRGBA(dst []byte, src []uint32) int {
	n := min(len(src), len(dst)/4)
	for i, px := range src[:n] {
		o := i * 4
		dst[o] = byte(px >> 16)
		dst[o+1] = byte(px >> 8)
		dst[o+2] = byte(px)
		dst[o+3] = 0xFF
	}
	return n
}

// ToImage converts a full frame of ARGB pixels into an image.
func ToImage(pixels []uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, emucore.FrameWidth, emucore.FrameHeight))
	ARGBToRGBA(img.Pix, pixels)
	return img
}
