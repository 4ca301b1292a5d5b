package video

import (
	"github.com/hajimehoshi/ebiten/v2"

	emucore "github.com/Zash60/MedNES/api"
)

// renderer owns the offscreen image the frame is uploaded into and draws
// it scaled to the window, preserving the display aspect ratio.
type renderer struct {
	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions
	par       float64
}

func newRenderer(pixelAspect float64) *renderer {
	if pixelAspect <= 0 {
		pixelAspect = 1
	}
	return &renderer{par: pixelAspect}
}

// draw uploads RGBA pixels and draws them centered on screen.
func (r *renderer) draw(screen *ebiten.Image, pixels []byte) {
	if len(pixels) < emucore.FramePixels*4 {
		return
	}
	if r.offscreen == nil {
		r.offscreen = ebiten.NewImage(emucore.FrameWidth, emucore.FrameHeight)
	}
	r.offscreen.WritePixels(pixels[:emucore.FramePixels*4])

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	sx, sy, ox, oy := fitScale(screenW, screenH, emucore.FrameWidth, emucore.FrameHeight, r.par)

	r.drawOpts = ebiten.DrawImageOptions{}
	r.drawOpts.GeoM.Scale(sx, sy)
	r.drawOpts.GeoM.Translate(ox, oy)
	r.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(r.offscreen, &r.drawOpts)
}

// fitScale returns the horizontal and vertical scale and the offset that
// fit a nativeW x nativeH image with pixel aspect par into the screen.
func fitScale(screenW, screenH, nativeW, nativeH int, par float64) (sx, sy, ox, oy float64) {
	if nativeW == 0 || nativeH == 0 {
		return 0, 0, 0, 0
	}
	displayW := float64(nativeW) * par
	displayH := float64(nativeH)

	scale := float64(screenW) / displayW
	if s := float64(screenH) / displayH; s < scale {
		scale = s
	}

	sx = scale * par
	sy = scale
	ox = (float64(screenW) - displayW*scale) / 2
	oy = (float64(screenH) - displayH*scale) / 2
	return sx, sy, ox, oy
}
