package video

import (
	"fmt"
	"image"
	"log"
	"math"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	emucore "github.com/Zash60/MedNES/api"
	"github.com/Zash60/MedNES/driver"
)

// WindowOptions configure a Window.
type WindowOptions struct {
	Title string
	// Scale is the initial window size as a multiple of the native frame.
	Scale      int
	Fullscreen bool
	Bindings   Bindings
	// Input receives button edges detected on the ebiten goroutine.
	Input func(b emucore.Button, pressed bool)

	ScreenshotDir   string
	ScreenshotScale int
	// CopyScreenshots also places each screenshot on the clipboard.
	CopyScreenshots bool

	ShowOverlay bool
	// Status, if set, supplies an extra overlay line.
	Status func() string
}

// Window is an ebiten.Game that presents session frames. Present is
// called by the frame pump; everything else runs on ebiten's goroutine.
type Window struct {
	opts     WindowOptions
	shared   *sharedFramebuffer
	renderer *renderer

	prev    buttonState
	overlay bool
	closing atomic.Bool
	fps     atomic.Uint64 // math.Float64bits
}

// NewWindow creates a window presenter.
func NewWindow(opts WindowOptions) *Window {
	if opts.Title == "" {
		opts.Title = "MedNES"
	}
	if opts.Scale <= 0 {
		opts.Scale = 3
	}
	if opts.ScreenshotScale <= 0 {
		opts.ScreenshotScale = 1
	}
	if opts.Bindings.Keys == nil && opts.Bindings.Gamepad == nil {
		opts.Bindings = DefaultBindings()
	}
	return &Window{
		opts:     opts,
		shared:   newSharedFramebuffer(),
		renderer: newRenderer(emucore.NESPixelAspectRatio),
		overlay:  opts.ShowOverlay,
	}
}

// Present implements driver.Presenter.
func (w *Window) Present(f driver.Frame) {
	w.shared.update(f)
}

// SetFPS records the measured rate shown in the overlay.
func (w *Window) SetFPS(fps float64) {
	w.fps.Store(math.Float64bits(fps))
}

// Run opens the window and blocks until it is closed. It must be called
// from the main goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	aspect := emucore.DisplayAspectRatio(emucore.FrameWidth, emucore.FrameHeight, emucore.NESPixelAspectRatio)
	windowW := emucore.FrameWidth * w.opts.Scale
	windowH := int(float64(windowW) / aspect)
	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowSizeLimits(emucore.FrameWidth, int(float64(emucore.FrameWidth)/aspect), -1, -1)
	ebiten.SetFullscreen(w.opts.Fullscreen)

	return ebiten.RunGame(w)
}

// Close makes Run return at the next tick.
func (w *Window) Close() {
	w.closing.Store(true)
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.closing.Load() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.releaseAll()
		return ebiten.Termination
	}

	cur := pollButtons(w.opts.Bindings)
	if w.opts.Input != nil {
		edges(w.prev, cur, w.opts.Input)
	}
	w.prev = cur

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		w.overlay = !w.overlay
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		w.screenshot()
	}
	return nil
}

func (w *Window) releaseAll() {
	if w.opts.Input != nil {
		edges(w.prev, 0, w.opts.Input)
	}
	w.prev = 0
}

// screenshot copies the current frame and saves it off the ebiten
// goroutine.
func (w *Window) screenshot() {
	pixels, seq := w.shared.read()
	if seq == 0 || w.opts.ScreenshotDir == "" {
		return
	}
	img := image.NewRGBA(image.Rect(0, 0, emucore.FrameWidth, emucore.FrameHeight))
	copy(img.Pix, pixels)

	go func() {
		scaled := Scale(img, w.opts.ScreenshotScale)
		path, err := SavePNG(w.opts.ScreenshotDir, scaled)
		if err != nil {
			log.Printf("Screenshot failed: %v", err)
			return
		}
		log.Printf("Screenshot saved: %s", path)
		if w.opts.CopyScreenshots {
			if err := CopyToClipboard(scaled); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
	}()
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	pixels, seq := w.shared.read()
	if seq == 0 {
		ebitenutil.DebugPrint(screen, "Waiting for first frame...")
		return
	}
	w.renderer.draw(screen, pixels)

	if !w.overlay {
		return
	}
	text := fmt.Sprintf("FPS %.1f  TPS %.1f", math.Float64frombits(w.fps.Load()), ebiten.ActualTPS())
	if w.opts.Status != nil {
		text += "\n" + w.opts.Status()
	}
	ebitenutil.DebugPrint(screen, text)
}

// Layout implements ebiten.Game.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := 1.0
	if m := ebiten.Monitor(); m != nil {
		s = m.DeviceScaleFactor()
	}
	return int(float64(outsideWidth) * s), int(float64(outsideHeight) * s)
}
