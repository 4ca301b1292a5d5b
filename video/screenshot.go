package video

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.design/x/clipboard"
	xdraw "golang.org/x/image/draw"
)

// Screenshot renders ARGB pixels as an image scaled by an integer factor
// with nearest-neighbour sampling so pixels stay sharp.
func Screenshot(pixels []uint32, scale int) *image.RGBA {
	return Scale(ToImage(pixels), scale)
}

// Scale enlarges src by an integer factor with nearest-neighbour sampling.
func Scale(src *image.RGBA, scale int) *image.RGBA {
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// SavePNG writes img into dir under a timestamped name and returns the
// file path.
func SavePNG(dir string, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	name := time.Now().Format("20060102-150405.000") + ".png"
	fullPath := filepath.Join(dir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return fullPath, nil
}

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// CopyToClipboard places img on the system clipboard as a PNG.
func CopyToClipboard(img image.Image) error {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", clipboardErr)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}
