package decode

import (
	"image"
	_ "image/gif"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Generic is the best-effort fallback decode path for any format the
// standard library or golang.org/x/image registers a decoder for (PNG,
// GIF, BMP, TIFF, WEBP-as-fallback, ...). It has no format-specific
// shortcuts: full decode, then resize.
type Generic struct{}

func (Generic) Decode(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, newError(ErrInputInvalid, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Result{}, newError(ErrDecodeFailed, path, err)
	}

	return fitRGB(img, MaxDimension), nil
}

// fitRGB resizes img so its longer side is at most maxDim (images already
// within bounds are left at their native size, never upscaled) and packs
// the result into tightly-packed 8-bit RGB, dropping alpha. Resizing uses
// imaging.Fit, the same aspect-preserving box the teacher's thumbnail
// generator used for its own resize step.
func fitRGB(img image.Image, maxDim int) Result {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w > maxDim || h > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		b = img.Bounds()
		w, h = b.Dx(), b.Dy()
	}

	rgb := make([]byte, w*h*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			rgb[i] = byte(r >> 8)
			rgb[i+1] = byte(g >> 8)
			rgb[i+2] = byte(bl >> 8)
			i += 3
		}
	}

	return Result{RGB: rgb, Width: w, Height: h}
}
