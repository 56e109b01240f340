package decode

import (
	"fmt"
	"image"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// SVG rasterizes a vector image at a scale derived from its declared
// viewbox, per SPEC_FULL §4.2: scale = min(MaxDimension / max(w, h), 1.0),
// so a small icon is never upscaled past its native size.
type SVG struct{}

func (SVG) Decode(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, newError(ErrInputInvalid, path, err)
	}
	defer f.Close()

	icon, err := oksvg.ReadIconStream(f)
	if err != nil {
		return Result{}, newError(ErrDecodeFailed, path, err)
	}

	srcW, srcH := icon.ViewBox.W, icon.ViewBox.H
	if srcW <= 0 || srcH <= 0 {
		return Result{}, newError(ErrDecodeFailed, path, fmt.Errorf("svg has no usable viewbox"))
	}

	scale := float64(MaxDimension) / srcW
	if h := float64(MaxDimension) / srcH; h < scale {
		scale = h
	}
	if scale > 1.0 {
		scale = 1.0
	}

	w := int(srcW*scale + 0.5)
	h := int(srcH*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	rgb := make([]byte, w*h*3)
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rgb[i] = byte(r >> 8)
			rgb[i+1] = byte(g >> 8)
			rgb[i+2] = byte(b >> 8)
			i += 3
		}
	}

	return Result{RGB: rgb, Width: w, Height: h}, nil
}
