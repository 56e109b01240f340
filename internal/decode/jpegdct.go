package decode

import (
	"image"
	"os"

	libjpeg "github.com/pixiv/go-libjpeg/jpeg"
)

// JPEGDCT decodes a JPEG using libjpeg's DCT scaling: the decoder is asked
// to produce an image no larger than MaxDimension x MaxDimension and picks
// the coarsest scale denominator (1, 1/2, 1/4, 1/8) that still covers the
// request, skipping the cost of a full-resolution decode.
type JPEGDCT struct{}

func (JPEGDCT) Decode(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, newError(ErrInputInvalid, path, err)
	}
	defer f.Close()

	img, err := libjpeg.Decode(f, &libjpeg.DecoderOptions{
		ScaleTarget: image.Rect(0, 0, MaxDimension, MaxDimension),
	})
	if err != nil {
		return Result{}, newError(ErrDecodeFailed, path, err)
	}

	// ScaleTarget only chooses among libjpeg's four DCT scale denominators
	// (1, 1/2, 1/4, 1/8), so the decoded image can still land above
	// MaxDimension on one axis; fitRGB's own bound check makes the final
	// size exact without ever upscaling what libjpeg already shrank.
	return fitRGB(img, MaxDimension), nil
}
