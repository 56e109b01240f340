package decode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// ExtractEmbeddedThumbnail probes a JPEG file's EXIF APP1 segment for a
// JPEGInterchangeFormat/JPEGInterchangeFormatLength pair in the THUMBNAIL
// IFD and, if present and the pointed-to bytes begin with the JPEG SOI
// marker (FF D8), returns those bytes verbatim. The offset arithmetic
// (TIFF header offset = EXIF segment offset + 6, for "Exif\0\0") is
// handled internally by goexif's container reader; this function only
// asserts the shape spec.md requires.
//
// A miss (no embedded thumbnail, malformed marker) is not an error in the
// taxonomy sense — callers fall through to the main decode path silently
// (SPEC_FULL §7 "EXIF shortcut miss").
func ExtractEmbeddedThumbnail(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, err
	}

	thumb, err := x.JpegThumbnail()
	if err != nil {
		return nil, err
	}

	if len(thumb) < 2 || thumb[0] != 0xFF || thumb[1] != 0xD8 {
		return nil, fmt.Errorf("embedded thumbnail does not start with JPEG SOI")
	}

	return thumb, nil
}

// DecodeDimensions decodes just enough of a JPEG byte slice to report its
// width and height, for bundling into a ThumbnailResult without a second
// full decode.
func DecodeDimensions(jpegBytes []byte) (width, height int, err error) {
	cfg, err := image.DecodeConfig(bytes.NewReader(jpegBytes))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
