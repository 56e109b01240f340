package decode

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// Orientation reads the EXIF orientation tag (0x0112) from the PRIMARY IFD
// independently of whichever decode path handles the pixels. Per
// SPEC_FULL §4.2, only 1/3/6/8 are meaningful; any other value (including
// a missing tag or unreadable EXIF) defaults to 1. The caller stores this
// value in the TR and never bakes it into pixels — rotation is the UI's
// job.
func Orientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	v, err := tag.Int(0)
	if err != nil {
		return 1
	}

	switch v {
	case 1, 3, 6, 8:
		return v
	default:
		return 1
	}
}
