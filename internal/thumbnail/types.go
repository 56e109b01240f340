// Package thumbnail implements the Thumbnail Producer: the two entry
// points, produce_fast and produce_hq, that turn an image path into an
// encoded thumbnail, consulting and populating the on-disk cache along
// the way.
package thumbnail

import (
	"errors"

	"github.com/dwander/thumbpipe/internal/exifmeta"
)

// MaxDimension is the longer-side cap every encoded output respects.
const MaxDimension = 320

// Quality is the fixed WebP encode quality used by both tiers.
const Quality = 60

// Source identifies where a Result's bytes came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceExif  Source = "exif"
	SourceDCT   Source = "dct"
)

// Result is the thumbnail result (TR): the outcome of either producer
// entry point.
type Result struct {
	Path        string             `json:"path"`
	PixelsB64   string             `json:"pixels_b64"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Source      Source             `json:"source"`
	Orientation int                `json:"orientation"`
	Exif        *exifmeta.Metadata `json:"exif,omitempty"`
}

// Sentinel errors for errors.Is-based discrimination, per the error
// taxonomy's "input invalid" / "decode failed" kinds.
var (
	ErrNotFound     = errors.New("thumbnail: input path does not exist")
	ErrDecodeFailed = errors.New("thumbnail: decode failed")
)
