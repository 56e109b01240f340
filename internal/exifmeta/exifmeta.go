// Package exifmeta extracts the descriptive EXIF bag that rides alongside
// a thumbnail result — camera make/model, exposure settings, capture time
// — as opposed to decode/orientation.go's single-purpose orientation read.
// A caller that only needs the rotation tag should use decode.Orientation
// instead of paying for this fuller walk.
package exifmeta

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata is the optional descriptive bag a ThumbnailResult may carry.
// Every field is best-effort: a tag that is absent or unparsable is left
// at its zero value rather than failing the whole extraction.
type Metadata struct {
	Orientation     int    `json:"orientation"`
	DateTime        string `json:"date_time,omitempty"`
	DateTimeOrig    string `json:"date_time_original,omitempty"`
	CameraMake      string `json:"camera_make,omitempty"`
	CameraModel     string `json:"camera_model,omitempty"`
	LensModel       string `json:"lens_model,omitempty"`
	FocalLength     string `json:"focal_length,omitempty"`
	Aperture        string `json:"aperture,omitempty"`
	ShutterSpeed    string `json:"shutter_speed,omitempty"`
	ISO             string `json:"iso,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
}

// Extract reads the full descriptive EXIF bag from path. It returns a
// Metadata with only Orientation set (to 1), and no error, when the file
// carries no readable EXIF at all — callers treat a metadata-less image
// the same as one with a sparse bag.
func Extract(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return Metadata{Orientation: 1}, nil
	}

	m := Metadata{Orientation: 1}

	if v, ok := tagInt(x, exif.Orientation); ok {
		switch v {
		case 1, 3, 6, 8:
			m.Orientation = v
		}
	}

	m.DateTime = tagString(x, exif.DateTime)
	m.DateTimeOrig = tagString(x, exif.DateTimeOriginal)
	m.CameraMake = tagString(x, exif.Make)
	m.CameraModel = tagString(x, exif.Model)
	m.LensModel = tagString(x, exif.LensModel)
	m.FocalLength = tagString(x, exif.FocalLength)
	m.Aperture = tagString(x, exif.FNumber)
	m.ShutterSpeed = tagString(x, exif.ExposureTime)
	m.ISO = tagString(x, exif.ISOSpeedRatings)

	if w, ok := tagInt(x, exif.PixelXDimension); ok {
		m.Width = w
	}
	if h, ok := tagInt(x, exif.PixelYDimension); ok {
		m.Height = h
	}

	return m, nil
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err == nil {
		return s
	}
	return tag.String()
}

func tagInt(x *exif.Exif, name exif.FieldName) (int, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, false
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}
