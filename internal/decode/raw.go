package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
)

// Most supported RAW containers (NEF, CR2, ARW, DNG, RAF, ORF, RW2, PEF)
// are themselves TIFF files, with the embedded-JPEG-preview tags
// (0x0201 JPEGInterchangeFormat, 0x0202 JPEGInterchangeFormatLength)
// appearing in IFD0 (a large display-size preview) and/or IFD1 (a small
// thumbnail), exactly as a regular JPEG's APP1/EXIF segment carries them
// in its own IFD1.
//
// goexif's public Exif/Walker API flattens tags into a single named
// namespace and cannot distinguish "JPEGInterchangeFormat in IFD0" from
// "...in IFD1" — both are legitimate and distinct in RAW files. This
// walker reads the TIFF IFD chain directly instead, the same low-level
// approach the corpus uses wherever a format needs IFD-precise tag
// lookup (e.g. the pack's manual EXIF/TIFF byte parsers).
const (
	tagJPEGInterchangeFormat       = 0x0201
	tagJPEGInterchangeFormatLength = 0x0202
	ifdEntrySize                   = 12
)

type tiffIFD struct {
	entries map[uint16]tiffEntry
	next    uint32
}

type tiffEntry struct {
	typ   uint16
	count uint32
	value uint32 // valid only for types that fit in 4 bytes (LONG/SHORT)
}

// readTIFFIFD reads a single IFD at byteOffset from a previously-parsed
// TIFF byte order.
func readTIFFIFD(data []byte, order binary.ByteOrder, byteOffset uint32) (tiffIFD, error) {
	ifd := tiffIFD{entries: make(map[uint16]tiffEntry)}
	if int(byteOffset)+2 > len(data) {
		return ifd, fmt.Errorf("ifd offset out of range")
	}
	count := order.Uint16(data[byteOffset : byteOffset+2])
	base := byteOffset + 2

	for i := uint16(0); i < count; i++ {
		off := base + uint32(i)*ifdEntrySize
		if int(off)+ifdEntrySize > len(data) {
			break
		}
		tag := order.Uint16(data[off : off+2])
		typ := order.Uint16(data[off+2 : off+4])
		cnt := order.Uint32(data[off+4 : off+8])
		val := order.Uint32(data[off+8 : off+12])
		if typ == 3 { // SHORT: the value sits in the field's first two bytes
			val = uint32(order.Uint16(data[off+8 : off+10]))
		}
		ifd.entries[tag] = tiffEntry{typ: typ, count: cnt, value: val}
	}

	nextOff := base + uint32(count)*ifdEntrySize
	if int(nextOff)+4 <= len(data) {
		ifd.next = order.Uint32(data[nextOff : nextOff+4])
	}
	return ifd, nil
}

// parseTIFFHeader validates the byte-order marker and returns the decoded
// byte order plus the offset of IFD0.
func parseTIFFHeader(data []byte) (binary.ByteOrder, uint32, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("too short to be TIFF")
	}
	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, 0, fmt.Errorf("not a TIFF byte-order marker")
	}
	return order, order.Uint32(data[4:8]), nil
}

// ifdPreview extracts the JPEG bytes an IFD's preview tag pair points to,
// reading the raw file by absolute offset.
func ifdPreview(f *os.File, ifd tiffIFD) ([]byte, bool) {
	offEntry, ok1 := ifd.entries[tagJPEGInterchangeFormat]
	lenEntry, ok2 := ifd.entries[tagJPEGInterchangeFormatLength]
	if !ok1 || !ok2 || lenEntry.value == 0 {
		return nil, false
	}

	buf := make([]byte, lenEntry.value)
	if _, err := f.ReadAt(buf, int64(offEntry.value)); err != nil {
		return nil, false
	}
	if len(buf) < 2 || buf[0] != 0xFF || buf[1] != 0xD8 {
		return nil, false
	}
	return buf, true
}

// extractRAWPreviews returns (primary, thumbnail) JPEG previews found in a
// RAW file's IFD0 and IFD1 respectively. Either may be nil.
func extractRAWPreviews(path string) (primary, thumbnail []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	// The IFD chain can span well past the small header; read a generous
	// prefix (most cameras keep both IFDs and their previews' offsets
	// within the first few hundred KB of metadata, though the preview
	// bytes themselves are read separately by absolute offset via
	// ReadAt above).
	header := make([]byte, 1<<20)
	n, err := f.ReadAt(header, 0)
	if err != nil && n == 0 {
		return nil, nil, err
	}
	header = header[:n]

	order, ifd0Off, err := parseTIFFHeader(header)
	if err != nil {
		return nil, nil, err
	}

	ifd0, err := readTIFFIFD(header, order, ifd0Off)
	if err != nil {
		return nil, nil, err
	}
	if data, ok := ifdPreview(f, ifd0); ok {
		primary = data
	}

	if ifd0.next != 0 {
		ifd1, err := readTIFFIFD(header, order, ifd0.next)
		if err == nil {
			if data, ok := ifdPreview(f, ifd1); ok {
				thumbnail = data
			}
		}
	}

	return primary, thumbnail, nil
}

// RAWEmbeddedJPEG implements the RAW embedded-JPEG decode path used by the
// Thumbnail Producer: prefer the THUMBNAIL IFD (it is already small),
// falling back to the PRIMARY IFD, then downscale to MaxDimension.
type RAWEmbeddedJPEG struct{}

func (RAWEmbeddedJPEG) Decode(path string) (Result, error) {
	primary, thumbnail, err := extractRAWPreviews(path)
	if err != nil {
		return Result{}, newError(ErrDecodeFailed, path, err)
	}

	jpegBytes := thumbnail
	if jpegBytes == nil {
		jpegBytes = primary
	}
	if jpegBytes == nil {
		return Result{}, newError(ErrDecodeFailed, path, fmt.Errorf("no embedded JPEG preview found"))
	}

	img, _, err := image.Decode(bytes.NewReader(jpegBytes))
	if err != nil {
		return Result{}, newError(ErrDecodeFailed, path, err)
	}

	return fitRGB(img, MaxDimension), nil
}

// ExtractPreview implements the original's higher-resolution RAW preview
// extractor (for full-image viewing, out of this core's scope beyond
// providing the bytes): try PRIMARY IFD first and require its decoded
// longer side to be at least 800px, else fall back to THUMBNAIL IFD.
// Unlike RAWEmbeddedJPEG.Decode, this returns the preview undecoded and
// unscaled — serving it at full size is the UI's concern.
func ExtractPreview(path string) ([]byte, error) {
	const minPreviewSide = 800

	primary, thumbnail, err := extractRAWPreviews(path)
	if err != nil {
		return nil, err
	}

	if primary != nil {
		if cfg, err := image.DecodeConfig(bytes.NewReader(primary)); err == nil {
			if cfg.Width >= minPreviewSide || cfg.Height >= minPreviewSide {
				return primary, nil
			}
		}
	}

	if thumbnail != nil {
		return thumbnail, nil
	}

	return nil, fmt.Errorf("decode %s: no usable RAW preview found", path)
}
