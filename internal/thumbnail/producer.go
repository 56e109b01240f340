package thumbnail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	webpenc "github.com/chai2010/webp"

	"github.com/dwander/thumbpipe/internal/cachestore"
	"github.com/dwander/thumbpipe/internal/decode"
	"github.com/dwander/thumbpipe/internal/exifmeta"
)

// Producer implements produce_fast and produce_hq against a shared cache
// store and decoder registry. A single Producer is meant to be shared by
// the Fast Queue and the HQ Worker for one watched folder.
type Producer struct {
	store    *cachestore.Store
	decoders *decode.Registry
	dedup    singleflight.Group
}

// New builds a Producer over an already-initialized cache store, using
// the default Decoder Dispatch registry.
func New(store *cachestore.Store) *Producer {
	return &Producer{store: store, decoders: decode.NewDefaultRegistry()}
}

// ProduceFast implements produce_fast: EXIF shortcut, then cache, then a
// fresh decode through the extension-appropriate path. Concurrent
// ProduceFast calls for the same path are deduplicated so a single decode
// serves every caller racing on it (e.g. the Fast Queue and a
// generate_thumbnail_for_image request). ProduceFast and ProduceHQ use
// separate deduplication keys, so they are not merged with each other.
func (p *Producer) ProduceFast(path string) (Result, error) {
	v, err, _ := p.dedup.Do("fast:"+path, func() (any, error) {
		return p.produceFast(path)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (p *Producer) produceFast(path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}

	orientation := decode.Orientation(path)
	meta, _ := exifmeta.Extract(path)

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "jpg" || ext == "jpeg" {
		if thumb, err := decode.ExtractEmbeddedThumbnail(path); err == nil {
			w, h, err := decode.DecodeDimensions(thumb)
			if err == nil {
				return Result{
					Path:        path,
					PixelsB64:   base64.StdEncoding.EncodeToString(thumb),
					Width:       w,
					Height:      h,
					Source:      SourceExif,
					Orientation: orientation,
					Exif:        &meta,
				}, nil
			}
		}
	}

	key := cachestore.Key(path, info.ModTime().Unix())
	if p.store.Exists(key) {
		data, err := p.store.Read(key)
		if err == nil {
			if w, h, ok := webpDimensions(data); ok {
				return Result{
					Path:        path,
					PixelsB64:   base64.StdEncoding.EncodeToString(data),
					Width:       w,
					Height:      h,
					Source:      SourceCache,
					Orientation: orientation,
					Exif:        &meta,
				}, nil
			}
		}
		log.Printf("thumbnail: cache read failed for %s, recomputing", path)
	}

	return p.decodeAndCache(path, key, orientation, &meta)
}

// ProduceHQ implements produce_hq: cache short-circuit, else decode
// through the extension-appropriate path (naturally JPEG-DCT for JPEGs,
// which is the HQ Worker's primary input) and persist.
func (p *Producer) ProduceHQ(path string) (Result, error) {
	v, err, _ := p.dedup.Do("hq:"+path, func() (any, error) {
		return p.produceHQ(path)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (p *Producer) produceHQ(path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}

	orientation := decode.Orientation(path)
	meta, _ := exifmeta.Extract(path)
	key := cachestore.Key(path, info.ModTime().Unix())

	if p.store.Exists(key) {
		data, err := p.store.Read(key)
		if err == nil {
			if w, h, ok := webpDimensions(data); ok {
				return Result{
					Path:        path,
					PixelsB64:   base64.StdEncoding.EncodeToString(data),
					Width:       w,
					Height:      h,
					Source:      SourceCache,
					Orientation: orientation,
					Exif:        &meta,
				}, nil
			}
		}
	}

	return p.decodeAndCache(path, key, orientation, &meta)
}

// HasHQ reports whether path's cache entry already exists, without
// producing anything — the building block for classify_hq_thumbnails.
func (p *Producer) HasHQ(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	key := cachestore.Key(path, info.ModTime().Unix())
	return p.store.Exists(key)
}

// Classification is the result of classify_hq_thumbnails: which of the
// submitted paths already have an HQ cache entry, and which don't.
type Classification struct {
	Existing []string
	Missing  []string
}

// Classify implements classify_hq_thumbnails.
func (p *Producer) Classify(paths []string) Classification {
	var c Classification
	for _, path := range paths {
		if p.HasHQ(path) {
			c.Existing = append(c.Existing, path)
		} else {
			c.Missing = append(c.Missing, path)
		}
	}
	return c
}

func (p *Producer) decodeAndCache(path, key string, orientation int, meta *exifmeta.Metadata) (Result, error) {
	res, err := p.decoders.Decode(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, path, err)
	}

	img := rgbToImage(res.RGB, res.Width, res.Height)

	var buf bytes.Buffer
	if err := webpenc.Encode(&buf, img, &webpenc.Options{Quality: Quality}); err != nil {
		return Result{}, fmt.Errorf("%w: webp encode %s: %v", ErrDecodeFailed, path, err)
	}

	encoded := buf.Bytes()
	if err := p.store.Write(key, encoded); err != nil {
		log.Printf("thumbnail: cache write failed for %s: %v", path, err)
	}

	return Result{
		Path:        path,
		PixelsB64:   base64.StdEncoding.EncodeToString(encoded),
		Width:       res.Width,
		Height:      res.Height,
		Source:      SourceDCT,
		Orientation: orientation,
		Exif:        meta,
	}, nil
}

// rgbToImage copies tightly-packed 8-bit RGB bytes into a new opaque
// NRGBA image, for handing to the WebP encoder.
func rgbToImage(rgb []byte, width, height int) image.Image {
	nrgba := image.NewNRGBA(image.Rect(0, 0, width, height))
	si, di := 0, 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			nrgba.Pix[di] = rgb[si]
			nrgba.Pix[di+1] = rgb[si+1]
			nrgba.Pix[di+2] = rgb[si+2]
			nrgba.Pix[di+3] = 0xFF
			si += 3
			di += 4
		}
	}
	return nrgba
}
