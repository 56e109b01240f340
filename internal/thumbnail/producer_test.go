package thumbnail

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dwander/thumbpipe/internal/cachestore"
)

// writeTestJPEG writes a plain, EXIF-free JPEG of the given size to dir
// and returns its path.
func writeTestJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return path
}

func newTestProducer(t *testing.T) *Producer {
	t.Helper()
	store, err := cachestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("cachestore.New() error = %v", err)
	}
	return New(store)
}

// TestProduceFastCacheRoundTrip covers universal property 1: a second
// ProduceFast with unchanged mtime hits the cache and reports identical
// dimensions.
func TestProduceFastCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "a.jpg", 800, 600)
	p := newTestProducer(t)

	first, err := p.ProduceFast(path)
	if err != nil {
		t.Fatalf("ProduceFast() first call error = %v", err)
	}
	if first.Source != SourceDCT {
		t.Fatalf("first ProduceFast() source = %q, want %q", first.Source, SourceDCT)
	}

	second, err := p.ProduceFast(path)
	if err != nil {
		t.Fatalf("ProduceFast() second call error = %v", err)
	}
	if second.Source != SourceCache {
		t.Fatalf("second ProduceFast() source = %q, want %q (cache hit)", second.Source, SourceCache)
	}
	if second.Width != first.Width || second.Height != first.Height {
		t.Fatalf("cached dimensions %dx%d differ from original %dx%d",
			second.Width, second.Height, first.Width, first.Height)
	}
}

// TestProduceFastCacheInvalidatesOnMtime covers universal property 2.
func TestProduceFastCacheInvalidatesOnMtime(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "a.jpg", 800, 600)
	p := newTestProducer(t)

	if _, err := p.ProduceFast(path); err != nil {
		t.Fatalf("ProduceFast() error = %v", err)
	}

	future := time.Now().Add(1 * time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	result, err := p.ProduceFast(path)
	if err != nil {
		t.Fatalf("ProduceFast() after mtime change error = %v", err)
	}
	if result.Source == SourceCache {
		t.Fatalf("ProduceFast() after mtime change should miss the old cache entry, got source=cache")
	}
}

// TestProduceFastDimensionBound covers universal property 3 for a
// non-SVG input.
func TestProduceFastDimensionBound(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "big.jpg", 4000, 3000)
	p := newTestProducer(t)

	result, err := p.ProduceFast(path)
	if err != nil {
		t.Fatalf("ProduceFast() error = %v", err)
	}
	if result.Width > MaxDimension || result.Height > MaxDimension {
		t.Fatalf("ProduceFast() dimensions %dx%d exceed cap %d", result.Width, result.Height, MaxDimension)
	}
}

func TestProduceFastMissingFile(t *testing.T) {
	p := newTestProducer(t)
	if _, err := p.ProduceFast("/does/not/exist.jpg"); err == nil {
		t.Fatalf("ProduceFast() on missing file should error")
	}
}

func TestClassifyHQThumbnails(t *testing.T) {
	dir := t.TempDir()
	cached := writeTestJPEG(t, dir, "cached.jpg", 200, 200)
	uncached := writeTestJPEG(t, dir, "uncached.jpg", 200, 200)
	p := newTestProducer(t)

	if _, err := p.ProduceHQ(cached); err != nil {
		t.Fatalf("ProduceHQ() error = %v", err)
	}

	c := p.Classify([]string{cached, uncached})
	if len(c.Existing) != 1 || c.Existing[0] != cached {
		t.Fatalf("Classify().Existing = %v, want [%s]", c.Existing, cached)
	}
	if len(c.Missing) != 1 || c.Missing[0] != uncached {
		t.Fatalf("Classify().Missing = %v, want [%s]", c.Missing, uncached)
	}
}

// TestProduceHQIdempotent checks that a second ProduceHQ for the same
// input hits the cache and returns byte-identical output to the first.
func TestProduceHQIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeTestJPEG(t, dir, "a.jpg", 500, 400)
	p := newTestProducer(t)

	first, err := p.ProduceHQ(path)
	if err != nil {
		t.Fatalf("ProduceHQ() first call error = %v", err)
	}

	second, err := p.ProduceHQ(path)
	if err != nil {
		t.Fatalf("ProduceHQ() second call error = %v", err)
	}
	if second.Source != SourceCache {
		t.Fatalf("second ProduceHQ() source = %q, want cache", second.Source)
	}
	if second.PixelsB64 != first.PixelsB64 {
		t.Fatalf("ProduceHQ() cache hit returned different bytes than the original encode")
	}
}
