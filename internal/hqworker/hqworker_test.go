package hqworker

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dwander/thumbpipe/internal/cachestore"
	"github.com/dwander/thumbpipe/internal/events"
	"github.com/dwander/thumbpipe/internal/thumbnail"
)

func newTestProducer(t *testing.T) *thumbnail.Producer {
	t.Helper()
	store, err := cachestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("cachestore.New() error = %v", err)
	}
	return thumbnail.New(store)
}

func writeTestImages(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("img-%03d.jpg", i))
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		img.Set(0, 0, color.RGBA{uint8(i), 0, 0, 255})
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := jpeg.Encode(f, img, nil); err != nil {
			f.Close()
			t.Fatalf("jpeg.Encode() error = %v", err)
		}
		f.Close()
		paths[i] = path
	}
	return paths
}

func TestShouldGenerateWhenNotFocused(t *testing.T) {
	f := fakeFocus{focused: false, idleMillis: 0}
	if !shouldGenerate(f) {
		t.Fatalf("shouldGenerate() = false when not focused, want true")
	}
}

func TestShouldGenerateWhenFocusedAndIdle(t *testing.T) {
	f := fakeFocus{focused: true, idleMillis: 5000}
	if !shouldGenerate(f) {
		t.Fatalf("shouldGenerate() = false when idle past threshold, want true")
	}
}

func TestShouldNotGenerateWhenFocusedAndActive(t *testing.T) {
	f := fakeFocus{focused: true, idleMillis: 100}
	if shouldGenerate(f) {
		t.Fatalf("shouldGenerate() = true when focused and active, want false")
	}
}

// TestConservativeDefaultNeverGeneratesUnsupervised covers the no-host-signal
// default: a host that wires no real FocusState must wait, not run freely.
func TestConservativeDefaultNeverGeneratesUnsupervised(t *testing.T) {
	if shouldGenerate(ConservativeDefault{}) {
		t.Fatalf("shouldGenerate(ConservativeDefault{}) = true, want false (conservative default)")
	}
}

// TestLoadExistingCompletesAll checks a single batch call: every path
// gets an hq_completed event and a final hq_existing_loaded.
func TestLoadExistingCompletesAll(t *testing.T) {
	paths := writeTestImages(t, 5)
	sink := events.NewChan(64)
	w := New(newTestProducer(t), sink, ConservativeDefault{})

	w.LoadExisting(context.Background(), paths)

	var completedCount int
	var sawExistingLoaded bool
drain:
	for {
		select {
		case e := <-sink:
			switch e.Name {
			case events.ThumbnailHQCompleted:
				completedCount++
			case events.ThumbnailHQExisting:
				sawExistingLoaded = true
			}
		default:
			break drain
		}
	}

	if completedCount != len(paths) {
		t.Fatalf("hq_completed count = %d, want %d", completedCount, len(paths))
	}
	if !sawExistingLoaded {
		t.Fatalf("expected a thumbnail-hq-existing-loaded event")
	}
}

// TestCancelStopsStartMissing covers universal property 7: cancellation
// liveness. The gate is blocked (not focused=false + not idle) so no
// work can complete, and Cancel must still unblock the pass quickly.
func TestCancelStopsStartMissing(t *testing.T) {
	paths := writeTestImages(t, 20)
	sink := events.NewChan(64)
	focus := &fakeFocus{focused: true, idleMillis: 0} // never eligible until cancelled
	w := New(newTestProducer(t), sink, focus)

	done := make(chan struct{})
	go func() {
		w.StartMissing(context.Background(), paths)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	w.Cancel()

	select {
	case <-done:
	case <-time.After(2 * idleCheckInterval):
		t.Fatalf("StartMissing did not return within 2x idle poll interval after Cancel")
	}

	var sawCancelled bool
	for {
		select {
		case e := <-sink:
			if e.Name == events.ThumbnailHQCancelled {
				sawCancelled = true
			}
		default:
			if !sawCancelled {
				t.Fatalf("expected a thumbnail-hq-cancelled event")
			}
			return
		}
	}
}

type fakeFocus struct {
	focused    bool
	idleMillis int64
}

func (f fakeFocus) Focused() bool     { return f.focused }
func (f fakeFocus) IdleMillis() int64 { return f.idleMillis }
