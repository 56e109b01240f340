package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dwander/thumbpipe/internal/events"
)

func TestIsWatchedExtension(t *testing.T) {
	cases := map[string]bool{
		"/a/photo.jpg":  true,
		"/a/PHOTO.JPG":  true,
		"/a/photo.png":  true,
		"/a/photo.svg":  true,
		"/a/notes.txt":  false,
		"/a/clip.mp4":   false,
		"/a/noext":      false,
	}
	for path, want := range cases {
		if got := isWatchedExtension(path); got != want {
			t.Errorf("isWatchedExtension(%q) = %v, want %v", path, got, want)
		}
	}
}

// TestWatcherEmitsFileAdded covers scenario S6's "write a new file"
// half: creating a watched-extension file produces one file_added event.
func TestWatcherEmitsFileAdded(t *testing.T) {
	dir := t.TempDir()
	sink := events.NewChan(16)
	w := New(sink)

	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "new.jpg")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case e := <-sink:
		payload, ok := e.Payload.(events.FolderChangePayload)
		if !ok {
			t.Fatalf("unexpected payload type %T", e.Payload)
		}
		if payload.Path != path {
			t.Errorf("event path = %q, want %q", payload.Path, path)
		}
		if payload.Type != events.FileAdded {
			t.Errorf("event type = %q, want %q", payload.Type, events.FileAdded)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("did not receive a folder-change event within 2s")
	}
}

// TestWatcherFiltersNonImageExtensions covers universal property 8.
func TestWatcherFiltersNonImageExtensions(t *testing.T) {
	dir := t.TempDir()
	sink := events.NewChan(16)
	w := New(sink)

	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case e := <-sink:
		t.Fatalf("expected no event for a non-image extension, got %+v", e)
	case <-time.After(1 * time.Second):
	}
}
