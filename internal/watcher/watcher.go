// Package watcher implements the Folder Watcher: a single, non-recursive
// directory watch with debounced, extension-filtered change events.
package watcher

import (
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dwander/thumbpipe/internal/events"
)

const debounceInterval = 500 * time.Millisecond

// imageExtensions is the set of extensions the watcher reports changes
// for; everything else is filtered out silently.
var imageExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {}, "webp": {},
	"tiff": {}, "tif": {}, "exr": {}, "avif": {}, "ico": {}, "svg": {},
}

func isWatchedExtension(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	_, ok := imageExtensions[ext]
	return ok
}

// pending coalesces one debounced emission per path, keeping the most
// recent kind seen for that path during the debounce window, except that
// a write following a create in the same window still reports file_added.
type pending struct {
	kind events.FolderChangeKind
}

// Watcher watches a single folder. Rebinding to a new path (Watch) drops
// the previous backend watcher entirely, matching the one-folder-at-a-time
// scope of the rest of the pipeline.
type Watcher struct {
	sink events.Sink

	mu      sync.Mutex
	current *fsnotify.Watcher
	done    chan struct{}
}

// New builds a Watcher that emits folder-change events to sink (nil is a
// valid no-op sink).
func New(sink events.Sink) *Watcher {
	return &Watcher{sink: sink}
}

// Watch replaces any currently-watched folder with dir.
func (w *Watcher) Watch(dir string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return err
	}

	w.mu.Lock()
	if w.current != nil {
		w.current.Close()
		close(w.done)
	}
	w.current = fsw
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	go w.run(fsw, done)
	return nil
}

// Stop drops the current watch, if any.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != nil {
		w.current.Close()
		close(w.done)
		w.current = nil
	}
}

func (w *Watcher) run(fsw *fsnotify.Watcher, done chan struct{}) {
	pendingMu := sync.Mutex{}
	pendingByPath := make(map[string]pending)
	var timer *time.Timer

	flush := func() {
		pendingMu.Lock()
		batch := pendingByPath
		pendingByPath = make(map[string]pending)
		pendingMu.Unlock()

		for path, p := range batch {
			events.Emit(w.sink, events.FolderChange, events.FolderChangePayload{
				Type: p.kind,
				Path: path,
			})
		}
	}

	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !isWatchedExtension(ev.Name) {
				continue
			}

			var kind events.FolderChangeKind
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = events.FileAdded
			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				kind = events.FileRemoved
			case ev.Op&fsnotify.Write != 0, ev.Op&fsnotify.Chmod != 0:
				kind = events.FileModified
			default:
				continue
			}

			pendingMu.Lock()
			if prev, ok := pendingByPath[ev.Name]; ok && prev.kind == events.FileAdded && kind == events.FileModified {
				kind = events.FileAdded
			}
			pendingByPath[ev.Name] = pending{kind: kind}
			pendingMu.Unlock()

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceInterval, flush)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: backend error: %v", err)

		case <-done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
