// Command thumbpipe-demo wires the pipeline's components together over a
// single folder and logs emitted events through the standard logger
// (stderr), standing in for the UI/RPC bridge that would normally consume
// them.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/dwander/thumbpipe/internal/cachestore"
	"github.com/dwander/thumbpipe/internal/config"
	"github.com/dwander/thumbpipe/internal/events"
	"github.com/dwander/thumbpipe/internal/hqworker"
	"github.com/dwander/thumbpipe/internal/queue"
	"github.com/dwander/thumbpipe/internal/server"
	"github.com/dwander/thumbpipe/internal/thumbnail"
	"github.com/dwander/thumbpipe/internal/watcher"
)

var watchedExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {}, "webp": {},
	"tiff": {}, "tif": {}, "exr": {}, "avif": {}, "ico": {}, "svg": {},
	"nef": {}, "nrw": {}, "cr2": {}, "crw": {}, "arw": {}, "srf": {},
	"sr2": {}, "dng": {}, "raf": {}, "orf": {}, "rw2": {}, "pef": {},
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (optional, uses defaults + env vars)")
	autoStart := flag.Bool("auto-start", true, "Start the Fast Queue over the configured folder on startup")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("thumbpipe - folder thumbnail pipeline")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Watched folder: %s", cfg.Photos.Path)
	log.Printf("Cache dir: %s", cfg.Cache.Dir)

	store, err := cachestore.New(cfg.Cache.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize cache store: %v", err)
	}

	producer := thumbnail.New(store)
	sink := events.SinkFunc(logEvent)

	fastQueue := queue.New(producer, sink)
	// No real focus/idle signal wired here, so the HQ pass stays
	// conservative and waits until Cancel or shutdown.
	hq := hqworker.New(producer, sink, hqworker.ConservativeDefault{})
	fw := watcher.New(sink)

	ctx, cancel := context.WithCancel(context.Background())

	paths, err := listImages(cfg.Photos.Path)
	if err != nil {
		log.Fatalf("Failed to list %s: %v", cfg.Photos.Path, err)
	}
	log.Printf("Found %d images", len(paths))

	if *autoStart && len(paths) > 0 {
		fastQueue.Initialize(paths)
		fastQueue.StartWorker(ctx)
		go hq.StartMissing(ctx, paths)
	}

	if err := fw.Watch(cfg.Photos.Path); err != nil {
		log.Printf("Failed to watch %s: %v", cfg.Photos.Path, err)
	}

	srv := server.New(ctx, cfg, fastQueue, hq, producer)
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Command surface stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")
	hq.Cancel()
	fw.Stop()
	cancel()
}

// listImages returns the watched-extension files directly inside dir, in
// name-sorted order, non-recursive like the Folder Watcher. Unlike the
// watcher's filter, this extension set also includes the RAW formats.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		if _, ok := watchedExtensions[ext]; !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func logEvent(e events.Event) {
	log.Printf("event: %s payload=%+v", e.Name, e.Payload)
}
