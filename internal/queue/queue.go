// Package queue implements the Fast Queue: a single-folder-scoped,
// priority-ordered work queue that drives produce_fast over a folder's
// images and reports progress back through an events.Sink.
package queue

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dwander/thumbpipe/internal/events"
	"github.com/dwander/thumbpipe/internal/thumbnail"
)

// Item is a single work item (W): a path, its fixed folder-listing index,
// and a priority recomputed by UpdatePriorities.
type Item struct {
	Path     string
	Index    int
	Priority int
}

// pauseCheckInterval is how often a paused worker loop re-checks the
// pause flag.
const pauseCheckInterval = 100 * time.Millisecond

// Queue is the Fast Queue. Zero value is not usable; build with New.
type Queue struct {
	producer *thumbnail.Producer
	sink     events.Sink
	sem      *semaphore.Weighted

	mu    sync.Mutex
	items []Item
	total int

	completedMu sync.RWMutex
	completed   map[string]thumbnail.Result

	paused     atomic.Bool
	processing atomic.Bool
}

// New builds a Fast Queue over producer, sized to max(1, NumCPU()/4)
// concurrent decodes, emitting progress through sink (nil is a valid
// no-op sink).
func New(producer *thumbnail.Producer, sink events.Sink) *Queue {
	n := runtime.NumCPU() / 4
	if n < 1 {
		n = 1
	}
	return &Queue{
		producer:  producer,
		sink:      sink,
		sem:       semaphore.NewWeighted(int64(n)),
		completed: make(map[string]thumbnail.Result),
	}
}

// Initialize implements initialize(paths): clears the queue and
// completion map, sets total, enqueues one item per path in listing
// order. Callers must Pause before Initialize if an in-flight worker's
// stale work must be discarded (§9 of the design notes this queue
// implements).
func (q *Queue) Initialize(paths []string) {
	q.mu.Lock()
	items := make([]Item, len(paths))
	for i, p := range paths {
		items[i] = Item{Path: p, Index: i, Priority: i}
	}
	q.items = items
	q.total = len(paths)
	q.mu.Unlock()

	q.completedMu.Lock()
	q.completed = make(map[string]thumbnail.Result)
	q.completedMu.Unlock()
}

// UpdatePriorities implements update_priorities(visible): items whose
// index is in visible get priority -(index+1000), placing them strictly
// ahead of every non-visible item (priority >= 0); the queue is
// re-sorted ascending by priority.
func (q *Queue) UpdatePriorities(visible map[int]struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		idx := q.items[i].Index
		if _, ok := visible[idx]; ok {
			q.items[i].Priority = -(idx + 1000)
		} else {
			q.items[i].Priority = idx
		}
	}
	sort.SliceStable(q.items, func(i, j int) bool {
		return q.items[i].Priority < q.items[j].Priority
	})
}

// Pause sets the pause flag; the worker loop sleeps and re-checks it
// rather than popping new work.
func (q *Queue) Pause() { q.paused.Store(true) }

// Resume clears the pause flag.
func (q *Queue) Resume() { q.paused.Store(false) }

// IsPaused reports the current pause state.
func (q *Queue) IsPaused() bool { return q.paused.Load() }

// IsProcessing reports whether a worker loop is actively running.
func (q *Queue) IsProcessing() bool { return q.processing.Load() }

func (q *Queue) popNext() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	next := q.items[0]
	q.items = q.items[1:]
	return next, true
}

// GetAllCompleted returns a snapshot copy of the completion map.
func (q *Queue) GetAllCompleted() map[string]thumbnail.Result {
	q.completedMu.RLock()
	defer q.completedMu.RUnlock()
	out := make(map[string]thumbnail.Result, len(q.completed))
	for k, v := range q.completed {
		out[k] = v
	}
	return out
}

// GetCompleted returns a single path's result, if already completed.
func (q *Queue) GetCompleted(path string) (thumbnail.Result, bool) {
	q.completedMu.RLock()
	defer q.completedMu.RUnlock()
	r, ok := q.completed[path]
	return r, ok
}

// StartWorker starts the driver loop if one isn't already running; a call
// while a previous run is still draining is a no-op, but once that run has
// finished a later call restarts it — matching start_worker's idempotence
// against the live processing flag, not a one-shot latch.
func (q *Queue) StartWorker(ctx context.Context) {
	if !q.processing.CompareAndSwap(false, true) {
		return
	}
	go q.run(ctx)
}

func (q *Queue) run(ctx context.Context) {
	var wg sync.WaitGroup

	for {
		if ctx.Err() != nil {
			wg.Wait()
			q.processing.Store(false)
			return
		}

		if q.paused.Load() {
			time.Sleep(pauseCheckInterval)
			continue
		}

		item, ok := q.popNext()
		if !ok {
			wg.Wait()
			q.processing.Store(false)
			events.Emit(q.sink, events.ThumbnailAllCompleted, true)
			return
		}

		if err := q.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			q.processing.Store(false)
			return
		}

		wg.Add(1)
		go func(it Item) {
			defer wg.Done()
			defer q.sem.Release(1)
			q.process(it)
		}(item)
	}
}

func (q *Queue) process(item Item) {
	result, err := q.producer.ProduceFast(item.Path)
	if err != nil {
		return
	}

	q.completedMu.Lock()
	q.completed[item.Path] = result
	completed := len(q.completed)
	q.completedMu.Unlock()

	events.Emit(q.sink, events.ThumbnailProgress, events.Progress{
		Completed:   completed,
		Total:       q.total,
		CurrentPath: item.Path,
	})
	events.Emit(q.sink, events.ThumbnailCompleted, result)
}

