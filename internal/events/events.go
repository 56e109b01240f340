// Package events defines the outbound notification surface the core pipeline
// emits toward its host (normally a UI/RPC bridge, out of scope here).
package events

// Name identifies an event kind. The wire names match the original
// thumbnail pipeline's event channel so a UI bridge can be wired without
// renaming anything.
type Name string

const (
	ThumbnailProgress      Name = "thumbnail-progress"
	ThumbnailCompleted     Name = "thumbnail-completed"
	ThumbnailAllCompleted  Name = "thumbnail-all-completed"
	ThumbnailHQProgress    Name = "thumbnail-hq-progress"
	ThumbnailHQCompleted   Name = "thumbnail-hq-completed"
	ThumbnailHQExisting    Name = "thumbnail-hq-existing-loaded"
	ThumbnailHQAllComplete Name = "thumbnail-hq-all-completed"
	ThumbnailHQCancelled   Name = "thumbnail-hq-cancelled"
	FolderChange           Name = "folder-change"
)

// Event is a single outbound notification. Payload is whatever the named
// event documents (a progress struct, a ThumbnailResult, a bool, ...).
type Event struct {
	Name    Name
	Payload any
}

// Progress is the payload shape shared by the fast-tier and HQ-tier
// progress events.
type Progress struct {
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
	CurrentPath string `json:"current_path"`
}

// FolderChangeKind enumerates the semantic folder-watcher events.
type FolderChangeKind string

const (
	FileAdded    FolderChangeKind = "file_added"
	FileRemoved  FolderChangeKind = "file_removed"
	FileModified FolderChangeKind = "file_modified"
)

// FolderChangePayload is the payload of a FolderChange event.
type FolderChangePayload struct {
	Type FolderChangeKind `json:"type"`
	Path string           `json:"path"`
}

// Sink receives emitted events. A nil Sink is valid everywhere an emitter
// is optional; emitters must tolerate it by no-op'ing.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a plain function to a Sink, mirroring the rest of the
// standard library's *Func adapter idiom.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Chan is a Sink backed by a buffered channel, useful for tests and for a
// demo bridge that wants to drain events on its own goroutine. Sends never
// block the emitter: a full channel drops the event rather than stalling
// pipeline progress.
type Chan chan Event

func NewChan(buffer int) Chan {
	return make(Chan, buffer)
}

func (c Chan) Emit(e Event) {
	select {
	case c <- e:
	default:
	}
}

// Emit is a nil-safe helper so every component can hold a bare Sink field
// and call events.Emit(s, ...) without a nil check at every call site.
func Emit(s Sink, name Name, payload any) {
	if s == nil {
		return
	}
	s.Emit(Event{Name: name, Payload: payload})
}
