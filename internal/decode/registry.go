package decode

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
)

var errNoDecoder = errors.New("no decoder registered and no fallback configured")

// Decoder produces bounded RGB pixels for a single file.
type Decoder interface {
	Decode(path string) (Result, error)
}

// DecoderFunc adapts a plain function to a Decoder.
type DecoderFunc func(path string) (Result, error)

func (f DecoderFunc) Decode(path string) (Result, error) { return f(path) }

// Registry maps lowercase file extensions (without the leading dot) to the
// Decoder that handles them. It is the declarative form of the extension
// table in SPEC_FULL §4.2: adding a format means registering one more
// Decoder, not editing a switch buried in the producer.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
	fallback Decoder
}

// NewRegistry returns an empty Registry. Call SetFallback to install the
// Generic path, which every unregistered extension falls back to.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// Register associates exts (case-insensitive, no leading dot) with d.
func (r *Registry) Register(d Decoder, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range exts {
		r.decoders[strings.ToLower(ext)] = d
	}
}

// SetFallback installs the decoder used for extensions with no explicit
// registration (SPEC_FULL §4.2's "other → Generic path, best-effort").
func (r *Registry) SetFallback(d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = d
}

// For returns the decoder registered for a file's extension, falling back
// to the Generic decoder when the extension is unregistered.
func (r *Registry) For(path string) (Decoder, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.decoders[ext]; ok {
		return d, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// Decode dispatches path to its registered decoder.
func (r *Registry) Decode(path string) (Result, error) {
	d, ok := r.For(path)
	if !ok {
		return Result{}, newError(ErrInputInvalid, path, errNoDecoder)
	}
	return d.Decode(path)
}
