// Package cachestore implements the content-addressed on-disk thumbnail
// cache: a single WebP file per cache key, with the filesystem itself
// serving as the index. No sidecar manifest is kept.
package cachestore

import (
	"fmt"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"
)

// Store resolves, reads and writes cache entries under
// <dir>/thumbnails/<64-hex>.webp. It owns no durable in-memory index; an
// optional bounded front layer (see NewWithMemLayer) may shadow recent
// reads, but Store itself always treats the filesystem as ground truth.
type Store struct {
	thumbDir string
	mem      *memLayer
}

// New creates a Store rooted at appDataDir, creating the thumbnails
// subdirectory if necessary.
func New(appDataDir string) (*Store, error) {
	dir := filepath.Join(appDataDir, "thumbnails")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cachestore: create thumbnail dir: %w", err)
	}
	return &Store{thumbDir: dir}, nil
}

// NewWithMemLayer creates a Store with a bounded in-memory read cache in
// front of the filesystem, sized maxBytes. See memlayer.go.
func NewWithMemLayer(appDataDir string, maxBytes int64) (*Store, error) {
	s, err := New(appDataDir)
	if err != nil {
		return nil, err
	}
	ml, err := newMemLayer(maxBytes)
	if err != nil {
		return nil, fmt.Errorf("cachestore: memory layer: %w", err)
	}
	s.mem = ml
	return s, nil
}

// Key computes the cache key K for a path and its modification time,
// rendered as lowercase hex. K = BLAKE3(path + ":" + mtimeSeconds).
func Key(path string, mtimeSeconds int64) string {
	input := fmt.Sprintf("%s:%d", path, mtimeSeconds)
	sum := blake3.Sum256([]byte(input))
	return fmt.Sprintf("%x", sum[:])
}

// Path returns the filesystem path a cache key resolves to, without
// touching the filesystem.
func (s *Store) Path(key string) string {
	return filepath.Join(s.thumbDir, key+".webp")
}

// Exists reports whether a cache entry is present for key.
func (s *Store) Exists(key string) bool {
	if s.mem != nil && s.mem.has(key) {
		return true
	}
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Read loads the bytes of a cache entry. A partially written entry is not
// distinguished from a valid one at this layer — the caller (the
// Thumbnail Producer) detects corruption as a decode failure downstream
// and reproduces the entry.
func (s *Store) Read(key string) ([]byte, error) {
	if s.mem != nil {
		if data, ok := s.mem.get(key); ok {
			return data, nil
		}
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return nil, err
	}
	if s.mem != nil {
		s.mem.put(key, data)
	}
	return data, nil
}

// Write persists bytes under key. Writes are whole-file and not required
// to be atomic: concurrent writers to the same key are tolerated
// last-writer-wins, since the bytes are deterministic for a given input.
func (s *Store) Write(key string, data []byte) error {
	if err := os.WriteFile(s.Path(key), data, 0644); err != nil {
		return err
	}
	if s.mem != nil {
		s.mem.put(key, data)
	}
	return nil
}
