package cachestore

import (
	"fmt"
	"log"

	"github.com/dgraph-io/ristretto"
)

// memLayer is a bounded, best-effort in-memory shadow of the on-disk
// cache. It exists purely to avoid a filesystem round trip for thumbnails
// re-requested within a session (e.g. the fast tier and HQ tier racing
// the same path); it is never the source of truth and a miss here always
// falls through to disk.
type memLayer struct {
	cache *ristretto.Cache
}

func newMemLayer(maxBytes int64) (*memLayer, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("maxBytes must be positive")
	}
	// Thumbnails are small (a few KB to tens of KB); estimate counters
	// generously off an assumed ~20KB average entry.
	numCounters := maxBytes / (20 * 1024) * 10
	if numCounters < 1000 {
		numCounters = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxBytes,
		BufferItems: 64,
		OnEvict: func(item *ristretto.Item) {
			log.Printf("cachestore: memory layer evicted entry (cost=%d)", item.Cost)
		},
	})
	if err != nil {
		return nil, err
	}
	return &memLayer{cache: c}, nil
}

func (m *memLayer) has(key string) bool {
	_, ok := m.cache.Get(key)
	return ok
}

func (m *memLayer) get(key string) ([]byte, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

func (m *memLayer) put(key string, data []byte) {
	m.cache.Set(key, data, int64(len(data)))
}
