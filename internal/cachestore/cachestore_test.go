package cachestore

import (
	"bytes"
	"testing"
)

func TestKeyChangesWithMtime(t *testing.T) {
	k1 := Key("/photos/a.jpg", 1000)
	k2 := Key("/photos/a.jpg", 1001)
	if k1 == k2 {
		t.Fatalf("Key should change when mtime changes, got same key %q for both", k1)
	}
}

func TestKeyStableForSameInput(t *testing.T) {
	k1 := Key("/photos/a.jpg", 1000)
	k2 := Key("/photos/a.jpg", 1000)
	if k1 != k2 {
		t.Fatalf("Key(%q, 1000) not stable: %q != %q", "/photos/a.jpg", k1, k2)
	}
}

func TestKeyDiffersByPath(t *testing.T) {
	k1 := Key("/photos/a.jpg", 1000)
	k2 := Key("/photos/b.jpg", 1000)
	if k1 == k2 {
		t.Fatalf("Key should differ by path, got same key for a.jpg and b.jpg")
	}
}

func TestStoreWriteReadRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := Key("/photos/a.jpg", 1000)
	want := []byte("pretend-webp-bytes")

	if store.Exists(key) {
		t.Fatalf("Exists() = true before any write")
	}

	if err := store.Write(key, want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if !store.Exists(key) {
		t.Fatalf("Exists() = false after Write")
	}

	got, err := store.Read(key)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Read() = %q, want %q", got, want)
	}
}

func TestStoreReadMissingKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := store.Read(Key("/missing.jpg", 1)); err == nil {
		t.Fatalf("Read() on missing key should error")
	}
}

func TestMemLayerShadowsDisk(t *testing.T) {
	store, err := NewWithMemLayer(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("NewWithMemLayer() error = %v", err)
	}

	key := Key("/photos/a.jpg", 1000)
	want := []byte("bytes")

	if err := store.Write(key, want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := store.Read(key)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Read() = %q, want %q", got, want)
	}
}
