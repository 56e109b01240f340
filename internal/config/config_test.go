package config

import "testing"

func TestLoadDefaultsWithNoPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := DefaultConfig()
	if cfg.Cache.Dir != want.Cache.Dir {
		t.Errorf("Cache.Dir = %q, want %q", cfg.Cache.Dir, want.Cache.Dir)
	}
	if cfg.Photos.Path != want.Photos.Path {
		t.Errorf("Photos.Path = %q, want %q", cfg.Photos.Path, want.Photos.Path)
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("THUMBPIPE_CACHE_DIR", "/tmp/custom-cache")
	t.Setenv("THUMBPIPE_PHOTOS_PATH", "/tmp/custom-photos")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.Dir != "/tmp/custom-cache" {
		t.Errorf("Cache.Dir = %q, want /tmp/custom-cache", cfg.Cache.Dir)
	}
	if cfg.Photos.Path != "/tmp/custom-photos" {
		t.Errorf("Photos.Path = %q, want /tmp/custom-photos", cfg.Photos.Path)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	if _, err := Load("/no/such/config.yaml"); err != nil {
		t.Fatalf("Load() with missing file should not error, got %v", err)
	}
}
