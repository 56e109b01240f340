// Package config loads the small set of externally-tunable locations the
// thumbnail pipeline needs: where to keep its cache and which folder to
// watch. The pipeline's numeric constants (thumbnail cap, WebP quality,
// worker pool sizes, idle thresholds) are not configuration — they are Go
// consts declared alongside the components that use them.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all externally-tunable pipeline locations.
type Config struct {
	Cache  CacheConfig  `yaml:"cache"`
	Photos PhotosConfig `yaml:"photos"`
	Server ServerConfig `yaml:"server"`
}

// CacheConfig controls where cached thumbnails live.
type CacheConfig struct {
	// Dir is the application data root; the cache store keeps its WebP
	// renditions under Dir/thumbnails.
	Dir string `yaml:"dir"`
}

// PhotosConfig controls which folder is watched and queued.
type PhotosConfig struct {
	// Path is the single folder the Fast Queue and Folder Watcher operate
	// against. The pipeline is single-folder scoped (SPEC_FULL §9).
	Path string `yaml:"path"`
}

// ServerConfig controls the optional HTTP command surface (SPEC_FULL §6).
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Dir: "./.thumbpipe",
		},
		Photos: PhotosConfig{
			Path: ".",
		},
		Server: ServerConfig{
			Addr: ":8090",
		},
	}
}

// Load reads config from file, then overlays environment variables.
// A missing or empty path is not an error — defaults (possibly
// env-overridden) are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if dir := os.Getenv("THUMBPIPE_CACHE_DIR"); dir != "" {
		cfg.Cache.Dir = dir
	}
	if p := os.Getenv("THUMBPIPE_PHOTOS_PATH"); p != "" {
		cfg.Photos.Path = strings.TrimSpace(p)
	}
	if addr := os.Getenv("THUMBPIPE_ADDR"); addr != "" {
		cfg.Server.Addr = strings.TrimSpace(addr)
	}

	return cfg, nil
}
