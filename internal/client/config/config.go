// Package config loads runtime configuration for the PlantKeeper client.
//
// Sources and precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Config holds runtime settings for the PlantKeeper client.
//
// Fields:
//   - ServerURL: base URL of the mirror server HTTP API.
//   - DatabaseDSN: SQLite path for the local cache.
//   - PhotoDir: app-private directory for locally kept photos.
//   - RequestTimeout: per-attempt deadline for remote calls.
//   - MaxRetries: retry budget for transient remote failures.
//   - LibraryEndpoint / LibraryRegion / LibraryBucket / LibraryAccessKey /
//     LibrarySecretKey / LibraryAlbum: S3-compatible media library settings.
//     An empty LibraryEndpoint disables the library backend.
type Config struct {
	ServerURL        string
	DatabaseDSN      string
	PhotoDir         string
	RequestTimeout   time.Duration
	MaxRetries       int
	LibraryEndpoint  string
	LibraryRegion    string
	LibraryBucket    string
	LibraryAccessKey string
	LibrarySecretKey string
	LibraryAlbum     string
}

// LoadDefaults populates c with sensible defaults. Data lives under the
// platform's per-user data directory.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabaseDSN = filepath.Join(xdg.DataHome, "plantkeeper", "plantkeeper.db")
	c.PhotoDir = filepath.Join(xdg.DataHome, "plantkeeper", "photos")
	c.RequestTimeout = 10 * time.Second
	c.MaxRetries = 2
	c.LibraryEndpoint = ""
	c.LibraryRegion = "us-east-1"
	c.LibraryBucket = "plantkeeper"
	c.LibraryAlbum = "PlantKeeper"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
