package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/plantfolk/plantkeeper/internal/flagx"
	"github.com/plantfolk/plantkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Durations use timex.Duration
// so values can be strings like "10s" or integer nanoseconds.
type JsonConfig struct {
	ServerURL        string         `json:"server_url"`
	DatabaseDSN      string         `json:"database_dsn"`
	PhotoDir         string         `json:"photo_dir"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	MaxRetries       int            `json:"max_retries"`
	LibraryEndpoint  string         `json:"library_endpoint"`
	LibraryRegion    string         `json:"library_region"`
	LibraryBucket    string         `json:"library_bucket"`
	LibraryAccessKey string         `json:"library_access_key"`
	LibrarySecretKey string         `json:"library_secret_key"`
	LibraryAlbum     string         `json:"library_album"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flags. If no flag is set, nothing is loaded. An unreadable
// or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.ServerURL = c.ServerURL
	config.DatabaseDSN = c.DatabaseDSN
	config.PhotoDir = c.PhotoDir
	config.RequestTimeout = time.Duration(c.RequestTimeout.Duration)
	config.MaxRetries = c.MaxRetries
	config.LibraryEndpoint = c.LibraryEndpoint
	config.LibraryRegion = c.LibraryRegion
	config.LibraryBucket = c.LibraryBucket
	config.LibraryAccessKey = c.LibraryAccessKey
	config.LibrarySecretKey = c.LibrarySecretKey
	config.LibraryAlbum = c.LibraryAlbum
}
