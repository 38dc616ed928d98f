package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.ServerURL, "http://127.0.0.1:8080")
	assert.Equal(t, c.DatabaseDSN, filepath.Join(xdg.DataHome, "plantkeeper", "plantkeeper.db"))
	assert.Equal(t, c.PhotoDir, filepath.Join(xdg.DataHome, "plantkeeper", "photos"))
	assert.Equal(t, c.RequestTimeout, 10*time.Second)
	assert.Equal(t, c.MaxRetries, 2)
	assert.Equal(t, c.LibraryEndpoint, "")
	assert.Equal(t, c.LibraryRegion, "us-east-1")
	assert.Equal(t, c.LibraryBucket, "plantkeeper")
	assert.Equal(t, c.LibraryAlbum, "PlantKeeper")
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, c.ServerURL, "http://127.0.0.1:8080")
	assert.Equal(t, c.RequestTimeout, 10*time.Second)
	assert.Equal(t, c.MaxRetries, 2)
	assert.Equal(t, c.LibraryEndpoint, "")
}
