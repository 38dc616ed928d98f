package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "http://127.0.0.1:9090", "-d", "plants.db", "-p", "/tmp/photos",
			"-t", "5", "-r", "3", "-e", "http://minio:9000",
		}, expectPanic: false,
			expected: &Config{
				ServerURL:       "http://127.0.0.1:9090",
				DatabaseDSN:     "plants.db",
				PhotoDir:        "/tmp/photos",
				RequestTimeout:  5 * time.Second,
				MaxRetries:      3,
				LibraryEndpoint: "http://minio:9000",
			}},
		{name: "Test2 bad timeout", args: []string{"cmd",
			"-t", "fast",
		}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
