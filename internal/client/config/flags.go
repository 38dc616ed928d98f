package config

import (
	"flag"
	"os"
	"time"

	"github.com/plantfolk/plantkeeper/internal/flagx"
)

// parseFlags populates selected client Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the mirror server (e.g., "http://127.0.0.1:8080")
//	-d string   SQLite database path
//	-p string   photo directory
//	-t int      remote request timeout, seconds
//	-r int      remote retry budget
//	-e string   media library S3 endpoint ("" disables the library)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-p", "-t", "-r", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerURL, "a", config.ServerURL, "mirror server base URL")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "SQLite database path")
	fs.StringVar(&config.PhotoDir, "p", config.PhotoDir, "photo directory")

	requestTimeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "remote request timeout (in seconds)")
	fs.IntVar(&config.MaxRetries, "r", config.MaxRetries, "remote retry budget")
	fs.StringVar(&config.LibraryEndpoint, "e", config.LibraryEndpoint, "media library S3 endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
