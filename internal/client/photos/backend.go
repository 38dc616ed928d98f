// Package photos stores, resolves, and migrates plant photos across storage
// backends. Every photo is addressed by a stable filename; the physical URI
// differs per backend and per device and is never the canonical reference.
package photos

import (
	"context"
	"io"
)

// Backend is the capability interface one physical photo store implements.
// The locker selects exactly one backend at startup via Probe.
type Backend interface {
	// Name identifies the backend in logs ("dir", "library", "mem").
	Name() string

	// Save writes src under filename and returns the backend-specific URI.
	Save(ctx context.Context, filename string, src io.Reader) (string, error)

	// Open returns the photo bytes for filename.
	Open(ctx context.Context, filename string) (io.ReadCloser, error)

	// Delete removes filename. Deleting an absent photo is not an error.
	Delete(ctx context.Context, filename string) error

	// Exists reports whether filename is currently stored.
	Exists(ctx context.Context, filename string) (bool, error)

	// URI returns the backend-specific handle for filename without checking
	// existence.
	URI(filename string) string

	// TotalSize reports aggregate stored bytes.
	TotalSize(ctx context.Context) (int64, error)
}
