package photos

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/plantfolk/plantkeeper/internal/common"
)

// MemBackend keeps photos in memory. Used when no writable filesystem is
// available (restricted sandboxes) and by tests. Handles use the mem scheme.
type MemBackend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemBackend() *MemBackend {
	return &MemBackend{blobs: map[string][]byte{}}
}

func (b *MemBackend) Name() string { return "mem" }

func (b *MemBackend) URI(filename string) string {
	return "mem://" + filename
}

func (b *MemBackend) Save(ctx context.Context, filename string, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.blobs[filename] = data
	b.mu.Unlock()
	return b.URI(filename), nil
}

func (b *MemBackend) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	b.mu.RLock()
	data, ok := b.blobs[filename]
	b.mu.RUnlock()
	if !ok {
		return nil, common.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *MemBackend) Delete(ctx context.Context, filename string) error {
	b.mu.Lock()
	delete(b.blobs, filename)
	b.mu.Unlock()
	return nil
}

func (b *MemBackend) Exists(ctx context.Context, filename string) (bool, error) {
	b.mu.RLock()
	_, ok := b.blobs[filename]
	b.mu.RUnlock()
	return ok, nil
}

func (b *MemBackend) TotalSize(ctx context.Context) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total int64
	for _, data := range b.blobs {
		total += int64(len(data))
	}
	return total, nil
}
