package photos

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/plantfolk/plantkeeper/internal/filex"
)

// DirBackend stores photos in an app-private directory. It is the fallback
// for platforms (or sandboxes) without a durable media library.
type DirBackend struct {
	dir string
}

// DefaultPhotoDir is the app-private photo directory under the user data dir.
func DefaultPhotoDir() string {
	return filepath.Join(xdg.DataHome, "plantkeeper", "photos")
}

func NewDirBackend(dir string) (*DirBackend, error) {
	if dir == "" {
		dir = DefaultPhotoDir()
	}
	if _, err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &DirBackend{dir: dir}, nil
}

func (b *DirBackend) Name() string { return "dir" }

// Path returns the expected on-disk path for filename.
func (b *DirBackend) Path(filename string) string {
	return filepath.Join(b.dir, filename)
}

func (b *DirBackend) URI(filename string) string {
	return "file://" + b.Path(filename)
}

func (b *DirBackend) Save(ctx context.Context, filename string, src io.Reader) (string, error) {
	path := b.Path(filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create photo %s: %w", path, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write photo %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return b.URI(filename), nil
}

func (b *DirBackend) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	return os.Open(b.Path(filename))
}

func (b *DirBackend) Delete(ctx context.Context, filename string) error {
	err := os.Remove(b.Path(filename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *DirBackend) Exists(ctx context.Context, filename string) (bool, error) {
	_, err := os.Stat(b.Path(filename))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (b *DirBackend) TotalSize(ctx context.Context) (int64, error) {
	return filex.DirSize(b.dir)
}

// List returns the filenames currently stored in the directory.
func (b *DirBackend) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
