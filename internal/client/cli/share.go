package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/plantfolk/plantkeeper/internal/filex"
)

// FileSharer lands finished archives in a directory. It is the desktop
// stand-in for a platform share sheet.
type FileSharer struct {
	Dir string
}

func (f *FileSharer) Share(ctx context.Context, filename, mimeType string, data []byte) error {
	if _, err := filex.EnsureDir(f.Dir); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.Dir, filename), data, 0o600)
}
