package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/plantfolk/plantkeeper/internal/logging"
)

// Locker saves, deletes, and resolves photos. One primary backend holds new
// photos; the app-private directory backend is always kept around so photos
// saved before a library became available still resolve.
type Locker struct {
	backend Backend
	dir     *DirBackend
	log     logging.Logger
	now     func() time.Time
}

func NewLocker(backend Backend, dir *DirBackend, log logging.Logger) *Locker {
	return &Locker{backend: backend, dir: dir, log: log, now: time.Now}
}

// Probe selects the primary backend once at startup. A configured, reachable
// media library wins; otherwise the app-private directory; otherwise memory.
// Probe failures are silent and non-fatal: losing the library degrades
// functionality, not correctness.
func Probe(ctx context.Context, libCfg LibraryConfig, photoDir string, log logging.Logger) *Locker {
	dir, dirErr := NewDirBackend(photoDir)

	if lib, err := NewLibraryBackend(ctx, libCfg); err == nil {
		log.Info(ctx, "photo backend selected", "backend", lib.Name())
		return NewLocker(lib, dir, log)
	} else if libCfg.Endpoint != "" {
		log.Warn(ctx, "media library unavailable, falling back", "error", err)
	}

	if dirErr == nil {
		log.Info(ctx, "photo backend selected", "backend", dir.Name())
		return NewLocker(dir, dir, log)
	}

	log.Warn(ctx, "no writable photo directory, using in-memory backend", "error", dirErr)
	return NewLocker(NewMemBackend(), nil, log)
}

// Backend exposes the selected primary backend.
func (l *Locker) Backend() Backend { return l.backend }

// GenerateFilename builds "{prefix}_{timestamp}_{random}.{ext}". Prefix and
// extension come from caller intent/source name, so filenames stay readable
// while staying unique without a content-hashing pass.
func (l *Locker) GenerateFilename(origName string) string {
	prefix := "img"
	ext := "jpg"
	if origName != "" {
		base := strings.TrimSuffix(path.Base(origName), path.Ext(origName))
		if base != "" && base != "." {
			prefix = sanitizeToken(base)
		}
		if e := strings.TrimPrefix(path.Ext(origName), "."); e != "" {
			ext = strings.ToLower(e)
		}
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s_%d_%s.%s", prefix, l.now().UnixMilli(), suffix, ext)
}

func sanitizeToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "img"
	}
	return b.String()
}

// SaveNew stores src under a freshly generated filename on the primary
// backend and returns (filename, uri). A failing library write silently
// falls back to the app-private directory.
func (l *Locker) SaveNew(ctx context.Context, src io.Reader, origName string) (string, string, error) {
	filename := l.GenerateFilename(origName)

	// Buffer once so a failed primary write can be retried on the fallback.
	data, err := io.ReadAll(src)
	if err != nil {
		return "", "", fmt.Errorf("read photo source: %w", err)
	}

	uri, err := l.backend.Save(ctx, filename, bytes.NewReader(data))
	if err == nil {
		return filename, uri, nil
	}
	if l.dir != nil && l.backend != Backend(l.dir) {
		l.log.Warn(ctx, "primary photo save failed, falling back to app directory",
			"filename", filename, "error", err)
		uri, dirErr := l.dir.Save(ctx, filename, bytes.NewReader(data))
		if dirErr == nil {
			return filename, uri, nil
		}
		return "", "", fmt.Errorf("photo save failed on all backends: %w", dirErr)
	}
	return "", "", fmt.Errorf("photo save failed: %w", err)
}

// Delete removes filename from whichever backend currently holds it.
func (l *Locker) Delete(ctx context.Context, filename string) error {
	if err := l.backend.Delete(ctx, filename); err != nil {
		return err
	}
	if l.dir != nil && l.backend != Backend(l.dir) {
		return l.dir.Delete(ctx, filename)
	}
	return nil
}

// Exists reports whether filename is stored on any backend.
func (l *Locker) Exists(ctx context.Context, filename string) bool {
	if ok, _ := l.backend.Exists(ctx, filename); ok {
		return true
	}
	if l.dir != nil && l.backend != Backend(l.dir) {
		ok, _ := l.dir.Exists(ctx, filename)
		return ok
	}
	return false
}

// TotalSize reports aggregate photo storage in bytes across backends.
func (l *Locker) TotalSize(ctx context.Context) int64 {
	total, _ := l.backend.TotalSize(ctx)
	if l.dir != nil && l.backend != Backend(l.dir) {
		n, _ := l.dir.TotalSize(ctx)
		total += n
	}
	return total
}

// Open returns the photo bytes for filename from whichever backend holds it.
func (l *Locker) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	if ok, _ := l.backend.Exists(ctx, filename); ok {
		return l.backend.Open(ctx, filename)
	}
	if l.dir != nil && l.backend != Backend(l.dir) {
		return l.dir.Open(ctx, filename)
	}
	return l.backend.Open(ctx, filename)
}

// Resolve maps an arbitrary incoming photo reference to a currently valid
// handle, or "" when the photo cannot be found. Callers treat "" as an
// absent reference, never as a fatal error.
//
// The reference may be a bare filename, a local path or file:// handle, a
// mem:// blob handle, or a remote URL.
func (l *Locker) Resolve(ctx context.Context, ref string) string {
	if ref == "" {
		return ""
	}

	// Remote URLs are not a local-storage concern; pass through untouched.
	if isRemoteURL(ref) {
		return ref
	}

	// Bare filename: library lookup first, app directory second.
	if isBareFilename(ref) {
		return l.resolveFilename(ctx, ref)
	}

	// An already-local handle: confirm it still exists.
	if uri, ok := l.checkLocalHandle(ctx, ref); ok {
		return uri
	}

	// Last resort: extract the filename component and retry the lookup.
	if name := extractFilename(ref); name != "" {
		return l.resolveFilename(ctx, name)
	}
	return ""
}

func (l *Locker) resolveFilename(ctx context.Context, filename string) string {
	if ok, _ := l.backend.Exists(ctx, filename); ok {
		return l.backend.URI(filename)
	}
	if l.dir != nil && l.backend != Backend(l.dir) {
		if ok, _ := l.dir.Exists(ctx, filename); ok {
			return l.dir.URI(filename)
		}
	}
	return ""
}

func (l *Locker) checkLocalHandle(ctx context.Context, ref string) (string, bool) {
	switch {
	case strings.HasPrefix(ref, "file://"):
		p := strings.TrimPrefix(ref, "file://")
		if fileExists(p) {
			return ref, true
		}
	case strings.HasPrefix(ref, "mem://"):
		name := strings.TrimPrefix(ref, "mem://")
		if ok, _ := l.backend.Exists(ctx, name); ok {
			return ref, true
		}
	case strings.HasPrefix(ref, "s3://"):
		name := path.Base(ref)
		if ok, _ := l.backend.Exists(ctx, name); ok {
			return ref, true
		}
	case filepath.IsAbs(ref):
		if fileExists(ref) {
			return ref, true
		}
	}
	return "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func isRemoteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "blob:")
}

func isBareFilename(ref string) bool {
	return !strings.Contains(ref, "/") &&
		!strings.Contains(ref, "\\") &&
		!strings.Contains(ref, "://")
}

// extractFilename pulls the filename component from a path or URI, stripping
// query and fragment and URL-decoding percent escapes.
func extractFilename(ref string) string {
	s := ref
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	s = strings.ReplaceAll(s, "\\", "/")
	name := path.Base(s)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
