// Package archive packs a backup manifest plus named photo blobs into a
// single portable zip, and unpacks the same. A plain JSON payload (no zip
// magic) is also accepted as a manifest-only archive.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/logging"
)

const (
	manifestEntry = "backup.json"
	imagesPrefix  = "images/"
)

// BlobSource opens a named photo blob for packing. The photo locker
// satisfies this interface.
type BlobSource interface {
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
}

// BlobSink materializes an extracted photo blob and returns its new handle.
// Photo backends satisfy this interface, so extraction can target the
// app-private directory or an in-memory store alike.
type BlobSink interface {
	Save(ctx context.Context, filename string, src io.Reader) (string, error)
}

// Codec packs and unpacks backup archives.
type Codec struct {
	log logging.Logger
}

func NewCodec(log logging.Logger) *Codec {
	return &Codec{log: log}
}

// Pack serializes manifest as the backup.json entry and adds one
// images/<filename> entry per requested blob. Blobs whose source cannot be
// read are skipped and logged, never fatal: a backup with a missing photo
// beats no backup.
func (c *Codec) Pack(ctx context.Context, manifest any, filenames []string, src BlobSource) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	w, err := zw.Create(manifestEntry)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(manifestBytes); err != nil {
		return nil, err
	}

	for _, name := range filenames {
		clean := SanitizeName(name)
		if clean == "" {
			c.log.Warn(ctx, "skipping blob with unusable name", "filename", name)
			continue
		}
		rc, err := src.Open(ctx, name)
		if err != nil {
			c.log.Warn(ctx, "skipping unreadable photo", "filename", name, "error", err)
			continue
		}
		w, err := zw.Create(imagesPrefix + clean)
		if err != nil {
			rc.Close()
			return nil, err
		}
		if _, err := io.Copy(w, rc); err != nil {
			rc.Close()
			return nil, fmt.Errorf("pack photo %s: %w", clean, err)
		}
		rc.Close()
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unpack reads an archive produced by Pack (or a bare JSON manifest) and
// materializes every images/* entry through sink. It returns the raw
// manifest bytes and a sanitized-filename → new-handle map, the bridge used
// to rewrite manifest photo references after an import.
//
// A zip without a backup.json entry fails with common.ErrMalformedArchive.
func (c *Codec) Unpack(ctx context.Context, data []byte, sink BlobSink) ([]byte, map[string]string, error) {
	if !isZip(data) {
		// JSON-only archive: the payload is the manifest.
		return data, map[string]string{}, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrMalformedArchive, err)
	}

	var manifest []byte
	handles := make(map[string]string)

	for _, f := range zr.File {
		switch {
		case f.Name == manifestEntry:
			rc, err := f.Open()
			if err != nil {
				return nil, nil, fmt.Errorf("%w: unreadable manifest", common.ErrMalformedArchive)
			}
			manifest, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, nil, fmt.Errorf("%w: unreadable manifest", common.ErrMalformedArchive)
			}

		case strings.HasPrefix(f.Name, imagesPrefix):
			name := SanitizeName(strings.TrimPrefix(f.Name, imagesPrefix))
			if name == "" {
				c.log.Warn(ctx, "skipping archive entry with unusable name", "entry", f.Name)
				continue
			}
			rc, err := f.Open()
			if err != nil {
				c.log.Warn(ctx, "skipping unreadable archive entry", "entry", f.Name, "error", err)
				continue
			}
			uri, err := sink.Save(ctx, name, rc)
			rc.Close()
			if err != nil {
				c.log.Warn(ctx, "failed to materialize photo", "filename", name, "error", err)
				continue
			}
			handles[name] = uri
		}
	}

	if manifest == nil {
		return nil, nil, fmt.Errorf("%w: missing %s", common.ErrMalformedArchive, manifestEntry)
	}
	return manifest, handles, nil
}

func isZip(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K'
}

// SanitizeName normalizes an archive entry filename so extraction cannot
// escape the target directory or collide due to encoding differences:
// URL-decode, drop NUL bytes, strip any path components.
func SanitizeName(name string) string {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.TrimSpace(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
