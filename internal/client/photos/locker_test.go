package photos

import (
	"context"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/plantfolk/plantkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDirLocker(t *testing.T) (*Locker, *DirBackend) {
	t.Helper()
	dir, err := NewDirBackend(t.TempDir())
	require.NoError(t, err)
	return NewLocker(dir, dir, logging.Discard()), dir
}

func newMemLocker() (*Locker, *MemBackend) {
	mem := NewMemBackend()
	return NewLocker(mem, nil, logging.Discard()), mem
}

func TestGenerateFilename_Format(t *testing.T) {
	l, _ := newMemLocker()

	pattern := regexp.MustCompile(`^[A-Za-z0-9_-]+_\d+_[0-9a-f]+\.[a-z0-9]+$`)

	tests := []struct {
		name     string
		origName string
		prefix   string
		ext      string
	}{
		{name: "plain name", origName: "rose.JPG", prefix: "rose_", ext: ".jpg"},
		{name: "empty name gets defaults", origName: "", prefix: "img_", ext: ".jpg"},
		{name: "path stripped", origName: "some/dir/leaf.png", prefix: "leaf_", ext: ".png"},
		{name: "odd characters sanitized", origName: "my photo (1).png", prefix: "myphoto1_", ext: ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.GenerateFilename(tt.origName)
			assert.True(t, pattern.MatchString(got), "unexpected filename %q", got)
			assert.True(t, strings.HasPrefix(got, tt.prefix), "filename %q should start with %q", got, tt.prefix)
			assert.True(t, strings.HasSuffix(got, tt.ext), "filename %q should end with %q", got, tt.ext)
		})
	}
}

func TestGenerateFilename_Unique(t *testing.T) {
	l, _ := newMemLocker()
	a := l.GenerateFilename("leaf.jpg")
	b := l.GenerateFilename("leaf.jpg")
	assert.NotEqual(t, a, b)
}

func TestSaveNew_StoresAndReturnsHandle(t *testing.T) {
	ctx := context.Background()
	l, _ := newDirLocker(t)

	filename, uri, err := l.SaveNew(ctx, strings.NewReader("jpeg bytes"), "rose.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"), "uri %q", uri)
	assert.True(t, l.Exists(ctx, filename))

	rc, err := l.Open(ctx, filename)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestDelete_RemovesPhoto(t *testing.T) {
	ctx := context.Background()
	l, _ := newDirLocker(t)

	filename, _, err := l.SaveNew(ctx, strings.NewReader("x"), "a.jpg")
	require.NoError(t, err)

	require.NoError(t, l.Delete(ctx, filename))
	assert.False(t, l.Exists(ctx, filename))
}

func TestTotalSize(t *testing.T) {
	ctx := context.Background()
	l, _ := newDirLocker(t)

	_, _, err := l.SaveNew(ctx, strings.NewReader("12345"), "a.jpg")
	require.NoError(t, err)
	_, _, err = l.SaveNew(ctx, strings.NewReader("123"), "b.jpg")
	require.NoError(t, err)

	assert.Equal(t, int64(8), l.TotalSize(ctx))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	l, dir := newDirLocker(t)

	filename, uri, err := l.SaveNew(ctx, strings.NewReader("x"), "rose.jpg")
	require.NoError(t, err)

	t.Run("empty ref", func(t *testing.T) {
		assert.Equal(t, "", l.Resolve(ctx, ""))
	})

	t.Run("remote URLs pass through", func(t *testing.T) {
		for _, ref := range []string{
			"https://example.com/p.jpg",
			"http://example.com/p.jpg",
			"data:image/png;base64,AAAA",
			"blob:abc-123",
		} {
			assert.Equal(t, ref, l.Resolve(ctx, ref))
		}
	})

	t.Run("bare filename resolves to backend handle", func(t *testing.T) {
		assert.Equal(t, uri, l.Resolve(ctx, filename))
	})

	t.Run("bare missing filename resolves to empty, not error", func(t *testing.T) {
		assert.Equal(t, "", l.Resolve(ctx, "never_saved.jpg"))
	})

	t.Run("valid local handle is idempotent", func(t *testing.T) {
		once := l.Resolve(ctx, filename)
		again := l.Resolve(ctx, once)
		assert.Equal(t, once, again)
	})

	t.Run("stale handle falls back to filename lookup", func(t *testing.T) {
		stale := "file:///old/install/path/" + filename
		assert.Equal(t, uri, l.Resolve(ctx, stale))
	})

	t.Run("handle with query and escapes", func(t *testing.T) {
		ref := "file:///old/path/" + filename + "?w=200#frag"
		assert.Equal(t, uri, l.Resolve(ctx, ref))
	})

	t.Run("absolute path to a real file", func(t *testing.T) {
		p := dir.Path(filename)
		assert.Equal(t, p, l.Resolve(ctx, p))
	})

	t.Run("unresolvable garbage", func(t *testing.T) {
		assert.Equal(t, "", l.Resolve(ctx, "///"))
	})
}

func TestResolve_MemBackendHandles(t *testing.T) {
	ctx := context.Background()
	l, _ := newMemLocker()

	filename, uri, err := l.SaveNew(ctx, strings.NewReader("x"), "a.jpg")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "mem://"))

	assert.Equal(t, uri, l.Resolve(ctx, uri))
	assert.Equal(t, uri, l.Resolve(ctx, filename))
	assert.Equal(t, "", l.Resolve(ctx, "mem://missing.jpg"))
}

func TestMigrateToLibrary_RequiresLibraryPrimary(t *testing.T) {
	ctx := context.Background()
	l, _ := newDirLocker(t)

	_, err := l.MigrateToLibrary(ctx)
	assert.Error(t, err)
}
