package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDirectory(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "a", "b", "c")

	got, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, dir, got)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")
}

func TestEnsureDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "photos")

	first, err := EnsureDir(dir)
	require.NoError(t, err)

	second, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "photos")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))

	_, err := EnsureDir(path)
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestDirSize(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "a.jpg"), []byte("1234"), 0o660))
	sub := filepath.Join(tmp, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o770))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.jpg"), []byte("56"), 0o660))

	size, err := DirSize(tmp)
	require.NoError(t, err)
	require.Equal(t, int64(6), size)
}

func TestDirSize_MissingDirIsZero(t *testing.T) {
	size, err := DirSize(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	require.Equal(t, int64(0), size)
}
