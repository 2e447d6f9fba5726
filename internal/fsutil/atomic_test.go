package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/waypoint/internal/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "doc.json")

	require.NoError(t, fsutil.WriteFileAtomic(path, []byte("one"), 0644))
	require.NoError(t, fsutil.WriteFileAtomic(path, []byte("two"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomic_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := fsutil.WriteFileAtomic(filepath.Join(blocker, "doc.json"), []byte("y"), 0644)
	assert.Error(t, err)
}
