package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonical(t *testing.T, dir string) string {
	t.Helper()

	c, err := canonicalize(dir)
	require.NoError(t, err)

	return c
}

func TestRegister_AppendsOnce(t *testing.T) {
	reg := New(filepath.Join(t.TempDir(), "config"))
	save := t.TempDir()

	require.NoError(t, reg.Register(save))
	require.NoError(t, reg.Register(save))
	require.NoError(t, reg.Register(filepath.Join(save, ".")))

	dirs, err := reg.Dirs()
	require.NoError(t, err)
	assert.Equal(t, []string{canonical(t, save)}, dirs)
}

func TestRegister_MissingDirectory(t *testing.T) {
	reg := New(t.TempDir())

	err := reg.Register(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestDirs_PrunesRemovedDirectories(t *testing.T) {
	reg := New(t.TempDir())
	keep := t.TempDir()
	gone := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.Mkdir(gone, 0o755))

	require.NoError(t, reg.Register(keep))
	require.NoError(t, reg.Register(gone))
	require.NoError(t, os.RemoveAll(gone))

	dirs, err := reg.Dirs()
	require.NoError(t, err)
	assert.Equal(t, []string{canonical(t, keep)}, dirs)

	// The stale entry is dropped from the file on the next write.
	other := t.TempDir()
	require.NoError(t, reg.Register(other))

	data, err := os.ReadFile(reg.path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "gone")
}

func TestDirs_NoFile(t *testing.T) {
	dirs, err := New(t.TempDir()).Dirs()
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestListModels(t *testing.T) {
	reg := New(t.TempDir())
	save := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(save, "Qwen", "Qwen2-0.5B"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(save, "BAAI", "bge-m3"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(save, "README.md"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(save, "Qwen", "notes.txt"), nil, 0o644))

	require.NoError(t, reg.Register(save))

	models, err := reg.ListModels()
	require.NoError(t, err)

	root := canonical(t, save)
	assert.Equal(t, []Model{
		{ID: "BAAI/bge-m3", Path: filepath.Join(root, "BAAI", "bge-m3")},
		{ID: "Qwen/Qwen2-0.5B", Path: filepath.Join(root, "Qwen", "Qwen2-0.5B")},
	}, models)
}
