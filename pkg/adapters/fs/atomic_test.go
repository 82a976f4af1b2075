package fs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates With Mode", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "cookies.json")
		require.NoError(t, WriteFileAtomic(filename, []byte(`{}`), 0600))

		got, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(got))

		if runtime.GOOS != "windows" {
			info, err := os.Stat(filename)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
		}
	})

	t.Run("Replaces Existing Content", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "notes.json")
		require.NoError(t, os.WriteFile(filename, []byte(`{"records":[{"id":"a"},{"id":"b"}]}`), 0644))

		require.NoError(t, WriteFileAtomic(filename, []byte(`{"records":[]}`), 0644))

		got, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, `{"records":[]}`, string(got), "a shorter payload must not keep a tail of the old one")
	})

	t.Run("Leaves No Temp Files", func(t *testing.T) {
		dir := t.TempDir()
		for i := 0; i < 3; i++ {
			require.NoError(t, WriteFileAtomic(filepath.Join(dir, "tasks.json"), []byte("x"), 0644))
		}

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.False(t, strings.HasPrefix(entries[0].Name(), TempFilePrefix))
	})

	t.Run("Fails If Directory Missing", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "missing", "notes.json")
		assert.Error(t, WriteFileAtomic(filename, []byte("x"), 0644))
	})

	t.Run("Cleans Up When Rename Fails", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "richtext.json")
		require.NoError(t, os.Mkdir(target, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0644))

		assert.Error(t, WriteFileAtomic(target, []byte("x"), 0644))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "only the blocking directory remains")
	})
}
