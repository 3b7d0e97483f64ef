package storage

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("2025/03/backup_20250303_080000_ab12cd34.xlsx", []byte("workbook"))
	require.NoError(t, err)
	assert.Equal(t, "2025/03/backup_20250303_080000_ab12cd34.xlsx", rel)

	file, err := store.Open(rel)
	require.NoError(t, err)
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "workbook", string(body))

	entries, err := os.ReadDir(filepath.Join(store.baseDir, "2025", "03"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not survive a save")

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
	_, err = store.Open(rel)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../outside.xlsx", "/etc/passwd", "a/../../b.xlsx", ""} {
		_, err := store.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrOutsideRoot, name)
		_, err = store.Open(name)
		assert.ErrorIs(t, err, ErrOutsideRoot, name)
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err = store.Save("old/backup_old.xlsx", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("backup_new.xlsx", []byte("new"))
	require.NoError(t, err)
	_, err = store.Save("notes.txt", []byte("keep"))
	require.NoError(t, err)

	stale := now.Add(-10 * 24 * time.Hour)
	for _, name := range []string{"old/backup_old.xlsx", "notes.txt"} {
		require.NoError(t, os.Chtimes(filepath.Join(store.baseDir, name), stale, stale))
	}
	fresh := now.Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.baseDir, "backup_new.xlsx"), fresh, fresh))

	removed, err := store.CleanupOlderThan(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old/backup_old.xlsx"}, removed)
	assert.NoDirExists(t, filepath.Join(store.baseDir, "old"))
	assert.FileExists(t, filepath.Join(store.baseDir, "backup_new.xlsx"))
	assert.FileExists(t, filepath.Join(store.baseDir, "notes.txt"))

	removed, err = store.CleanupOlderThan(0)
	require.NoError(t, err)
	assert.Empty(t, removed)
}
