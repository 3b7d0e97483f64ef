package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideRoot is returned for paths that would leave the backup directory.
var ErrOutsideRoot = errors.New("path escapes storage root")

// BackupExtension marks the files CleanupOlderThan may prune.
const BackupExtension = ".xlsx"

// LocalStorage keeps backup workbooks on disk under one directory.
type LocalStorage struct {
	baseDir string
	now     func() time.Time
}

// NewLocalStorage creates baseDir when missing.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./backups"
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve backup directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &LocalStorage{baseDir: abs, now: time.Now}, nil
}

// Save writes data to filename through a temp file and rename, so a reader
// never sees a half written workbook. It returns the stored relative path.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("prepare backup directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish backup file: %w", err)
	}
	return filepath.ToSlash(filepath.Clean(filename)), nil
}

// Open returns a read handle. Missing files wrap fs.ErrNotExist.
func (s *LocalStorage) Open(filename string) (*os.File, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file; a missing file is not an error.
func (s *LocalStorage) Delete(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete backup file: %w", err)
	}
	return nil
}

// CleanupOlderThan prunes backup workbooks last modified before now-ttl and
// returns their relative paths. A non-positive ttl keeps everything.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		return nil, nil
	}
	cutoff := s.now().Add(-ttl)
	var deleted []string
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), BackupExtension) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		rel, _ := filepath.Rel(s.baseDir, path)
		deleted = append(deleted, filepath.ToSlash(rel))
		s.removeEmptyParents(filepath.Dir(path))
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("cleanup backups: %w", err)
	}
	return deleted, nil
}

func (s *LocalStorage) removeEmptyParents(dir string) {
	for dir != s.baseDir && strings.HasPrefix(dir, s.baseDir) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (s *LocalStorage) resolve(filename string) (string, error) {
	if !safeRelativePath(filename) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, filename)
	}
	return filepath.Join(s.baseDir, filepath.Clean(filename)), nil
}
