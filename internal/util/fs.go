package util

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// MakeTempWorkdir creates a unique temp directory under base (or
// $TMPDIR/mp3space when base is empty). The prefix helps identification; the
// OS adds a random suffix.
func MakeTempWorkdir(base, prefix string) (string, error) {
	if base == "" {
		base = filepath.Join(os.TempDir(), "mp3space")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return os.MkdirTemp(base, prefix+"-")
}

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// RemoveIfExists deletes the file if present.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether anything is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path is an existing directory.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// IsRegular reports whether path is an existing regular file.
func IsRegular(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
