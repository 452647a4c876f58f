// Package storage persists tracker credentials and the active tracker
// selection as small JSON files, with in-memory variants for tests and
// embedding.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// SecretsFile is the credentials file name inside the data directory.
	SecretsFile = "secrets.json"
	// ConfigFile is the active tracker config file name inside the data directory.
	ConfigFile = "config.json"
)

var (
	// ErrIO marks failures reading or decoding a backing file.
	ErrIO = errors.New("storage I/O error")
	// ErrNotFound is returned when deleting an entry that does not exist.
	ErrNotFound = errors.New("not found")
)

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partially written file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return os.Chmod(path, perm)
}

// readFile returns the file content, or nil with no error when it does not exist.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return data, nil
}
