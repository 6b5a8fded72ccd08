package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for names that carry no usable base name.
var ErrInvalidName = errors.New("invalid file name")

// LocalStorage keeps downloaded files flat inside one directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance, creating basePath if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// BaseName strips any directory part from name. Both slash styles count as
// separators since announced paths may come from a different OS.
func BaseName(name string) (string, error) {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

// Create opens <basePath>/<base name of name>, truncating it if it exists.
func (s *LocalStorage) Create(name string) (io.WriteCloser, string, error) {
	base, err := BaseName(name)
	if err != nil {
		return nil, "", err
	}
	filePath := filepath.Join(s.basePath, base)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s: %w", filePath, err)
	}
	return file, filePath, nil
}

// GetPath returns where a file announced as name would be stored.
func (s *LocalStorage) GetPath(name string) (string, error) {
	base, err := BaseName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, base), nil
}

// OpenFile opens an announced file for reading.
func OpenFile(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source file not found: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	return file, nil
}
