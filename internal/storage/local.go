package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore stands in for the bucket when USE_MOCK_STORAGE is set.
type LocalStore struct {
	basePath string
}

func NewLocalStore(basePath string) (*LocalStore, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create base directory: %w", err)
	}
	return &LocalStore{basePath: abs}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	full := filepath.Join(s.basePath, filepath.Clean("/"+key))
	if !strings.HasPrefix(full, s.basePath+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: key %q escapes base path", key)
	}
	return full, nil
}

func (s *LocalStore) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("storage: create directory: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("storage: write file: %w", err)
	}
	return nil
}

func (s *LocalStore) URI(key string) string {
	return "file://" + filepath.ToSlash(filepath.Join(s.basePath, key))
}

var _ ObjectStore = (*LocalStore)(nil)
