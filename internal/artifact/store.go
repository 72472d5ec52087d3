// Package artifact stores processed documents and reports.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists a blob under key and returns where it was written.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// FileStore writes blobs under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Put writes data to root/key, creating parent directories.
func (s *FileStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	rel, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	k := strings.TrimLeft(strings.TrimSpace(key), "/")
	if k == "" {
		return "", fmt.Errorf("report key is required")
	}
	k = filepath.ToSlash(filepath.Clean(k))
	if k == ".." || strings.HasPrefix(k, "../") {
		return "", fmt.Errorf("report key %q escapes the store root", key)
	}
	return k, nil
}
