// Package storage uploads generated assets and returns URLs clients can fetch them from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidPath = errors.New("storage: invalid object path")

// Store writes an object and returns its public URL.
type Store interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
}

func cleanPath(p string) (string, error) {
	p = strings.TrimLeft(filepath.ToSlash(p), "/")
	if p == "" || strings.Contains(p, "..") {
		return "", ErrInvalidPath
	}
	return p, nil
}

// DiskStore keeps objects under a local directory. It is used in development
// when no Supabase project is configured.
type DiskStore struct {
	root      string
	publicURL string
}

// NewDiskStore creates a DiskStore rooted at dir. URLs are built by joining
// publicURL with the object path.
func NewDiskStore(dir, publicURL string) *DiskStore {
	return &DiskStore{root: dir, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *DiskStore) Upload(ctx context.Context, path, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := cleanPath(path)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write object: %w", err)
	}
	return s.publicURL + "/" + p, nil
}
