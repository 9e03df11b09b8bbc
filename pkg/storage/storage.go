package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists uploaded files and returns a path usable for later retrieval.
type Store interface {
	Save(ctx context.Context, dir, filename string, contents io.Reader) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// DiskStore writes uploads under a configured root directory.
type DiskStore struct {
	root string
}

// NewDiskStore validates the root directory and returns a disk-backed store.
func NewDiskStore(root string) (*DiskStore, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", trimmed, err)
	}
	return &DiskStore{root: trimmed}, nil
}

// Save writes the contents under root/dir with a random filename, keeping the
// original extension. The returned path is relative to the root.
func (s *DiskStore) Save(ctx context.Context, dir, filename string, contents io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanDir, err := s.cleanRelative(dir)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	relative := filepath.Join(cleanDir, uuid.NewString()+ext)
	full := filepath.Join(s.root, relative)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %q: %w", relative, err)
	}

	file, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file %q: %w", relative, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, contents); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write file %q: %w", relative, err)
	}
	return relative, nil
}

// Open returns a reader over a previously saved path.
func (s *DiskStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := s.cleanRelative(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.root, clean))
	if err != nil {
		return nil, fmt.Errorf("open file %q: %w", clean, err)
	}
	return file, nil
}

// Delete removes a saved file, tolerating already-missing paths.
func (s *DiskStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := s.cleanRelative(path)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, clean)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file %q: %w", clean, err)
	}
	return nil
}

// cleanRelative rejects traversal outside the root.
func (s *DiskStore) cleanRelative(path string) (string, error) {
	clean := filepath.Clean(strings.TrimSpace(path))
	if clean == "." {
		return "", nil
	}
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid storage path %q", path)
	}
	return clean, nil
}
