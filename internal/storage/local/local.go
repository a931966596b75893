package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retrosole/storefront/internal/storage"
)

// Storage implements storage.Storage on the local filesystem. Blobs live
// under baseDir and are served from baseURL by the static file route.
type Storage struct {
	baseDir string
	baseURL string
}

// New creates a local filesystem storage rooted at baseDir. The directory
// is created if it does not exist.
func New(baseDir, baseURL string) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", baseDir, err)
	}
	return &Storage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Put writes the blob to disk under its key. The write goes through a
// temporary file and rename so a crash never leaves a partial blob
// readable under the final key.
func (s *Storage) Put(ctx context.Context, input *storage.PutInput) (*storage.PutResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolve(input.Key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, input.Data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write blob %s: %w", input.Key, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("finalize blob %s: %w", input.Key, err)
	}

	return &storage.PutResult{
		Key: input.Key,
		URL: s.URL(input.Key),
	}, nil
}

// Delete removes the blob file for the given key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("blob not found: %s", key)
		}
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a blob file is present for the given key.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat blob %s: %w", key, err)
	}
	return true, nil
}

// URL returns the public URL for the given key.
func (s *Storage) URL(key string) string {
	return s.baseURL + "/" + key
}

// resolve maps a key to an absolute path under baseDir, rejecting keys
// that would escape it.
func (s *Storage) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty blob key")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob key: %s", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}
