package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore keeps images as files named <key><ext> in a directory
type FSStore struct {
	dir string
}

// NewFSStore creates the directory if needed
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Put writes an image, replacing any earlier file with the same key
func (s *FSStore) Put(ctx context.Context, key string, data []byte, mimeType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validKey(key); err != nil {
		return err
	}
	ext, ok := extensions[mimeType]
	if !ok {
		return fmt.Errorf("unsupported image type %q", mimeType)
	}
	if err := s.Delete(ctx, key); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, key+ext), data, 0o600); err != nil {
		return fmt.Errorf("failed to write image %s: %w", key, err)
	}
	return nil
}

// Get reads an image and its mime type
func (s *FSStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if err := validKey(key); err != nil {
		return nil, "", err
	}
	for ext, mt := range mimeTypes {
		data, err := os.ReadFile(filepath.Join(s.dir, key+ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read image %s: %w", key, err)
		}
		return data, mt, nil
	}
	return nil, "", ErrNotFound
}

// Delete removes an image. Missing images are not an error.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validKey(key); err != nil {
		return err
	}
	for ext := range mimeTypes {
		if err := os.Remove(filepath.Join(s.dir, key+ext)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete image %s: %w", key, err)
		}
	}
	return nil
}
