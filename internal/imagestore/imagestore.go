// Package imagestore persists processed wardrobe images under generated keys.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when no image exists for a key
var ErrNotFound = errors.New("image not found")

// Store persists image bytes
type Store interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}

// ImageKey builds the storage key `${timestampMillis}-${queuedFileID}`
func ImageKey(ts time.Time, queuedFileID string) string {
	return fmt.Sprintf("%d-%s", ts.UnixMilli(), queuedFileID)
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid image key %q", key)
	}
	return nil
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var mimeTypes = func() map[string]string {
	m := make(map[string]string, len(extensions))
	for mt, ext := range extensions {
		m[ext] = mt
	}
	return m
}()
