// Package storage persists uploaded objects such as avatars and returns
// their public URL.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrInvalidKey = errors.New("invalid object key")
	ErrNotFound   = errors.New("object not found")
)

// Storage saves and removes objects addressed by a slash-separated key.
type Storage interface {
	// Save writes r under key and returns the object's public URL.
	Save(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// cleanKey rejects keys that are empty or escape the storage root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	return path.Clean(key), nil
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
