// Package storage persists uploaded media files on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"modulehub/internal/config"
)

// Store backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid media key")

// MediaStore writes and removes media objects addressed by a slash-separated key.
type MediaStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Name() string
}

// New returns the store selected by MEDIA_STORAGE.
func New(ctx context.Context, cfg *config.Config) (MediaStore, error) {
	switch cfg.MediaStorage {
	case "", BackendLocal:
		return NewLocalStore(cfg.MediaUploadDir, cfg.MediaBaseURL), nil
	case BackendS3:
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			BaseURL:   cfg.MediaBaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported media storage %q", cfg.MediaStorage)
	}
}

// CleanKey normalizes key and rejects absolute or parent-relative paths.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
