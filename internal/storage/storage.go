// Package storage keeps the binary payloads of images. Objects are addressed
// by opaque keys generated at upload time.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/notes-bin/imgshare/internal/config"
)

var (
	ErrNotExist   = errors.New("object does not exist")
	ErrInvalidKey = errors.New("invalid object key")
)

// Storage saves, reads and deletes payloads.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "local":
		return NewLocal(cfg.UploadDir)
	case "minio":
		return NewMinIO(ctx, cfg.MinIO)
	case "gcs":
		return NewGCS(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// NewKey returns a fresh object key keeping the extension of filename.
func NewKey(filename string) string {
	return uuid.NewString() + strings.ToLower(path.Ext(filename))
}

// checkKey rejects keys that could escape the storage root.
func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
