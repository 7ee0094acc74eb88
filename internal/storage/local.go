package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Local stores payloads as files under a directory.
type Local struct {
	uploadDir string
}

func NewLocal(uploadDir string) (*Local, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, err
	}
	return &Local{uploadDir: uploadDir}, nil
}

func (s *Local) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	p := s.path(key)
	out, err := os.Create(p)
	if err != nil {
		slog.Error("Failed to create file", "path", p, "error", err)
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		slog.Error("Failed to save file", "path", p, "error", err)
		_ = os.Remove(p)
		return err
	}
	return out.Sync()
}

func (s *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	return f, err
}

func (s *Local) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotExist
	}
	return err
}

func (s *Local) path(key string) string {
	return filepath.Join(s.uploadDir, key)
}
