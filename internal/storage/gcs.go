package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/notes-bin/imgshare/internal/config"
)

// GCS stores payloads in a Google Cloud Storage bucket under an optional prefix.
type GCS struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCS uses application default credentials unless a credentials file is set.
func NewGCS(ctx context.Context, cfg config.GCSConfig) (*GCS, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return &GCS{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GCS) object(key string) *gcs.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + key)
}

func (s *GCS) Save(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	wc := s.object(key).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finish upload of %s: %w", key, err)
	}
	return nil
}

func (s *GCS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	rc, err := s.object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return rc, nil
}

func (s *GCS) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := s.object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrNotExist
	}
	return err
}

func (s *GCS) Close() error {
	return s.client.Close()
}
