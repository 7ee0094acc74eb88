package storage

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// WriteZip streams the payloads behind keys into a deflated zip archive on w.
// Missing payloads are skipped with a warning. It returns the number of
// entries written.
func WriteZip(ctx context.Context, s Storage, w io.Writer, keys []string) (int, error) {
	zw := zip.NewWriter(w)
	written := 0
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		if err := ctx.Err(); err != nil {
			zw.Close()
			return written, err
		}

		rc, err := s.Open(ctx, key)
		if errors.Is(err, ErrNotExist) {
			slog.Warn("Skipping missing payload in archive", "key", key)
			continue
		}
		if err != nil {
			zw.Close()
			return written, fmt.Errorf("failed to open %s: %w", key, err)
		}
		err = copyEntry(zw, key, rc)
		rc.Close()
		if err != nil {
			zw.Close()
			return written, err
		}
		written++
	}
	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("failed to finish archive: %w", err)
	}
	return written, nil
}

func copyEntry(zw *zip.Writer, name string, r io.Reader) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}
	return nil
}
