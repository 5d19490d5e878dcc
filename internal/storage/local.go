package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes uploads below a directory that the server exposes
// under urlPrefix.
type LocalStorage struct {
	dir       string
	urlPrefix string
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage creates dir if needed.
func NewLocalStorage(dir, urlPrefix string) (*LocalStorage, error) {
	if dir == "" {
		return nil, ErrInvalidConfig
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", abs, err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStorage{dir: abs, urlPrefix: urlPrefix}, nil
}

// Dir is the directory files are written to.
func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) Save(ctx context.Context, fh *multipart.FileHeader, key string) (string, error) {
	if fh == nil {
		return "", ErrNilFile
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage: creating directory for %s: %w", key, err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("storage: opening upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("storage: creating %s: %w", key, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("storage: writing %s: %w", key, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("storage: closing %s: %w", key, err)
	}

	return s.urlPrefix + key, nil
}
