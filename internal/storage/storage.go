// Package storage keeps uploaded avatars and turns them into public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrInvalidConfig = errors.New("storage: invalid configuration")
	ErrNilFile       = errors.New("storage: file header is nil")
	ErrInvalidKey    = errors.New("storage: invalid key")
	ErrNotImage      = errors.New("storage: file is not a supported image")
	ErrTooLarge      = errors.New("storage: upload too large")
)

// Storage saves an upload under key and returns where it can be fetched.
type Storage interface {
	Save(ctx context.Context, fh *multipart.FileHeader, key string) (location string, err error)
}

var imageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/avif",
}

// DetectImage sniffs the file content (never the client's Content-Type)
// and returns its MIME type and extension.
func DetectImage(fh *multipart.FileHeader) (mimeType, ext string, err error) {
	if fh == nil {
		return "", "", ErrNilFile
	}

	f, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("storage: opening upload: %w", err)
	}
	defer f.Close()

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return "", "", fmt.Errorf("storage: detecting type: %w", err)
	}
	for _, t := range imageTypes {
		if m.Is(t) {
			return m.String(), m.Extension(), nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrNotImage, m.String())
}

// cleanKey rejects keys that could escape the storage root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}
