package storage

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
)

type contextKey string

const uploadKey contextKey = "upload"

type upload struct {
	location string
	err      error
}

// UploadedFrom returns what UploadAvatar did with this request: the stored
// file's location, "" when no file was sent, or the error that stopped the
// upload.
func UploadedFrom(ctx context.Context) (string, error) {
	u, _ := ctx.Value(uploadKey).(upload)
	return u.location, u.err
}

// UploadAvatar parses a multipart form of at most maxBytes and stores its
// "avatar" file, if any, as avatars/<id><ext>. Failures do not stop the
// request; the handler reads them with UploadedFrom.
func UploadAvatar(store Storage, maxBytes int64, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var u upload

			if r.ContentLength > maxBytes {
				u.err = ErrTooLarge
				ctx := context.WithValue(r.Context(), uploadKey, u)
				logger.Warn("avatar upload rejected", slog.Int64("content_length", r.ContentLength))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			err := r.ParseMultipartForm(maxBytes)
			switch {
			case errors.Is(err, http.ErrNotMultipart):
				// Plain form: nothing to store.
			case err != nil:
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					u.err = ErrTooLarge
				} else {
					u.err = err
				}
			default:
				u.location, u.err = saveAvatar(r, store)
			}

			if u.err != nil {
				logger.Warn("avatar upload failed", slog.Any("error", u.err))
			}

			ctx := context.WithValue(r.Context(), uploadKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func saveAvatar(r *http.Request, store Storage) (string, error) {
	files := r.MultipartForm.File["avatar"]
	if len(files) == 0 || files[0].Size == 0 {
		return "", nil
	}
	fh := files[0]

	_, ext, err := DetectImage(fh)
	if err != nil {
		return "", err
	}
	return store.Save(r.Context(), fh, "avatars/"+xid.New().String()+ext)
}
