package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/photos"
)

// PhotoOpener streams stored photos.
type PhotoOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
}

// NewPhotoHandler serves a stored profile photo.
func NewPhotoHandler(store PhotoOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		name := chi.URLParam(r, "name")

		rc, contentType, err := store.Open(ctx, name)
		if err != nil {
			if errors.Is(err, photos.ErrNotFound) || errors.Is(err, photos.ErrInvalidName) {
				http.NotFound(w, r)
				return
			}
			logger.FromContext(ctx).Errorw("failed to open photo", "name", name, "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, rc); err != nil {
			logger.FromContext(ctx).Debugw("photo stream interrupted", "name", name, "err", err)
		}
	}
}
