package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/sbilibin2017/comunidade/internal/views"
)

// PostLister lists posts, newest first.
type PostLister interface {
	List(ctx context.Context) ([]models.Post, error)
}

// NewHomeHandler renders the post listing.
func NewHomeHandler(svc PostLister, rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := svc.List(r.Context())
		if err != nil {
			renderError(rd, w, r, http.StatusInternalServerError)
			return
		}
		rd.Render(w, http.StatusOK, views.Home, newPage(w, r, "", views.HomeData{Posts: posts}))
	}
}

// NewContactHandler renders the contact page.
func NewContactHandler(rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rd.Render(w, http.StatusOK, views.Contact, newPage(w, r, "Contato", nil))
	}
}
