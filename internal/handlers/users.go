package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/sbilibin2017/comunidade/internal/views"
)

// UserLister lists registered users.
type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// NewUsersHandler renders the member directory with each member's courses.
func NewUsersHandler(svc UserLister, rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.List(r.Context())
		if err != nil {
			renderError(rd, w, r, http.StatusInternalServerError)
			return
		}
		rd.Render(w, http.StatusOK, views.Users, newPage(w, r, "Usuários", views.UsersData{Users: users}))
	}
}
