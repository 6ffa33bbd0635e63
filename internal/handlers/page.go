package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/middlewares"
	"github.com/sbilibin2017/comunidade/internal/views"
)

// Renderer renders named pages.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, page views.Page)
}

var errorMessages = map[int]string{
	http.StatusForbidden:           "Você não tem permissão para realizar esta ação.",
	http.StatusNotFound:            "Página não encontrada.",
	http.StatusInternalServerError: "Ocorreu um erro inesperado. Tente novamente mais tarde.",
}

// newPage collects what every page shows: the signed-in user, pending
// flashes and the CSRF token.
func newPage(w http.ResponseWriter, r *http.Request, title string, data any) views.Page {
	ctx := r.Context()
	return views.Page{
		Title:     title,
		User:      middlewares.UserFromContext(ctx),
		Flashes:   flash.Pop(w, r),
		CSRFToken: middlewares.CSRFToken(ctx),
		Data:      data,
	}
}

// renderError renders the error page for status.
func renderError(rd Renderer, w http.ResponseWriter, r *http.Request, status int) {
	msg, ok := errorMessages[status]
	if !ok {
		msg = http.StatusText(status)
	}
	rd.Render(w, status, views.Error, newPage(w, r, http.StatusText(status), views.ErrorData{Status: status, Message: msg}))
}

// redirect answers with 303 so the browser follows up with a GET.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// postID parses the {id} URL parameter.
func postID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// NewNotFoundHandler renders the 404 page.
func NewNotFoundHandler(rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderError(rd, w, r, http.StatusNotFound)
	}
}
