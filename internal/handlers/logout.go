package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/jwt"
)

// Logouter ends sessions.
type Logouter interface {
	Logout(ctx context.Context, token string) error
}

// NewLogoutHandler ends the current session and clears the cookie.
func NewLogoutHandler(svc Logouter, rd Renderer, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(jwt.CookieName); err == nil && c.Value != "" {
			if err := svc.Logout(r.Context(), c.Value); err != nil {
				renderError(rd, w, r, http.StatusInternalServerError)
				return
			}
		}

		clearSessionCookie(w, secureCookie)
		flash.Add(w, r, flash.Success, "Você saiu com sucesso.")
		redirect(w, r, "/")
	}
}
