package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/forms"
	"github.com/sbilibin2017/comunidade/internal/jwt"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/services"
	"github.com/sbilibin2017/comunidade/internal/views"
)

// MsgInvalidCredentials is shown for any failed login.
const MsgInvalidCredentials = "Email ou senha incorretos. Tente novamente."

// Authenticator opens sessions.
type Authenticator interface {
	Login(ctx context.Context, email, password string, remember bool) (*services.Session, error)
}

// SafeRedirect returns next when it is a local path, otherwise "/".
func SafeRedirect(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// safeNext returns the next parameter of r when it is safe to redirect to.
func safeNext(r *http.Request) string {
	next := r.URL.Query().Get("next")
	if SafeRedirect(next) != next {
		return ""
	}
	return next
}

// setSessionCookie stores the session token. Without remember-me the cookie
// lives until the browser closes.
func setSessionCookie(w http.ResponseWriter, s *services.Session, secure bool) {
	c := &http.Cookie{
		Name:     jwt.CookieName,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.Remember {
		c.Expires = s.ExpiresAt
		c.MaxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	http.SetCookie(w, c)
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     jwt.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func renderLogin(rd Renderer, w http.ResponseWriter, r *http.Request, status int, data views.LoginData, extra ...flash.Message) {
	page := newPage(w, r, "Login", data)
	page.Flashes = append(page.Flashes, extra...)
	rd.Render(w, status, views.Login, page)
}

// NewLoginPageHandler renders the login and registration forms.
func NewLoginPageHandler(rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderLogin(rd, w, r, http.StatusOK, views.LoginData{
			Login:    forms.New(forms.Login),
			Register: forms.New(forms.Register),
			Next:     safeNext(r),
		})
	}
}

// NewLoginHandler handles the login form. On success it sets the session
// cookie and redirects to the next parameter when safe, else home.
func NewLoginHandler(svc Authenticator, rd Renderer, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		next := safeNext(r)

		f, err := forms.Bind(forms.Login, r)
		if err != nil {
			logger.FromContext(ctx).Infow("malformed login form", "err", err)
			renderLogin(rd, w, r, http.StatusBadRequest, views.LoginData{Login: forms.New(forms.Login), Register: forms.New(forms.Register), Next: next})
			return
		}

		data := views.LoginData{Login: f, Register: forms.New(forms.Register), Next: next}
		if !f.Validate() {
			renderLogin(rd, w, r, http.StatusUnprocessableEntity, data)
			return
		}

		email := f.Get(forms.FieldEmail)
		session, err := svc.Login(ctx, email, f.Get(forms.FieldPassword), f.Checked(forms.FieldRememberMe))
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				renderLogin(rd, w, r, http.StatusUnauthorized, data, flash.Message{Category: flash.Danger, Text: MsgInvalidCredentials})
				return
			}
			renderError(rd, w, r, http.StatusInternalServerError)
			return
		}

		setSessionCookie(w, session, secureCookie)
		flash.Add(w, r, flash.Success, fmt.Sprintf("Login realizado com sucesso para %s!", email))
		redirect(w, r, SafeRedirect(next))
	}
}
