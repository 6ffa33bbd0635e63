package middlewares

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/models"
)

// LoginPath is where anonymous visitors of protected pages are sent.
const LoginPath = "/login"

// MsgLoginRequired is flashed when a protected page is requested anonymously.
const MsgLoginRequired = "Faça login para acessar esta página."

// Tokener extracts the session token from a request.
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
}

// Resolver maps a session token to its user.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type userKey struct{}

// WithUser binds the authenticated user to ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}

// CurrentUserMiddleware resolves the session cookie of every request. Requests
// without a valid session continue as anonymous.
func CurrentUserMiddleware(tokener Tokener, resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.Resolve(ctx, token)
			if err != nil {
				logger.FromContext(ctx).Debugw("continuing as anonymous", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// RequireAuth redirects anonymous requests to the login page. For GET and
// HEAD the requested URI is kept in the next query parameter; other methods
// cannot be replayed by a redirect and are not remembered.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			flash.Add(w, r, flash.Info, MsgLoginRequired)
			target := LoginPath
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				target += "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
