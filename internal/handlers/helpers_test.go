package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/middlewares"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/sbilibin2017/comunidade/internal/views"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *views.Renderer {
	t.Helper()
	rd, err := views.New()
	require.NoError(t, err)
	return rd
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withUser(req *http.Request, u *models.User) *http.Request {
	return req.WithContext(middlewares.WithUser(req.Context(), u))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// flashes decodes the flash messages queued on rec.
func flashes(rec *httptest.ResponseRecorder) []flash.Message {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.Name == flash.CookieName && c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return flash.Pop(httptest.NewRecorder(), req)
}
