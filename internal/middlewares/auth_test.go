package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentUserMiddleware(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice"}

	tests := []struct {
		name      string
		mockSetup func(tok *MockTokener, res *MockResolver)
		wantUser  *models.User
	}{
		{
			name: "NoToken",
			mockSetup: func(tok *MockTokener, res *MockResolver) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).
					Return("", errors.New("no token"))
			},
		},
		{
			name: "StaleSession",
			mockSetup: func(tok *MockTokener, res *MockResolver) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).
					Return("sometoken", nil)
				res.EXPECT().Resolve(gomock.Any(), "sometoken").
					Return(nil, errors.New("not authenticated"))
			},
		},
		{
			name: "ValidSession",
			mockSetup: func(tok *MockTokener, res *MockResolver) {
				tok.EXPECT().GetTokenFromRequest(gomock.Any(), gomock.Any()).
					Return("validtoken", nil)
				res.EXPECT().Resolve(gomock.Any(), "validtoken").
					Return(alice, nil)
			},
			wantUser: alice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tok := NewMockTokener(ctrl)
			res := NewMockResolver(ctrl)
			tt.mockSetup(tok, res)

			nextCalled := false
			var gotUser *models.User
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				gotUser = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := CurrentUserMiddleware(tok, res)(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.True(t, nextCalled)
			assert.Equal(t, tt.wantUser, gotUser)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	t.Run("Anonymous", func(t *testing.T) {
		handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("protected handler reached anonymously")
		}))

		req := httptest.NewRequest(http.MethodGet, "/post/3?x=1", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)

		loc, err := url.Parse(rr.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, LoginPath, loc.Path)
		assert.Equal(t, "/post/3?x=1", loc.Query().Get("next"))

		var found bool
		for _, c := range rr.Result().Cookies() {
			if c.Name == flash.CookieName {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("Anonymous POST is not remembered", func(t *testing.T) {
		handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("protected handler reached anonymously")
		}))

		req := httptest.NewRequest(http.MethodPost, "/post/3/deletar", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, LoginPath, rr.Header().Get("Location"))
	})

	t.Run("Authenticated", func(t *testing.T) {
		called := false
		handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest(http.MethodGet, "/perfil", nil)
		req = req.WithContext(WithUser(req.Context(), &models.User{ID: 1}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
