package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHomeHandler(t *testing.T) {
	rd := newRenderer(t)

	t.Run("lists posts in service order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewMockPostLister(ctrl)
		svc.EXPECT().List(gomock.Any()).Return([]models.Post{
			{ID: 3, Title: "third", AuthorName: "bob"},
			{ID: 1, Title: "first", AuthorName: "alice"},
		}, nil)

		rec := httptest.NewRecorder()
		NewHomeHandler(svc, rd).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		body := rec.Body.String()
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Less(t, strings.Index(body, "third"), strings.Index(body, "first"))
	})

	t.Run("storage failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewMockPostLister(ctrl)
		svc.EXPECT().List(gomock.Any()).Return(nil, errors.New("db down"))

		rec := httptest.NewRecorder()
		NewHomeHandler(svc, rd).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestContactHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewContactHandler(newRenderer(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contato", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contato")
}

func TestUsersHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewMockUserLister(ctrl)
	svc.EXPECT().List(gomock.Any()).Return([]models.User{
		{ID: 1, Username: "alice", Courses: "Python para Iniciantes;Python para DevOps"},
		{ID: 2, Username: "bob"},
	}, nil)

	rec := httptest.NewRecorder()
	NewUsersHandler(svc, newRenderer(t)).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/usuarios", nil), alice))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Python para DevOps")
	assert.Contains(t, body, "Nenhum curso")
}

func TestNotFoundHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewNotFoundHandler(newRenderer(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Página não encontrada.")
}
