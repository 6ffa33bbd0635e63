package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/sbilibin2017/comunidade/internal/photos"
	"github.com/sbilibin2017/comunidade/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	field, filename string
	content         []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, file *upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.filename)
		require.NoError(t, err)
		_, err = fw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProfileHandler(t *testing.T) {
	rd := newRenderer(t)
	ctrl := gomock.NewController(t)
	svc := NewMockPostCounter(ctrl)
	svc.EXPECT().CountByUser(gomock.Any(), alice.ID).Return(3, nil)

	rec := httptest.NewRecorder()
	NewProfileHandler(svc, rd).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/perfil", nil), alice))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Posts: 3")
}

func TestEditProfileHandler_Prefill(t *testing.T) {
	rd := newRenderer(t)
	ctrl := gomock.NewController(t)

	user := &models.User{ID: 1, Username: "alice", Email: "a@example.com", Photo: models.DefaultPhoto, Courses: "Python para Iniciantes;Python para DevOps"}
	rec := httptest.NewRecorder()
	NewEditProfileHandler(NewMockProfileUpdater(ctrl), rd).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/perfil/editar", nil), user))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, `value="a@example.com"`)
	assert.Contains(t, body, `name="course_beginner" value="y" checked`)
	assert.Contains(t, body, `name="course_devops" value="y" checked`)
	assert.NotContains(t, body, `name="course_web" value="y" checked`)
}

func TestEditProfileHandler_Submit(t *testing.T) {
	rd := newRenderer(t)
	fields := map[string]string{
		"username":        "Alice",
		"email":           "a@example.com",
		"course_devops":   "y",
		"course_beginner": "y",
	}

	t.Run("courses in declaration order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewMockProfileUpdater(ctrl)
		svc.EXPECT().Update(gomock.Any(), alice, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ *models.User, upd services.ProfileUpdate) (*models.User, error) {
				assert.Equal(t, "Alice", upd.Username)
				assert.Equal(t, []string{"Python para Iniciantes", "Python para DevOps"}, upd.Courses)
				assert.Nil(t, upd.Photo)
				return alice, nil
			})

		rec := httptest.NewRecorder()
		NewEditProfileHandler(svc, rd).ServeHTTP(rec, withUser(multipartRequest(t, "/perfil/editar", fields, nil), alice))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/perfil", rec.Header().Get("Location"))
		assert.Equal(t, "Perfil atualizado com sucesso!", flashes(rec)[0].Text)
	})

	t.Run("photo is passed to the service", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewMockProfileUpdater(ctrl)
		svc.EXPECT().Update(gomock.Any(), alice, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ *models.User, upd services.ProfileUpdate) (*models.User, error) {
				require.NotNil(t, upd.Photo)
				assert.Equal(t, "me.png", upd.Photo.Filename)
				data, err := io.ReadAll(upd.Photo.Content)
				require.NoError(t, err)
				assert.Equal(t, []byte("png bytes"), data)
				return alice, nil
			})

		rec := httptest.NewRecorder()
		req := multipartRequest(t, "/perfil/editar", fields, &upload{field: "photo", filename: "me.png", content: []byte("png bytes")})
		NewEditProfileHandler(svc, rd).ServeHTTP(rec, withUser(req, alice))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("disallowed extension never reaches the service", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewMockProfileUpdater(ctrl)

		rec := httptest.NewRecorder()
		req := multipartRequest(t, "/perfil/editar", fields, &upload{field: "photo", filename: "me.gif", content: []byte("gif")})
		NewEditProfileHandler(svc, rd).ServeHTTP(rec, withUser(req, alice))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Somente imagens JPG e PNG são permitidas.")
	})

	t.Run("corrupt image", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewMockProfileUpdater(ctrl)
		svc.EXPECT().Update(gomock.Any(), alice, gomock.Any()).Return(nil, photos.ErrDecode)

		rec := httptest.NewRecorder()
		req := multipartRequest(t, "/perfil/editar", fields, &upload{field: "photo", filename: "me.jpg", content: []byte("garbage")})
		NewEditProfileHandler(svc, rd).ServeHTTP(rec, withUser(req, alice))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), MsgInvalidImage)
	})

	t.Run("email in use", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewMockProfileUpdater(ctrl)
		svc.EXPECT().Update(gomock.Any(), alice, gomock.Any()).
			Return(nil, &services.ValidationError{Field: "email", Message: services.MsgEmailInUse})

		rec := httptest.NewRecorder()
		NewEditProfileHandler(svc, rd).ServeHTTP(rec, withUser(multipartRequest(t, "/perfil/editar", fields, nil), alice))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), services.MsgEmailInUse)
	})

	t.Run("service failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := NewMockProfileUpdater(ctrl)
		svc.EXPECT().Update(gomock.Any(), alice, gomock.Any()).Return(nil, errors.New("db down"))

		rec := httptest.NewRecorder()
		NewEditProfileHandler(svc, rd).ServeHTTP(rec, withUser(multipartRequest(t, "/perfil/editar", fields, nil), alice))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
