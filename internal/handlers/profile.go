package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/forms"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/middlewares"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/sbilibin2017/comunidade/internal/photos"
	"github.com/sbilibin2017/comunidade/internal/services"
	"github.com/sbilibin2017/comunidade/internal/views"
)

// MsgInvalidImage is shown when an uploaded photo cannot be processed.
const MsgInvalidImage = "Não foi possível processar a imagem enviada. Envie um arquivo JPG ou PNG válido."

// PostCounter counts a user's posts.
type PostCounter interface {
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// ProfileUpdater applies profile edits.
type ProfileUpdater interface {
	Update(ctx context.Context, actor *models.User, upd services.ProfileUpdate) (*models.User, error)
}

// NewProfileHandler renders the signed-in user's profile.
func NewProfileHandler(svc PostCounter, rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middlewares.UserFromContext(r.Context())

		count, err := svc.CountByUser(r.Context(), user.ID)
		if err != nil {
			renderError(rd, w, r, http.StatusInternalServerError)
			return
		}
		rd.Render(w, http.StatusOK, views.Profile, newPage(w, r, "Perfil", views.ProfileData{PostCount: count}))
	}
}

// NewEditProfileHandler shows the profile form prefilled from the stored
// record and applies submitted changes.
func NewEditProfileHandler(svc ProfileUpdater, rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := middlewares.UserFromContext(ctx)

		if r.Method != http.MethodPost {
			rd.Render(w, http.StatusOK, views.EditProfile, newPage(w, r, "Editar Perfil", views.FormData{Form: forms.ProfileFromUser(user)}))
			return
		}

		f, err := forms.Bind(forms.EditProfile, r)
		if err != nil {
			logger.FromContext(ctx).Infow("malformed profile form", "user_id", user.ID, "err", err)
			f = forms.ProfileFromUser(user)
			f.AddError(forms.FieldPhoto, MsgInvalidImage)
			rd.Render(w, http.StatusBadRequest, views.EditProfile, newPage(w, r, "Editar Perfil", views.FormData{Form: f}))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		invalid := func() {
			rd.Render(w, http.StatusUnprocessableEntity, views.EditProfile, newPage(w, r, "Editar Perfil", views.FormData{Form: f}))
		}

		if !f.Validate() {
			invalid()
			return
		}

		upd := services.ProfileUpdate{
			Username: f.Get(forms.FieldUsername),
			Email:    f.Get(forms.FieldEmail),
			Courses:  forms.SelectedCourses(f),
		}

		var file multipart.File
		if fh := f.File(forms.FieldPhoto); fh != nil {
			file, err = fh.Open()
			if err != nil {
				logger.FromContext(ctx).Errorw("failed to open upload", "user_id", user.ID, "err", err)
				renderError(rd, w, r, http.StatusInternalServerError)
				return
			}
			defer file.Close()
			upd.Photo = &services.Upload{Filename: fh.Filename, Content: file}
		}

		_, err = svc.Update(ctx, user, upd)
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			f.AddError(verr.Field, verr.Message)
			invalid()
			return
		case errors.Is(err, photos.ErrDecode), errors.Is(err, photos.ErrUnsupportedExtension):
			f.AddError(forms.FieldPhoto, MsgInvalidImage)
			invalid()
			return
		case err != nil:
			renderError(rd, w, r, http.StatusInternalServerError)
			return
		}

		flash.Add(w, r, flash.Success, "Perfil atualizado com sucesso!")
		redirect(w, r, "/perfil")
	}
}
