package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/forms"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/middlewares"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/sbilibin2017/comunidade/internal/services"
	"github.com/sbilibin2017/comunidade/internal/views"
)

// PostCreator creates posts.
type PostCreator interface {
	Create(ctx context.Context, actorID int64, title, body string) (*models.Post, error)
}

// PostEditor reads and edits posts.
type PostEditor interface {
	Get(ctx context.Context, id int64) (*models.Post, error)
	Update(ctx context.Context, actorID, id int64, title, body string) (*models.Post, error)
}

// PostDeleter deletes posts.
type PostDeleter interface {
	Delete(ctx context.Context, actorID, id int64) error
}

// renderPostError maps post service errors to error pages.
func renderPostError(rd Renderer, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		renderError(rd, w, r, http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		renderError(rd, w, r, http.StatusForbidden)
	default:
		renderError(rd, w, r, http.StatusInternalServerError)
	}
}

// NewCreatePostHandler shows and handles the new post form.
func NewCreatePostHandler(svc PostCreator, rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodPost {
			rd.Render(w, http.StatusOK, views.CreatePost, newPage(w, r, "Criar Post", views.FormData{Form: forms.New(forms.Post)}))
			return
		}

		f, err := forms.Bind(forms.Post, r)
		if err != nil {
			logger.FromContext(ctx).Infow("malformed post form", "err", err)
			rd.Render(w, http.StatusBadRequest, views.CreatePost, newPage(w, r, "Criar Post", views.FormData{Form: forms.New(forms.Post)}))
			return
		}
		if !f.Validate() {
			rd.Render(w, http.StatusUnprocessableEntity, views.CreatePost, newPage(w, r, "Criar Post", views.FormData{Form: f}))
			return
		}

		user := middlewares.UserFromContext(ctx)
		if _, err := svc.Create(ctx, user.ID, f.Get(forms.FieldTitle), f.Get(forms.FieldBody)); err != nil {
			renderError(rd, w, r, http.StatusInternalServerError)
			return
		}

		flash.Add(w, r, flash.Success, "Post criado com sucesso!")
		redirect(w, r, "/")
	}
}

// NewPostHandler shows a post. Its owner also gets the edit form, and only
// the owner may submit it.
func NewPostHandler(svc PostEditor, rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, ok := postID(r)
		if !ok {
			renderError(rd, w, r, http.StatusNotFound)
			return
		}

		post, err := svc.Get(ctx, id)
		if err != nil {
			renderPostError(rd, w, r, err)
			return
		}

		user := middlewares.UserFromContext(ctx)
		owner := services.IsOwner(user.ID, post)

		if r.Method != http.MethodPost {
			data := views.PostData{Post: post}
			if owner {
				data.Form = forms.PostFromModel(post)
			}
			rd.Render(w, http.StatusOK, views.Post, newPage(w, r, post.Title, data))
			return
		}

		if !owner {
			logger.FromContext(ctx).Warnw("post edit by non-owner", "post_id", id, "user_id", user.ID)
			renderError(rd, w, r, http.StatusForbidden)
			return
		}

		f, err := forms.Bind(forms.Post, r)
		if err != nil {
			logger.FromContext(ctx).Infow("malformed post form", "post_id", id, "err", err)
			renderError(rd, w, r, http.StatusBadRequest)
			return
		}
		if !f.Validate() {
			rd.Render(w, http.StatusUnprocessableEntity, views.Post, newPage(w, r, post.Title, views.PostData{Post: post, Form: f}))
			return
		}

		if _, err := svc.Update(ctx, user.ID, id, f.Get(forms.FieldTitle), f.Get(forms.FieldBody)); err != nil {
			renderPostError(rd, w, r, err)
			return
		}

		flash.Add(w, r, flash.Success, "Post atualizado com sucesso!")
		redirect(w, r, "/")
	}
}

// NewDeletePostHandler deletes a post owned by the signed-in user.
func NewDeletePostHandler(svc PostDeleter, rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := postID(r)
		if !ok {
			renderError(rd, w, r, http.StatusNotFound)
			return
		}

		user := middlewares.UserFromContext(r.Context())
		if err := svc.Delete(r.Context(), user.ID, id); err != nil {
			renderPostError(rd, w, r, err)
			return
		}

		flash.Add(w, r, flash.Danger, "Post deletado com sucesso!")
		redirect(w, r, "/")
	}
}
