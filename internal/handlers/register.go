package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/forms"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/services"
	"github.com/sbilibin2017/comunidade/internal/views"
)

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, username, email, password string) error
}

// NewRegisterHandler handles the registration form. Registration does not sign the user in.
func NewRegisterHandler(svc Registerer, rd Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		f, err := forms.Bind(forms.Register, r)
		if err != nil {
			logger.FromContext(ctx).Infow("malformed registration form", "err", err)
			renderLogin(rd, w, r, http.StatusBadRequest, views.LoginData{Login: forms.New(forms.Login), Register: forms.New(forms.Register)})
			return
		}

		data := views.LoginData{Login: forms.New(forms.Login), Register: f}
		if !f.Validate() {
			renderLogin(rd, w, r, http.StatusUnprocessableEntity, data)
			return
		}

		email := f.Get(forms.FieldEmail)
		err = svc.Register(ctx, f.Get(forms.FieldUsername), email, f.Get(forms.FieldPassword))
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			f.AddError(forms.FieldEmail, services.MsgEmailInUse)
			renderLogin(rd, w, r, http.StatusUnprocessableEntity, data)
			return
		case err != nil:
			renderError(rd, w, r, http.StatusInternalServerError)
			return
		}

		flash.Add(w, r, flash.Success, fmt.Sprintf("Conta criada com sucesso para %s!", email))
		redirect(w, r, "/")
	}
}
