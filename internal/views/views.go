// Package views renders the HTML pages from templates embedded in the binary.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/sbilibin2017/comunidade/internal/flash"
	"github.com/sbilibin2017/comunidade/internal/forms"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/models"
)

//go:embed templates/*.html
var files embed.FS

// Page names.
const (
	Home        = "home"
	Contact     = "contato"
	Users       = "usuarios"
	Login       = "login"
	Profile     = "perfil"
	EditProfile = "editar_perfil"
	CreatePost  = "criar_post"
	Post        = "post"
	Error       = "error"
)

var pageNames = []string{Home, Contact, Users, Login, Profile, EditProfile, CreatePost, Post, Error}

// PhotoPath is the URL prefix profile photos are served under.
const PhotoPath = "/static/imagens/"

// Page is the data every template receives.
type Page struct {
	Title     string
	User      *models.User
	Flashes   []flash.Message
	CSRFToken string
	Data      any
}

// HomeData lists posts, newest first.
type HomeData struct {
	Posts []models.Post
}

// UsersData lists registered users.
type UsersData struct {
	Users []models.User
}

// LoginData holds both forms of the login page.
type LoginData struct {
	Login    *forms.Form
	Register *forms.Form
	Next     string
}

// ProfileData describes the signed-in user's profile.
type ProfileData struct {
	PostCount int
}

// FormData holds a single form.
type FormData struct {
	Form *forms.Form
}

// PostData shows a post. Form is nil when the viewer may not edit it.
type PostData struct {
	Post *models.Post
	Form *forms.Form
}

// ErrorData describes an error page.
type ErrorData struct {
	Status  int
	Message string
}

// FieldView is a form field prepared for rendering.
type FieldView struct {
	ID      string
	Name    string
	Label   string
	Type    string
	Value   string
	Checked bool
	Errors  []string
}

// Renderer executes named pages.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"field":    fieldView,
	"courses":  courseFields,
	"photoURL": photoURL,
	"date":     formatDate,
}

// New parses every page together with the shared layout.
func New() (*Renderer, error) {
	rd := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(files,
			"templates/layout.html",
			"templates/fields.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		rd.pages[name] = tmpl
	}
	return rd, nil
}

// Render writes page name with the given status. The page is executed into
// a buffer first so a template error never yields a half-written response.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := rd.pages[name]
	if !ok {
		logger.Log.Errorw("unknown page", "page", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		logger.Log.Errorw("failed to render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func fieldView(f *forms.Form, name string) (FieldView, error) {
	field, ok := f.Def.Field(name)
	if !ok {
		return FieldView{}, fmt.Errorf("form %s has no field %s", f.Def.Name, name)
	}
	v := FieldView{
		ID:     f.Def.Name + "-" + field.Name,
		Name:   field.Name,
		Label:  field.Label,
		Type:   field.Type.InputType(),
		Errors: f.FieldErrors(field.Name),
	}
	switch field.Type {
	case forms.Checkbox:
		v.Checked = f.Checked(field.Name)
	case forms.Password, forms.File:
	default:
		v.Value = f.Get(field.Name)
	}
	return v, nil
}

func courseFields(f *forms.Form) []FieldView {
	views := make([]FieldView, 0, len(forms.Courses))
	for _, c := range forms.Courses {
		v, err := fieldView(f, c.Name)
		if err != nil {
			continue
		}
		views = append(views, v)
	}
	return views
}

func photoURL(name string) string {
	if name == "" {
		name = models.DefaultPhoto
	}
	return PhotoPath + url.PathEscape(name)
}

func formatDate(t time.Time) string {
	return t.UTC().Format("02/01/2006")
}
