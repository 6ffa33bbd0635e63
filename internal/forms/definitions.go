package forms

import (
	"strings"

	"github.com/sbilibin2017/comunidade/internal/models"
)

// Field names shared by handlers and templates.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldRememberMe      = "remember_me"
	FieldPhoto           = "photo"
	FieldTitle           = "title"
	FieldBody            = "body"
)

// coursePrefix marks checkbox fields that select a course.
const coursePrefix = "course_"

// AllowedPhotoExtensions are the upload extensions accepted for profile photos.
var AllowedPhotoExtensions = []string{"jpg", "png"}

// Courses lists the selectable courses in declaration order.
var Courses = []Field{
	{Name: "course_beginner", Label: "Python para Iniciantes", Type: Checkbox},
	{Name: "course_data_science", Label: "Python para Ciência de Dados", Type: Checkbox},
	{Name: "course_web", Label: "Python para Desenvolvimento Web", Type: Checkbox},
	{Name: "course_machine_learning", Label: "Python para Machine Learning", Type: Checkbox},
	{Name: "course_ai", Label: "Python para Inteligência Artificial", Type: Checkbox},
	{Name: "course_automation", Label: "Python para Automação", Type: Checkbox},
	{Name: "course_games", Label: "Python para Desenvolvimento de Jogos", Type: Checkbox},
	{Name: "course_devops", Label: "Python para DevOps", Type: Checkbox},
	{Name: "course_security", Label: "Python para Cibersegurança", Type: Checkbox},
	{Name: "course_finance", Label: "Python para Finanças e Mercado Financeiro", Type: Checkbox},
}

func usernameField() Field {
	return Field{
		Name:  FieldUsername,
		Label: "Nome de Usuário",
		Type:  Text,
		Validators: []Validator{
			Required("O nome de usuário é obrigatório"),
			MaxLength(100),
		},
	}
}

func emailField() Field {
	return Field{
		Name:  FieldEmail,
		Label: "Email",
		Type:  Text,
		Validators: []Validator{
			Required("O email é obrigatório"),
			Email("Email inválido"),
			MaxLength(120),
		},
	}
}

func passwordField() Field {
	return Field{
		Name:  FieldPassword,
		Label: "Senha",
		Type:  Password,
		Validators: []Validator{
			Required("A senha é obrigatória"),
			MinLength(6, "A senha deve ter pelo menos 6 caracteres"),
		},
	}
}

// Register is the account creation form.
var Register = &Definition{
	Name: "register",
	Fields: []Field{
		usernameField(),
		emailField(),
		passwordField(),
		{
			Name:  FieldConfirmPassword,
			Label: "Confirmar Senha",
			Type:  Password,
			Validators: []Validator{
				Required("A confirmação da senha é obrigatória"),
				EqualTo(FieldPassword, "As senhas não coincidem"),
			},
		},
	},
}

// Login is the sign-in form.
var Login = &Definition{
	Name: "login",
	Fields: []Field{
		emailField(),
		passwordField(),
		{Name: FieldRememberMe, Label: "Lembrar-me", Type: Checkbox},
	},
}

// EditProfile is the profile form: identity fields, one checkbox per course and the photo upload.
var EditProfile = &Definition{
	Name:   "edit_profile",
	Fields: editProfileFields(),
}

func editProfileFields() []Field {
	fields := []Field{usernameField(), emailField()}
	fields = append(fields, Courses...)
	fields = append(fields, Field{
		Name:  FieldPhoto,
		Label: "Alterar Foto de Perfil",
		Type:  File,
		Validators: []Validator{
			FileAllowed(AllowedPhotoExtensions, "Somente imagens JPG e PNG são permitidas."),
		},
	})
	return fields
}

// Post is the create/edit post form.
var Post = &Definition{
	Name: "post",
	Fields: []Field{
		{
			Name:  FieldTitle,
			Label: "Título",
			Type:  Text,
			Validators: []Validator{
				Required("O título é obrigatório"),
				MaxLength(100),
			},
		},
		{
			Name:       FieldBody,
			Label:      "Escreva seu post aqui",
			Type:       TextArea,
			Validators: []Validator{Required("O conteúdo é obrigatório")},
		},
	},
}

// SelectedCourses returns the labels of every ticked course field, in declaration order.
func SelectedCourses(f *Form) []string {
	var labels []string
	for _, field := range f.Def.Fields {
		if field.Type != Checkbox || !strings.HasPrefix(field.Name, coursePrefix) {
			continue
		}
		if f.Checked(field.Name) {
			labels = append(labels, field.Label)
		}
	}
	return labels
}

// ProfileFromUser prefills the profile form from the stored record.
// A course is ticked when its label appears in the user's courses.
func ProfileFromUser(u *models.User) *Form {
	f := New(EditProfile)
	f.Set(FieldUsername, u.Username)
	f.Set(FieldEmail, u.Email)
	for _, field := range EditProfile.Fields {
		if field.Type == Checkbox {
			f.SetChecked(field.Name, u.HasCourse(field.Label))
		}
	}
	return f
}

// PostFromModel prefills the post form for editing.
func PostFromModel(p *models.Post) *Form {
	f := New(Post)
	f.Set(FieldTitle, p.Title)
	f.Set(FieldBody, p.Body)
	return f
}
