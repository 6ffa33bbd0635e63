// Package forms declares HTML forms as ordered field lists with pure validators
// and binds submitted requests to them.
package forms

import (
	"mime/multipart"
	"net/http"
	"strings"
)

// maxMemory bounds the in-memory part of multipart parsing; larger files spill to disk.
const maxMemory = 10 << 20

// MaxBodyBytes bounds a submitted form, uploads included.
const MaxBodyBytes = 8 << 20

// FieldType is the kind of input a field renders and binds.
type FieldType int

const (
	Text FieldType = iota
	Password
	TextArea
	Checkbox
	File
)

// InputType returns the HTML input type rendered for t.
func (t FieldType) InputType() string {
	switch t {
	case Password:
		return "password"
	case TextArea:
		return "textarea"
	case Checkbox:
		return "checkbox"
	case File:
		return "file"
	}
	return "text"
}

// checkedValue is the normalized value of a ticked checkbox.
const checkedValue = "y"

// Values holds submitted field values keyed by field name.
type Values map[string]string

// Validator checks one field value. It returns false and a message on failure.
// Validators must be pure: the outcome depends only on their arguments.
type Validator func(values Values, value string) (bool, string)

// Field declares one form input.
type Field struct {
	Name       string
	Label      string
	Type       FieldType
	Validators []Validator
}

// Definition is the ordered field list of a form.
type Definition struct {
	Name   string
	Fields []Field
}

// Field returns the field declared under name.
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Form is a definition bound to submitted or prefilled values.
type Form struct {
	Def    *Definition
	Values Values
	Files  map[string]*multipart.FileHeader
	Errors map[string][]string
}

// New returns an empty form for d.
func New(d *Definition) *Form {
	return &Form{
		Def:    d,
		Values: Values{},
		Files:  map[string]*multipart.FileHeader{},
		Errors: map[string][]string{},
	}
}

// Bind parses r and copies every declared field into a new form.
// File fields hold the uploaded filename as their value.
func Bind(d *Definition, r *http.Request) (*Form, error) {
	if r.Form == nil {
		r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}

	f := New(d)
	for _, field := range d.Fields {
		switch field.Type {
		case Checkbox:
			if isChecked(r.PostForm.Get(field.Name)) {
				f.Values[field.Name] = checkedValue
			}
		case File:
			if r.MultipartForm == nil {
				continue
			}
			if fhs := r.MultipartForm.File[field.Name]; len(fhs) > 0 && fhs[0].Filename != "" {
				f.Files[field.Name] = fhs[0]
				f.Values[field.Name] = fhs[0].Filename
			}
		case Password:
			f.Values[field.Name] = r.PostForm.Get(field.Name)
		default:
			f.Values[field.Name] = strings.TrimSpace(r.PostForm.Get(field.Name))
		}
	}
	return f, nil
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "", "false", "0", "off", "n":
		return false
	}
	return true
}

// Validate runs each field's validators in declaration order and records the
// first failure per field. It reports whether the form has no errors.
func (f *Form) Validate() bool {
	for _, field := range f.Def.Fields {
		value := f.Values[field.Name]
		for _, v := range field.Validators {
			if ok, msg := v(f.Values, value); !ok {
				f.AddError(field.Name, msg)
				break
			}
		}
	}
	return f.Valid()
}

// Valid reports whether no errors were recorded.
func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

// AddError records msg against field.
func (f *Form) AddError(field, msg string) {
	f.Errors[field] = append(f.Errors[field], msg)
}

// Get returns the value of field.
func (f *Form) Get(field string) string {
	return f.Values[field]
}

// Set stores a value for field.
func (f *Form) Set(field, value string) {
	f.Values[field] = value
}

// Checked reports whether the checkbox field is ticked.
func (f *Form) Checked(field string) bool {
	return f.Values[field] == checkedValue
}

// SetChecked ticks or clears the checkbox field.
func (f *Form) SetChecked(field string, checked bool) {
	if checked {
		f.Values[field] = checkedValue
		return
	}
	delete(f.Values, field)
}

// File returns the uploaded file of field, or nil when none was sent.
func (f *Form) File(field string) *multipart.FileHeader {
	return f.Files[field]
}

// FieldErrors returns the messages recorded for field.
func (f *Form) FieldErrors(field string) []string {
	return f.Errors[field]
}
