package forms

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Required fails on blank values.
func Required(msg string) Validator {
	return func(_ Values, value string) (bool, string) {
		if strings.TrimSpace(value) == "" {
			return false, msg
		}
		return true, ""
	}
}

// Email fails when value is not a single well-formed address.
func Email(msg string) Validator {
	return func(_ Values, value string) (bool, string) {
		if err := validate.Var(value, "required,email"); err != nil {
			return false, msg
		}
		return true, ""
	}
}

// MinLength fails when value has fewer than n characters.
func MinLength(n int, msg string) Validator {
	return func(_ Values, value string) (bool, string) {
		if utf8.RuneCountInString(value) < n {
			return false, msg
		}
		return true, ""
	}
}

// EqualTo fails when value differs from the value of the other field.
func EqualTo(other, msg string) Validator {
	return func(values Values, value string) (bool, string) {
		if values[other] != value {
			return false, msg
		}
		return true, ""
	}
}

// FileAllowed fails when a filename is present and its extension is not one of exts.
// An empty value (no upload) passes.
func FileAllowed(exts []string, msg string) Validator {
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = struct{}{}
	}
	return func(_ Values, value string) (bool, string) {
		if value == "" {
			return true, ""
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(value), "."))
		if _, ok := allowed[ext]; !ok {
			return false, msg
		}
		return true, ""
	}
}

// MaxLength fails when value has more than n characters.
func MaxLength(n int) Validator {
	msg := fmt.Sprintf("O campo deve ter no máximo %d caracteres", n)
	return func(_ Values, value string) (bool, string) {
		if utf8.RuneCountInString(value) > n {
			return false, msg
		}
		return true, ""
	}
}
