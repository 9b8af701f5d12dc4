// Package form validates and holds the dashboard login form.
package form

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Field names a login form input.
type Field string

const (
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
)

// MinPasswordLength is the shortest password the form accepts.
const MinPasswordLength = 6

const (
	emailRequired    = "Email is required"
	emailInvalid     = "Please enter a valid email address"
	passwordRequired = "Password is required"
	passwordTooShort = "Password must be at least 6 characters"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Values are the raw form inputs.
type Values struct {
	Email    string
	Password string
}

// Errors maps a field to its message. An empty map means valid.
type Errors map[Field]string

// NormalizeEmail folds compatibility characters (full-width letters, ligatures)
// so the identifier matches what the user meant to type.
func NormalizeEmail(email string) string {
	return norm.NFKC.String(email)
}

// Validate checks v and returns one message per failing field.
func Validate(v Values) Errors {
	errs := Errors{}

	email := NormalizeEmail(v.Email)
	switch {
	case strings.TrimSpace(email) == "":
		errs[FieldEmail] = emailRequired
	case !emailPattern.MatchString(email):
		errs[FieldEmail] = emailInvalid
	}

	switch {
	case strings.TrimSpace(v.Password) == "":
		errs[FieldPassword] = passwordRequired
	case utf8.RuneCountInString(v.Password) < MinPasswordLength:
		errs[FieldPassword] = passwordTooShort
	}
	return errs
}

// LoginFunc performs the login and reports success.
type LoginFunc func(ctx context.Context, email, password string) bool

// Form keeps entered values across failed submissions. Changing a field
// clears that field's error. A Form is not safe for concurrent use.
type Form struct {
	values Values
	errors Errors
}

func New() *Form {
	return &Form{errors: Errors{}}
}

// Set updates one field and clears its error.
func (f *Form) Set(field Field, value string) {
	switch field {
	case FieldEmail:
		f.values.Email = value
	case FieldPassword:
		f.values.Password = value
	default:
		return
	}
	delete(f.errors, field)
}

func (f *Form) Values() Values {
	return f.values
}

// Errors returns a copy of the current field errors.
func (f *Form) Errors() Errors {
	out := make(Errors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

func (f *Form) Error(field Field) string {
	return f.errors[field]
}

// Validate replaces the field errors and reports whether the form is valid.
func (f *Form) Validate() bool {
	f.errors = Validate(f.values)
	return len(f.errors) == 0
}

// Submit validates and, when valid, calls login with the normalized email.
// Entered values are kept whatever the outcome.
func (f *Form) Submit(ctx context.Context, login LoginFunc) bool {
	if !f.Validate() || login == nil {
		return false
	}
	return login(ctx, NormalizeEmail(f.values.Email), f.values.Password)
}
