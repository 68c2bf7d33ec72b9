// Package validation checks user-entered forms before anything is sent to the
// server. Each form is a struct carrying validator tags; a failed check yields
// Errors, a mapping from the form's field name to the message of the first rule
// the field violated.
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a field name to a human-readable message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation error: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(e[f])
	}

	return b.String()
}

// Field returns the message for field, or "" when the field is valid.
func (e Errors) Field(field string) string {
	return e[field]
}

// LinkForm is the add and edit link form. An empty Slug means "let the server pick one".
type LinkForm struct {
	URL  string `json:"url" validate:"required,url"`
	Slug string `json:"slug" validate:"omitempty,min=4"`
}

// LoginForm is the login form.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm is the account registration form.
type RegisterForm struct {
	Fullname        string `json:"fullname" validate:"required,min=3"`
	Username        string `json:"username" validate:"required,min=4"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// messages is keyed by the validator namespace, optionally suffixed with the
// failed tag when a field reports different messages per rule.
var messages = map[string]string{
	"LinkForm.url":  "URL is required and must be a proper URL",
	"LinkForm.slug": "Custom ID must be 4 or more characters long",

	"LoginForm.username": "Username is required",
	"LoginForm.password": "Password is required",

	"RegisterForm.fullname":                "Name is required and must be 3 or more characters long",
	"RegisterForm.username":                "Username is required and must be 4 or more characters long",
	"RegisterForm.password":                "Password is required and must be 6 or more characters long",
	"RegisterForm.confirmPassword":         "Confirm password is required and must matches with password",
	"RegisterForm.confirmPassword.eqfield": "Password and Confirm Password don't match",
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// ValidateLink validates the add and edit link form.
func ValidateLink(f LinkForm) error {
	return check(f)
}

// ValidateLogin validates the login form.
func ValidateLogin(f LoginForm) error {
	return check(f)
}

// ValidateRegister validates the registration form. A password mismatch is
// always reported on confirmPassword.
func ValidateRegister(f RegisterForm) error {
	return check(f)
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make(Errors, len(verrs))
	for _, e := range verrs {
		if _, ok := errs[e.Field()]; ok {
			continue
		}
		errs[e.Field()] = messageFor(e)
	}

	return errs
}

func messageFor(e validator.FieldError) string {
	if msg, ok := messages[e.Namespace()+"."+e.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[e.Namespace()]; ok {
		return msg
	}

	switch e.Tag() {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	case "min":
		return "Must be at least " + e.Param() + " characters long."
	default:
		return "Invalid value."
	}
}
