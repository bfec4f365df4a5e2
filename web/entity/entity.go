// Package entity defines the form payloads and response messages of the nasweb web layer.
package entity

import (
	"strings"

	"github.com/spu-nas/nasweb/util/crypto"
)

// Msg represents a JSON response with success status, message text and optional data.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// FieldError names an invalid form field and the message key describing it.
type FieldError struct {
	Field string `json:"field"`
	Key   string `json:"key"`
}

// Message keys used by form validation.
const (
	KeyFirstNameRequired = "errors.firstNameRequired"
	KeyLastNameRequired  = "errors.lastNameRequired"
	KeyEmailRequired     = "errors.emailRequired"
	KeyPasswordMismatch  = "errors.passwordMismatch"
	KeyPasswordTooShort  = "errors.passwordTooShort"
	KeyPasswordTooLong   = "errors.passwordTooLong"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 4

// SubscriberForm is the contact form, also used by the admin edit form.
type SubscriberForm struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Email     string `json:"email" form:"email"`
}

// Validate reports every empty field, in form order.
func (f *SubscriberForm) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(f.FirstName) == "" {
		errs = append(errs, FieldError{Field: "firstName", Key: KeyFirstNameRequired})
	}
	if strings.TrimSpace(f.LastName) == "" {
		errs = append(errs, FieldError{Field: "lastName", Key: KeyLastNameRequired})
	}
	if strings.TrimSpace(f.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Key: KeyEmailRequired})
	}
	return errs
}

// RegisterForm is the user registration form.
type RegisterForm struct {
	Name      string `json:"name" form:"name"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	Password2 string `json:"password2" form:"password2"`
}

// Validate checks the password confirmation and the length limits. The upper
// limit is in bytes, as hashed.
func (f *RegisterForm) Validate() []FieldError {
	var errs []FieldError
	if f.Password != f.Password2 {
		errs = append(errs, FieldError{Field: "password2", Key: KeyPasswordMismatch})
	}
	if len(f.Password) < MinPasswordLength {
		errs = append(errs, FieldError{Field: "password", Key: KeyPasswordTooShort})
	} else if len(f.Password) > crypto.MaxPasswordBytes {
		errs = append(errs, FieldError{Field: "password", Key: KeyPasswordTooLong})
	}
	return errs
}

// LoginForm is the login request.
type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}
