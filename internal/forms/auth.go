package forms

import (
	"context"

	"github.com/princekumarofficial/challenge-tracker/internal/session"
	"github.com/princekumarofficial/challenge-tracker/internal/utils/validate"
)

// Authenticator is the part of the session store the auth forms drive
type Authenticator interface {
	Login(ctx context.Context, email, password string) session.Result
	Register(ctx context.Context, email, password, firstName, lastName string) session.Result
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterForm struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

var authMessages = map[string]string{
	"email.required":           "Email is required",
	"email.email":              "Enter a valid email address",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 6 characters long",
	"confirmPassword.required": "Confirm your password",
	"confirmPassword.eqfield":  "Passwords do not match",
	"firstName":                "First name is required",
	"lastName":                 "Last name is required",
}

func (f LoginForm) Validate() FieldErrors {
	return validate.Struct(f, authMessages)
}

func (f RegisterForm) Validate() FieldErrors {
	return validate.Struct(f, authMessages)
}

// Submit signs in. Field errors are reported without contacting the server.
func (f LoginForm) Submit(ctx context.Context, auth Authenticator) (session.Result, FieldErrors) {
	if errs := f.Validate(); errs != nil {
		return session.Result{Error: errs.First()}, errs
	}
	return auth.Login(ctx, f.Email, f.Password), nil
}

func (f RegisterForm) Submit(ctx context.Context, auth Authenticator) (session.Result, FieldErrors) {
	if errs := f.Validate(); errs != nil {
		return session.Result{Error: errs.First()}, errs
	}
	return auth.Register(ctx, f.Email, f.Password, f.FirstName, f.LastName), nil
}
