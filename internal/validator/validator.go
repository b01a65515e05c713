// Package validator wraps go-playground/validator for request DTOs and
// plugs it into echo so handlers can call c.Validate.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the project's custom rules registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", notBlank)
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Message converts a validator error into a readable message.
func Message(err validator.FieldError) string {
	switch err.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if err.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters long", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		if err.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters long", err.Param())
		}
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", err.Param())
	default:
		return "is invalid"
	}
}

// Echo adapts a *validator.Validate to echo.Validator.
type Echo struct {
	V *validator.Validate
}

// NewEcho returns an echo.Validator backed by New().
func NewEcho() *Echo { return &Echo{V: New()} }

// Validate implements echo.Validator.
func (e *Echo) Validate(i any) error {
	return e.V.Struct(i)
}

// Describe flattens a validation error into "field message" pairs joined by
// "; ".  Non-validation errors are returned as their Error() text.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, jsonName(fe)+" "+Message(fe))
	}
	return strings.Join(parts, "; ")
}

// jsonName lower-cases the first rune of the struct field so messages use the
// API's camelCase names.
func jsonName(fe validator.FieldError) string {
	f := fe.Field()
	if f == "" {
		return f
	}
	return strings.ToLower(f[:1]) + f[1:]
}
