// Package validate runs struct-tag validation and turns the result into
// field-scoped, human-readable messages keyed by JSON field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldErrors maps a field name to the message shown next to it
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(field + ": " + f[field])
	}
	return b.String()
}

// First returns the message of the alphabetically first field, for
// surfaces that can show only one line
func (f FieldErrors) First() string {
	if len(f) == 0 {
		return ""
	}
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return f[fields[0]]
}

// Struct validates s. Messages can be overridden per "field" or per
// "field.tag". The result is nil when s is valid.
func Struct(s interface{}, overrides map[string]string) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return FieldErrors{"_": err.Error()}
	}

	out := make(FieldErrors, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		if msg, ok := overrides[field+"."+fe.Tag()]; ok {
			out[field] = msg
		} else if msg, ok := overrides[field]; ok {
			out[field] = msg
		} else {
			out[field] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "gtfield":
		return "must be after " + fe.Param()
	case "gtefield":
		return "must not be less than " + fe.Param()
	case "eqfield":
		return "must match " + fe.Param()
	case "nefield":
		return "must differ from " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
