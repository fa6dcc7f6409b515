// Package validation validates decoded request models with
// go-playground/validator and reports failures as a flat list of field
// errors keyed by JSON path (for example "notifications.email" or "tags[0]").
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Errors is the list of every constraint a value failed.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the failing field paths in order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Field)
	}
	return out
}

// ValueError builds a single-field error for checks that span several fields.
func ValueError(field, message string) FieldError {
	return FieldError{Field: field, Message: message, Type: "value_error"}
}

// CrossFieldValidator is implemented by models with rules that span fields,
// such as a password confirmation. It runs after tag validation and its
// errors are appended to the tag errors.
type CrossFieldValidator interface {
	Validate() Errors
}

// Validator wraps a configured *validator.Validate.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with JSON field naming and the Folio rules
// (password, username, slug, phone, mimetype, uuid4ish, httpurl, accepted,
// future) registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "schema", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	registerRules(v)
	return &Validator{v: v}
}

// Struct validates s. It returns nil or an Errors value.
func (val *Validator) Struct(s any) error {
	var out Errors

	if err := val.v.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validation: %w", err)
		}
		for _, fe := range verrs {
			out = append(out, FieldError{
				Field:   fieldPath(fe),
				Message: message(fe),
				Type:    fe.Tag(),
			})
		}
	}

	if cv, ok := s.(CrossFieldValidator); ok {
		out = append(out, cv.Validate()...)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// Var validates a single value against a tag string, reporting it under field.
func (val *Validator) Var(field string, value any, tag string) error {
	if err := val.v.Var(value, tag); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validation: %w", err)
		}
		out := make(Errors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: field, Message: message(fe), Type: fe.Tag()})
		}
		return out
	}
	return nil
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	kind := fe.Kind()
	isCollection := kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map
	isString := kind == reflect.String

	switch fe.Tag() {
	case "required":
		return "field required"
	case "min", "gte":
		switch {
		case isString:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		case isCollection:
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return "must be greater than or equal to " + fe.Param()
	case "max", "lte":
		switch {
		case isString:
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		case isCollection:
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return "must be less than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "len":
		if isString {
			return fmt.Sprintf("must be exactly %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain exactly %s items", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "value is not a valid email address"
	case "password":
		return PasswordRuleMessage
	case "username":
		return "Username must be 3-30 characters (letters, numbers and underscores)"
	case "slug":
		return "must contain only lowercase letters, numbers and single hyphens"
	case "phone":
		return "must be a valid E.164 phone number"
	case "mimetype":
		return "must be a valid MIME type"
	case "uuid", "uuid4", "uuid4ish":
		return "must be a valid UUID"
	case "httpurl", "url":
		return "must be a valid http or https URL"
	case "accepted":
		return "You must accept the terms and conditions"
	case "future":
		return "must be in the future"
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}
