package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/frahmantamala/portal-admin/internal"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator. Field names in errors follow the
// json tag so they match what clients sent.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return IsSlug(fl.Field().String())
		})
		_ = validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "admin", "editor", "usuario":
				return true
			}
			return false
		})
	})
	return validate
}

func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Struct validates v and returns one ValidationError per failed field.
// prefix is prepended to field paths, e.g. "permissions[2]".
func Struct(v interface{}, prefix string) []apperrors.ValidationError {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []apperrors.ValidationError{{Field: prefix, Message: err.Error(), Code: string(apperrors.ErrCodeValidationFailed)}}
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if prefix != "" {
			field = prefix + "." + field
		}
		out = append(out, apperrors.ValidationError{
			Field:   field,
			Message: message(field, fe),
			Code:    string(apperrors.ErrCodeValidationFailed),
		})
	}
	return out
}

// Validate wraps Struct into a single AppError, or nil.
func Validate(v interface{}) *apperrors.AppError {
	details := Struct(v, "")
	if len(details) == 0 {
		return nil
	}
	return apperrors.NewValidationError("Validation failed", apperrors.ErrCodeValidationFailed).
		WithDetails(apperrors.ValidationErrors{Errors: details})
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "slug":
		return fmt.Sprintf("%s must be lowercase letters and digits separated by single underscores", field)
	case "role":
		return fmt.Sprintf("%s must be one of admin, editor, usuario", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
