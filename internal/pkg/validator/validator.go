package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"movie-app/internal/apperror"
)

var (
	personNameRe = regexp.MustCompile(`^[\p{L}\s]+$`)
	movieIDRe    = regexp.MustCompile(`^\d+$`)
)

// Validator wraps go-playground validator with the service's custom rules:
//
//	password   at least one lowercase, one uppercase and one digit
//	personname letters and spaces only
//	movieid    decimal catalog id
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		var lower, upper, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return lower && upper && digit
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("movieid", func(fl validator.FieldLevel) bool {
		return movieIDRe.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s and returns an apperror validation error listing every
// failing field, or nil.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.Validation(apperror.FieldError{Field: "body", Message: err.Error()})
	}
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Field: fieldPath(fe), Message: msgForTag(fe)})
	}
	return apperror.Validation(fields...)
}

// fieldPath drops the top-level struct name: "registerRequest.email" -> "email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func msgForTag(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "password":
		return "Password must contain at least one lowercase letter, one uppercase letter, and one number"
	case "personname":
		return "Name can only contain letters and spaces"
	case "movieid":
		if strings.Contains(field, "[") {
			return "Each favorite must be a valid movie ID"
		}
		return "Movie ID must be a valid number"
	default:
		return fmt.Sprintf("%s failed validation for tag: %s", field, fe.Tag())
	}
}
