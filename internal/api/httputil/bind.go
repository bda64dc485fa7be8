package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"movie-app/internal/apperror"
)

// StructValidator is satisfied by *validator.Validator.
type StructValidator interface {
	Struct(s any) error
}

// BindJSON decodes the body into dst and runs the rule table over it. Every
// failure comes back as an apperror validation error.
func BindJSON(c *gin.Context, v StructValidator, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return decodeError(err)
	}
	return v.Struct(dst)
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperror.Validation(apperror.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be of type %s", typeErr.Field, jsonType(typeErr.Type.Kind().String())),
		})
	case errors.Is(err, io.EOF):
		return apperror.Validation(apperror.FieldError{Field: "body", Message: "Request body is required"})
	default:
		return apperror.Validation(apperror.FieldError{Field: "body", Message: "Invalid JSON body"})
	}
}

func jsonType(goKind string) string {
	switch goKind {
	case "slice", "array":
		return "array"
	case "map", "struct":
		return "object"
	case "int", "int64", "float64", "uint":
		return "number"
	default:
		return goKind
	}
}
