// Package apperror defines the error taxonomy shared by services and handlers.
// Services return *AppError (possibly wrapped); handlers translate the Kind into
// an HTTP status at the boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindUnauthorized      Kind = "unauthorized"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindPaymentIncomplete Kind = "payment_incomplete"
	KindUpstream          Kind = "upstream"
	KindInternal          Kind = "internal"
)

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError of the same Kind, so errors.Is(err, apperror.ErrNotFound) works
// through wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &AppError{Kind: KindValidation}
	ErrUnauthorized      = &AppError{Kind: KindUnauthorized}
	ErrNotFound          = &AppError{Kind: KindNotFound}
	ErrConflict          = &AppError{Kind: KindConflict}
	ErrPaymentIncomplete = &AppError{Kind: KindPaymentIncomplete}
	ErrUpstream          = &AppError{Kind: KindUpstream}
	ErrInternal          = &AppError{Kind: KindInternal}
)

func Validation(fields ...FieldError) *AppError {
	return &AppError{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// InvalidCredentials is the single message used for every login failure.
func InvalidCredentials() *AppError {
	return &AppError{Kind: KindUnauthorized, Message: "Invalid credentials"}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func PaymentIncomplete() *AppError {
	return &AppError{Kind: KindPaymentIncomplete, Message: "Payment not completed"}
}

func Upstream(message string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Message: message, Err: err}
}

func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the Kind of the first *AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a Kind to its response status.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation, KindPaymentIncomplete:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what a client may see for err. Upstream and internal
// failures never leak their detail.
func PublicMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return "Internal server error"
	}
	switch appErr.Kind {
	case KindUpstream, KindInternal:
		return "Internal server error"
	}
	return appErr.Message
}
