// Package apperr defines the typed error taxonomy shared by the auth and
// trading services. Handlers map an error's Kind to an HTTP status; services
// construct errors with stable, user-visible messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a failure category.
type Kind string

const (
	KindUnknown               Kind = "unknown"
	KindDuplicateEmail        Kind = "duplicate_email"
	KindWeakPassword          Kind = "weak_password"
	KindInvalidCredentials    Kind = "invalid_credentials"
	KindAccountNotVerified    Kind = "account_not_verified"
	KindInvalidOrExpiredToken Kind = "invalid_or_expired_token"
	KindMissingToken          Kind = "missing_token"
	KindInvalidToken          Kind = "invalid_token"
	KindAccountNotFound       Kind = "account_not_found"
	KindInstrumentNotFound    Kind = "instrument_not_found"
	KindNoSuchHolding         Kind = "no_such_holding"
	KindInsufficientBalance   Kind = "insufficient_balance"
	KindInsufficientQuantity  Kind = "insufficient_quantity"
	KindEmptyRecommendation   Kind = "empty_recommendation"
	KindValidation            Kind = "validation"
)

// Error is a failure with a stable kind and message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by Kind so services can use errors.Is against sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusCode maps an error to the HTTP status the boundary layer should emit.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindWeakPassword, KindMissingToken, KindEmptyRecommendation,
		KindInsufficientQuantity, KindValidation:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindInvalidToken, KindInvalidOrExpiredToken:
		return http.StatusUnauthorized
	case KindInsufficientBalance:
		return http.StatusPaymentRequired
	case KindAccountNotVerified:
		return http.StatusForbidden
	case KindAccountNotFound, KindInstrumentNotFound, KindNoSuchHolding:
		return http.StatusNotFound
	case KindDuplicateEmail:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
