// Package apierror provides the error taxonomy shared by services and the
// standardized response envelopes for the API. Business-rule violations are
// reported as kind-tagged errors so callers can branch without string
// matching; clients never see internal details (stack traces, DB errors).
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Kind identifies a business-rule violation class.
type Kind string

const (
	KindNoOpenSession      Kind = "no_open_session"
	KindSessionAlreadyOpen Kind = "session_already_open"
	KindSessionClosed      Kind = "session_closed"
	KindInsufficientStock  Kind = "insufficient_stock"
	KindAlreadyVoided      Kind = "already_voided"
	KindPermissionDenied   Kind = "permission_denied"
	KindNotFound           Kind = "not_found"
	KindValidation         Kind = "validation"
	// KindTransient covers infrastructure failures (lock timeout, storage
	// unavailable, serialization conflict) that the caller may retry.
	KindTransient Kind = "transient"
)

// Error is the structured failure every core operation returns on a
// business-rule violation. The whole transaction is rolled back before one of
// these reaches the caller — there is never a half-applied sale behind it.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Is lets errors.Is match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NoOpenSession() *Error {
	return newf(KindNoOpenSession, "no cash session is open")
}

func SessionAlreadyOpen() *Error {
	return newf(KindSessionAlreadyOpen, "a cash session is already open")
}

func SessionClosed() *Error {
	return newf(KindSessionClosed, "the cash session is closed")
}

func InsufficientStock(productName string, available decimal.Decimal) *Error {
	return newf(KindInsufficientStock, "insufficient stock of %s: %s available",
		productName, available.String())
}

func AlreadyVoided() *Error {
	return newf(KindAlreadyVoided, "the sale is already voided")
}

func PermissionDenied() *Error {
	return newf(KindPermissionDenied, "insufficient privileges")
}

func NotFound(entity, id string) *Error {
	return newf(KindNotFound, "%s %s not found", entity, id)
}

func Validation(field, reason string) *Error {
	return newf(KindValidation, "%s: %s", field, reason)
}

func Transient(err error) *Error {
	return newf(KindTransient, "transient failure: %v", err)
}

// KindOf extracts the Kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps a failure kind onto the response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNoOpenSession, KindSessionAlreadyOpen, KindSessionClosed,
		KindInsufficientStock, KindAlreadyVoided:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// ── Response envelopes ───────────────────────────────────────────────────────

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// From builds the envelope for a service failure, keeping the kind visible to
// API clients.
func From(err error) *APIError {
	return &APIError{Kind: string(KindOf(err)), Detail: err.Error()}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}
