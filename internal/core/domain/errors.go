// Package domain defines the core domain models for minipay.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the taxonomy class of an error surfaced to callers.
// Callers branch on the kind, never on raw HTTP status codes.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindAuthentication        Kind = "authentication"
	KindAuthorizationRequired Kind = "authorization_required"
	KindNotFound              Kind = "not_found"
	KindServer                Kind = "server"
	KindNetwork               Kind = "network"
	KindUnexpected            Kind = "unexpected"
)

// Error is a classified client error with a structured error code.
//
// Two errors are considered equal by errors.Is when their kinds match, so
// errors.Is(err, ErrAuthentication) holds for both rejected logins and
// expired sessions. Use IsCode to tell the specific reasons apart.
type Error struct {
	Kind    Kind    // Taxonomy class
	Code    string  // Error code (e.g., "MP-AUTH-4011")
	Message string  // Human-readable message (English, for logs)
	Status  int     // HTTP status that produced the error, 0 for client-side errors
	Payload Payload // Field/general messages from the backend or a local check
	Cause   error   // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if details := e.Payload.Flatten(); len(details) > 0 {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, strings.Join(details, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support by comparing kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a new Error with the given kind, code and message.
func NewError(kind Kind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

func (e *Error) clone() *Error {
	c := *e
	return &c
}

// WithStatus returns a copy of the error carrying the HTTP status.
func (e *Error) WithStatus(status int) *Error {
	c := e.clone()
	c.Status = status
	return c
}

// WithPayload returns a copy of the error carrying the given payload.
func (e *Error) WithPayload(p Payload) *Error {
	c := e.clone()
	c.Payload = p
	return c
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	c := e.clone()
	c.Cause = cause
	return c
}

// Wrap wraps an error with this error as the cause.
func (e *Error) Wrap(cause error) *Error {
	return e.WithCause(cause)
}

// KindOf extracts the taxonomy kind from an error chain.
// Errors outside the taxonomy report KindUnexpected; nil reports "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// CodeOf extracts the error code from an error chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// FromStatus classifies a non-success response the caller did not handle
// itself. 401 and 403 mean different things per operation and are left to
// the caller; here they fall into KindUnexpected.
func FromStatus(status int, body []byte) *Error {
	p := ParsePayload(body)
	switch {
	case status == http.StatusBadRequest:
		return ErrBackendValidation.WithStatus(status).WithPayload(p)
	case status == http.StatusNotFound:
		return ErrNotFound.WithStatus(status)
	case status >= http.StatusInternalServerError:
		return ErrServer.WithStatus(status).WithPayload(p)
	default:
		return ErrUnexpected.WithStatus(status).WithPayload(p)
	}
}

// ============================================================================
// Kind sentinels
// ============================================================================

var (
	// ErrValidation indicates a client-side pre-check failed. No request was sent.
	ErrValidation = NewError(KindValidation, "MP-VAL-4000", "validation failed")

	// ErrAuthentication is the kind sentinel for credential and session rejections.
	ErrAuthentication = NewError(KindAuthentication, "MP-AUTH-4000", "authentication failed")

	// ErrAuthorizationRequired indicates a protected call was attempted without a stored credential.
	ErrAuthorizationRequired = NewError(KindAuthorizationRequired, "MP-AUTH-4012", "no active session")

	// ErrNotFound indicates the backend answered 404.
	ErrNotFound = NewError(KindNotFound, "MP-SYS-4040", "resource not found")

	// ErrServer indicates the backend answered 5xx.
	ErrServer = NewError(KindServer, "MP-SYS-5000", "server error")

	// ErrNetwork indicates the request never produced an HTTP response.
	ErrNetwork = NewError(KindNetwork, "MP-NET-0001", "network error")

	// ErrUnexpected indicates a response outside the documented contract.
	ErrUnexpected = NewError(KindUnexpected, "MP-SYS-0000", "unexpected response")
)

// ============================================================================
// Specific reasons
// ============================================================================

var (
	// ErrBackendValidation indicates the backend rejected the request with 400.
	ErrBackendValidation = NewError(KindValidation, "MP-VAL-4001", "request rejected by backend validation")

	// ErrInvalidCredentials indicates the token endpoint rejected the credentials.
	ErrInvalidCredentials = NewError(KindAuthentication, "MP-AUTH-4010", "invalid credentials")

	// ErrSessionExpired indicates a protected call was rejected; the session was cleared.
	ErrSessionExpired = NewError(KindAuthentication, "MP-AUTH-4011", "session expired or invalid")

	// ErrForbidden indicates a public call was rejected with 401/403. It never clears the session.
	ErrForbidden = NewError(KindAuthentication, "MP-AUTH-4030", "not authorized to perform this action")

	// ErrMalformedResponse indicates a 2xx response whose body could not be decoded.
	ErrMalformedResponse = NewError(KindUnexpected, "MP-SYS-0001", "malformed response body")
)
