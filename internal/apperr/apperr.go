// Package apperr defines the operational error taxonomy shared by the
// session service, middleware and handlers. Each error carries an HTTP
// status and a stable client-facing code so that the transport layer can
// map failures to the response envelope without string matching. Anything
// that is not an *apperr.Error is treated as untrusted and rendered as a
// generic 500.
package apperr

import "net/http"

// Error is an expected, client-facing failure. Details is optional and
// holds field-level validation information when present.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// WithDetails returns a copy of e carrying the given details payload.
// The predeclared errors below stay immutable.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy of e with a different message, keeping the
// status and code intact.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

var (
	// ErrValidation covers malformed input; attach field details via WithDetails.
	ErrValidation = New(http.StatusBadRequest, "VALIDATION_ERROR", "invalid request")

	// ErrInvalidCredentials deliberately covers both unknown email and wrong
	// password so the response does not leak account existence.
	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")

	ErrNoToken        = New(http.StatusUnauthorized, "NO_TOKEN", "no authentication token provided")
	ErrTokenExpired   = New(http.StatusUnauthorized, "TOKEN_EXPIRED", "token has expired")
	ErrTokenInvalid   = New(http.StatusUnauthorized, "TOKEN_INVALID", "invalid token")
	ErrTokenRevoked   = New(http.StatusUnauthorized, "TOKEN_REVOKED", "invalid or revoked refresh token")
	ErrWrongTokenType = New(http.StatusUnauthorized, "WRONG_TOKEN_TYPE", "wrong token type")
	ErrUserNotFound   = New(http.StatusUnauthorized, "USER_NOT_FOUND", "user not found")

	ErrForbidden       = New(http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
	ErrAccountInactive = New(http.StatusForbidden, "ACCOUNT_INACTIVE", "user account is inactive")

	ErrNotFound = New(http.StatusNotFound, "NOT_FOUND", "resource not found")

	ErrEmailExists = New(http.StatusConflict, "EMAIL_EXISTS", "user with this email already exists")
	ErrConflict    = New(http.StatusConflict, "CONFLICT", "conflicting state")

	ErrIncorrectPassword = New(http.StatusBadRequest, "INCORRECT_PASSWORD", "current password is incorrect")
	ErrPasswordTooShort  = New(http.StatusBadRequest, "PASSWORD_TOO_SHORT", "password must be at least 6 characters long")
	ErrPasswordSameAsOld = New(http.StatusBadRequest, "PASSWORD_SAME_AS_OLD", "new password must be different from current password")
	ErrSelfModification  = New(http.StatusBadRequest, "SELF_MODIFICATION_NOT_ALLOWED", "you cannot modify your own account")

	ErrInternal = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "an unexpected error occurred")
)
