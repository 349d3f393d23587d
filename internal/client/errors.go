package client

import "errors"

// Error codes surfaced to callers. The UI layer maps these to translated
// strings, so they double as message keys and must stay stable.
const (
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeTokenRefreshFailed = "TOKEN_REFRESH_FAILED"
	CodeInvalidAccessToken = "INVALID_ACCESS_TOKEN"
	CodeNoAccessToken      = "NO_ACCESS_TOKEN"
	CodeOAuthFailed        = "OAUTH_FAILED"
	CodeRequestFailed      = "API_REQUEST_FAILED"
)

// Error is the single failure type the client surfaces. Callers never see
// raw transport errors; everything is normalized into one of these with a
// human-readable message.
//
// Message priority: backend-supplied "message" field, then transport error
// text, then CodeRequestFailed as a generic fallback.
type Error struct {
	// Code is one of the Code* constants, or "" for plain backend errors
	// where only the message matters.
	Code string

	// Message is what gets shown to the user.
	Message string

	// Status is the HTTP status code, or 0 for transport-level failures.
	Status int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// HasCode reports whether err is a client Error carrying the given code.
func HasCode(err error, code string) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

func codeError(code string, status int) *Error {
	return &Error{Code: code, Message: code, Status: status}
}
