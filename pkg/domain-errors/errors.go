// Package domainerrors defines the gateway's typed error values and their
// mapping to HTTP statuses. Handlers create errors with New and let
// httputil.WriteError translate them, so the wire-level error codes stay
// consistent across endpoints.
package domainerrors

// Code identifies an error category. The string value is the wire-level
// "error" field returned to clients.
type Code string

const (
	CodeBadRequest              Code = "bad_request"
	CodeValidation              Code = "validation_error"
	CodeUnsupportedAction       Code = "unsupported_action"
	CodeMethodNotAllowed        Code = "method_not_allowed"
	CodeInvalidPassword         Code = "invalid_password"
	CodeSessionRequired         Code = "session_required"
	CodeCredentialNotConfigured Code = "credential_not_configured"
	CodeServiceNotConfigured    Code = "service_not_configured"
	CodeServiceURLInvalid       Code = "service_url_invalid"
	CodeInternal                Code = "internal_error"
)

// Error is a comparable error value so callers can use errors.Is against
// a New(...) sentinel in tests.
type Error struct {
	Code        Code
	Description string
}

// New creates a domain error with the given code and human description.
func New(code Code, description string) Error {
	return Error{Code: code, Description: description}
}

func (e Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Description
}

// ToHTTPStatus maps an error code to the HTTP status it is surfaced with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeUnsupportedAction:
		return 400
	case CodeInvalidPassword, CodeSessionRequired:
		return 401
	case CodeMethodNotAllowed:
		return 405
	case CodeCredentialNotConfigured, CodeServiceNotConfigured, CodeServiceURLInvalid:
		return 503
	default:
		return 500
	}
}
