package feed

import "errors"

// Stable error codes for configuration and usage errors. Everything else
// (connectivity, protocol garbage, consumer panics) is absorbed and counted,
// never surfaced to callers.
const (
	CodeInvalidURL      = "invalid_url"
	CodeBadScheme       = "bad_scheme"
	CodeHostNotAllowed  = "host_not_allowed"
	CodeInvalidSymbol   = "invalid_symbol"
	CodeInvalidArgument = "invalid_argument"
)

// Error is a synchronous configuration/usage error with a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func newError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// IsCode reports whether err carries the given stable code.
func IsCode(err error, code string) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Code == code
}
