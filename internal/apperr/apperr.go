package apperr

import (
	"errors"
	"fmt"
)

// Code classifies a domain error so the HTTP layer can map it to a status.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeDataExists   Code = "DATA_EXISTS"
	CodeInvalidData  Code = "INVALID_DATA"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
)

// Error is a typed domain failure. It propagates unmodified from the service
// layer to the handlers, which translate the code into a transport status.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func DataExists(format string, args ...any) *Error {
	return &Error{Code: CodeDataExists, Message: fmt.Sprintf(format, args...)}
}

func InvalidData(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidData, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the taxonomy code from err, reporting whether err is a
// domain error at all.
func CodeOf(err error) (Code, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}
