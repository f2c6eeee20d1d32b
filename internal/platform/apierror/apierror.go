// Package apierror defines the error taxonomy shared by all domain services
// and the echo error handler that renders it. Every failure carries a
// machine-stable reason code, a human-readable message, and the HTTP status
// it maps to; nothing else leaks to the client.
package apierror

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Reason codes returned in the "code" field of error responses.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeValidation      = "validation"
	CodeConflict        = "conflict"
	CodeUnexpected      = "unexpected"
)

// Error is a tagged API error. Services return *Error for every failure they
// can classify; anything else is rendered as CodeUnexpected.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string { return e.Message }

func Unauthenticated(msg string) *Error {
	return &Error{Code: CodeUnauthenticated, Message: msg, Status: http.StatusUnauthorized}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg, Status: http.StatusForbidden}
}

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg, Status: http.StatusNotFound}
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Status: http.StatusBadRequest}
}

// UnsupportedMedia is a validation error that maps to 415 rather than 400.
func UnsupportedMedia(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Status: http.StatusUnsupportedMediaType}
}

func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg, Status: http.StatusConflict}
}

func Unexpected(msg string) *Error {
	return &Error{Code: CodeUnexpected, Message: msg, Status: http.StatusInternalServerError}
}

// CodeOf returns the reason code of err, or CodeUnexpected when err is not an
// *Error.
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeUnexpected
}

// Handler returns an echo HTTPErrorHandler that renders *Error values and
// echo.HTTPError instances as the standard error envelope. Unclassified
// errors are logged and reported as an opaque 500.
func Handler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *Error
		if !errors.As(err, &apiErr) {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				apiErr = fromHTTPError(httpErr)
			} else {
				logger.Error().Err(err).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Msg("unhandled error")
				apiErr = Unexpected("internal server error")
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(apiErr.Status)
			return
		}
		_ = c.JSON(apiErr.Status, apiErr)
	}
}

func fromHTTPError(he *echo.HTTPError) *Error {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok {
		msg = s
	}
	switch he.Code {
	case http.StatusUnauthorized:
		return Unauthenticated(msg)
	case http.StatusForbidden:
		return Forbidden(msg)
	case http.StatusNotFound:
		return NotFound(msg)
	case http.StatusBadRequest:
		return Validation(msg)
	case http.StatusUnsupportedMediaType:
		return UnsupportedMedia(msg)
	case http.StatusConflict:
		return Conflict(msg)
	default:
		return &Error{Code: CodeUnexpected, Message: msg, Status: he.Code}
	}
}
