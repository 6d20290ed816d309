package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Response is the uniform failure envelope returned by the API.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OK is the uniform success envelope.
var OK = Response{Success: true}

// ErrorHandler converts domain and echo errors into the response taxonomy.
// Unexpected errors are logged with full context before being reduced to a
// generic failure.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusBadRequest
		code := "UNKNOWN_ERROR"

		var appErr *Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.HTTPStatus()
			code = appErr.Code
			if appErr.Kind == KindUnknown {
				logger.Error().Err(err).
					Str("path", c.Request().URL.Path).
					Str("method", c.Request().Method).
					Msg("unexpected error")
			}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				code = msg
			}
		default:
			logger.Error().Err(err).
				Str("path", c.Request().URL.Path).
				Str("method", c.Request().Method).
				Msg("unexpected error")
		}

		if err := c.JSON(status, Response{Success: false, Error: code}); err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
