package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler renders every error reaching echo as a JSON {msg} body.
// Server errors are logged with their detail and answered generically.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := ErrorResponse{Msg: "Server Error", Code: "INTERNAL_ERROR"}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch m := he.Message.(type) {
			case ErrorResponse:
				body = m
			case *ErrorResponse:
				body = *m
			case string:
				body = ErrorResponse{Msg: m}
			default:
				body = ErrorResponse{Msg: fmt.Sprint(m)}
			}
			if he.Internal != nil {
				err = he.Internal
			}
		} else {
			mapped := MapErrorToHTTP(err)
			status = mapped.StatusCode
			body = mapped.ToErrorResponse()
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"error", err,
			)
			body = ErrorResponse{Msg: "Server Error", Code: body.Code}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error("write error response", "error", writeErr)
		}
	}
}
