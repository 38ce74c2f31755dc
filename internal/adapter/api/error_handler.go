package api

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"skipped/pkg/errors"
	"skipped/pkg/response"
)

// HTTPErrorHandler renders errors that escape handlers, mostly echo's own
// (unknown route, wrong method, body too large), in the standard envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if stderrors.As(err, &httpErr) {
		err = fromHTTPError(httpErr)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(statusOf(err))
		return
	}
	_ = response.Error(c, err)
}

func fromHTTPError(httpErr *echo.HTTPError) error {
	message := http.StatusText(httpErr.Code)
	if m, ok := httpErr.Message.(string); ok && m != "" {
		message = m
	}

	switch httpErr.Code {
	case http.StatusBadRequest:
		return errors.BadRequest(message, httpErr.Internal)
	case http.StatusUnauthorized:
		return errors.Unauthorized(message, httpErr.Internal)
	case http.StatusForbidden:
		return errors.Forbidden(message, httpErr.Internal)
	case http.StatusNotFound:
		return errors.New(errors.CodeNotFound, message, http.StatusNotFound, httpErr.Internal)
	case http.StatusTooManyRequests:
		return errors.TooManyRequests(message)
	case http.StatusInternalServerError:
		return errors.Internal(message, httpErr.Internal)
	default:
		return errors.New(codeFor(httpErr.Code), message, httpErr.Code, httpErr.Internal)
	}
}

func codeFor(status int) string {
	switch {
	case status == http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case status == http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case status == http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case status >= 500:
		return errors.CodeInternal
	default:
		return errors.CodeBadRequest
	}
}

func statusOf(err error) int {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
