package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/life-stream-dev/apm-demo/internal/calculator"
	"github.com/life-stream-dev/apm-demo/internal/counter"
	"github.com/life-stream-dev/apm-demo/internal/logger"
	"github.com/life-stream-dev/apm-demo/internal/session"
)

type ErrorResponse struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// statusFor maps domain errors onto HTTP statuses and client-facing messages.
func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	case calculator.IsValidationError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrMissingAttribute):
		return http.StatusBadRequest, "Both key and value are required"
	case errors.Is(err, session.ErrAttributeKeyEmpty), errors.Is(err, counter.ErrEmptyName):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusGone, "Session expired, please retry"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.ErrorF("[%s] %s %s failed: %v", requestID(c), c.Request().Method, c.Request().URL.Path, err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, ErrorResponse{Error: message, Timestamp: time.Now()})
	}
	if writeErr != nil {
		logger.WarnF("[%s] Fail to write error response, details: %v", requestID(c), writeErr)
	}
}
