package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/tonebank/internal/catalog"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// statusFor maps error categories to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrMapUnavailable), errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes an ErrorResponse and logs server-side failures
func (s *Server) handleError(c echo.Context, err error, message string, code int) error {
	resp := &ErrorResponse{
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Error = message
	}

	if code >= http.StatusInternalServerError {
		s.log.WithContext(c.Request().Context()).Error(message,
			logger.String("correlation_id", resp.CorrelationID),
			logger.String("path", c.Request().URL.Path),
			logger.Error(err))
	}

	return c.JSON(code, resp)
}
