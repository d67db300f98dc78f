package serviceutils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/logger"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	OK      bool        `json:"ok"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func ResponseSuccess(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{
		OK:      true,
		Message: message,
		Data:    data,
	})
}

// ResponseError writes an error envelope. Validation failures carry the rejected field as details.
func ResponseError(c echo.Context, status int, message string, err error) error {
	resp := Response{
		OK:      false,
		Message: message,
		Error:   errorCode(status),
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Details = []*domain.ValidationError{ve}
	} else if err != nil && status < http.StatusInternalServerError {
		resp.Details = err.Error()
	}

	switch {
	case err == nil:
		logger.WarnLog(c.Request().Context(), "%s", message)
	case status >= http.StatusInternalServerError:
		logger.ErrorLog(c.Request().Context(), message, err)
	default:
		logger.WarnLog(c.Request().Context(), "%s: %v", message, err)
	}

	return c.JSON(status, resp)
}

// StatusFromError maps domain sentinels to HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConstraintViolation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "constraint_violation"
	case http.StatusServiceUnavailable:
		return "storage_unavailable"
	default:
		return "server_error"
	}
}
