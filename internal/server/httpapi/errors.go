package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a service error to the HTTP status shown to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrUpstreamAuth):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage keeps internal detail out of response bodies.
func publicMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "not authenticated"
	case http.StatusBadGateway:
		return "upstream request failed"
	case http.StatusBadRequest:
		return "bad request"
	default:
		return "internal error"
	}
}

func (s *HTTPServer) fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request error", "path", c.Path(), "error", err)
	}
	return c.JSON(status, errorResponse{Error: publicMessage(status)})
}
