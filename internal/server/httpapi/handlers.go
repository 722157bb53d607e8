package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/server/services"
	"github.com/labstack/echo/v4"
)

type indexResponse struct {
	Service   string                 `json:"service"`
	Endpoints []string               `json:"endpoints"`
	Session   services.SessionStatus `json:"session"`
}

var endpoints = []string{
	"/kite-login",
	"/callback",
	"/api/profile",
	"/api/holdings",
	"/api/positions",
	"/api/summary",
	"/api/dashboard",
}

type callbackFailure struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Index describes the service and the current session.
func (s *HTTPServer) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, indexResponse{
		Service:   common.ServiceName,
		Endpoints: endpoints,
		Session:   s.sessions.Status(c.Request().Context(), time.Now()),
	})
}

// KiteLogin redirects the browser to the broker login page.
func (s *HTTPServer) KiteLogin(c echo.Context) error {
	u, err := s.sessions.LoginURL()
	if err != nil {
		return s.fail(c, err)
	}
	return c.Redirect(http.StatusFound, u)
}

// Callback receives the broker redirect after login, checks the state and
// exchanges the request token.
func (s *HTTPServer) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	// a missing status counts as success
	if status := c.QueryParam("status"); status != "" && status != "success" {
		return c.JSON(http.StatusBadRequest, callbackFailure{Status: "failed"})
	}

	if err := s.sessions.VerifyState(c.QueryParam("state")); err != nil {
		s.logger.Warn(ctx, "callback with invalid state", "error", err)
		return c.JSON(http.StatusBadRequest, callbackFailure{Status: "failed", Error: "invalid state"})
	}

	if _, err := s.sessions.CompleteLogin(ctx, c.QueryParam("request_token")); err != nil {
		if errors.Is(err, common.ErrUpstreamAuth) {
			return c.JSON(http.StatusUnauthorized, callbackFailure{Status: "failed", Error: "login failed"})
		}
		return s.fail(c, err)
	}

	return c.Redirect(http.StatusFound, s.frontendURL)
}

func (s *HTTPServer) Profile(c echo.Context) error {
	p, err := s.portfolio.Profile(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *HTTPServer) Holdings(c echo.Context) error {
	h, err := s.portfolio.Holdings(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, h)
}

func (s *HTTPServer) Positions(c echo.Context) error {
	p, err := s.portfolio.Positions(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *HTTPServer) Summary(c echo.Context) error {
	sum, err := s.portfolio.Summary(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// Dashboard sends unauthenticated browsers to the login flow.
func (s *HTTPServer) Dashboard(c echo.Context) error {
	d, err := s.portfolio.Dashboard(c.Request().Context())
	if err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			return c.Redirect(http.StatusFound, "/kite-login")
		}
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
