// Package httpapi exposes the login flow and portfolio reads over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/kite"
	"github.com/dmitrijs2005/kitekeeper/internal/logging"
	"github.com/dmitrijs2005/kitekeeper/internal/server/config"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
	"github.com/dmitrijs2005/kitekeeper/internal/server/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 5 * time.Second

// Sessions is the login lifecycle as seen by the handlers.
type Sessions interface {
	LoginURL() (string, error)
	VerifyState(state string) error
	CompleteLogin(ctx context.Context, requestToken string) (*models.AccessToken, error)
	Status(ctx context.Context, now time.Time) services.SessionStatus
}

// Portfolio is the read side as seen by the handlers.
type Portfolio interface {
	Profile(ctx context.Context) (*kite.Profile, error)
	Holdings(ctx context.Context) ([]kite.Holding, error)
	Positions(ctx context.Context) (*kite.Positions, error)
	Summary(ctx context.Context) (models.Summary, error)
	Dashboard(ctx context.Context) (*services.Dashboard, error)
}

type HTTPServer struct {
	address     string
	sessions    Sessions
	portfolio   Portfolio
	logger      logging.Logger
	frontendURL string
	echo        *echo.Echo
}

func NewHTTPServer(l logging.Logger, ss Sessions, ps Portfolio, cfg *config.Config) *HTTPServer {
	s := &HTTPServer{
		address:     cfg.EndpointAddrHTTP,
		sessions:    ss,
		portfolio:   ps,
		logger:      l.With("module", "http_server"),
		frontendURL: cfg.FrontendURL,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:    uuid.NewString,
		TargetHeader: common.RequestIDHeaderName,
	}))
	e.Use(s.requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowCredentials: true,
	}))

	s.registerRoutes(e)
	s.echo = e
	return s
}

func (s *HTTPServer) registerRoutes(e *echo.Echo) {
	e.GET("/", s.Index)
	e.GET("/kite-login", s.KiteLogin)
	e.GET("/callback", s.Callback)

	api := e.Group("/api")
	api.GET("/profile", s.Profile)
	api.GET("/holdings", s.Holdings)
	api.GET("/positions", s.Positions)
	api.GET("/summary", s.Summary)
	api.GET("/dashboard", s.Dashboard)
}

// Handler returns the routed handler with all middleware applied.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			args := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				s.logger.Warn(ctx, "request failed", append(args, "error", v.Error)...)
				return nil
			}
			s.logger.Info(ctx, "request", args...)
			return nil
		},
	})
}
