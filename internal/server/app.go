// Package server wires configuration, storage, the broker client and the
// HTTP API together and runs them until the process is told to stop.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/kitekeeper/internal/cryptox"
	"github.com/dmitrijs2005/kitekeeper/internal/kite"
	"github.com/dmitrijs2005/kitekeeper/internal/logging"
	"github.com/dmitrijs2005/kitekeeper/internal/server/config"
	"github.com/dmitrijs2005/kitekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kitekeeper/internal/server/services"
)

// Services is the assembled business layer shared by the server and the
// operator CLI.
type Services struct {
	Tokens    *services.TokenService
	Sessions  *services.SessionService
	Portfolio *services.PortfolioService

	repos repomanager.RepositoryManager
}

// NewServices opens storage, applies migrations and builds the services.
func NewServices(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Services, error) {
	sealer, err := cryptox.NewSealer(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("token sealer: %w", err)
	}

	repos, err := repomanager.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	kc := kite.New(kite.Config{
		APIKey:     cfg.KiteAPIKey,
		APISecret:  cfg.KiteAPISecret,
		LoginURL:   cfg.KiteLoginURL,
		APIURL:     cfg.KiteAPIURL,
		HTTPClient: &http.Client{Timeout: cfg.UpstreamTimeout},
	})

	ts := services.NewTokenService(repos, sealer, cfg)
	sess := services.NewSessionService(ts, kc, logger, cfg)

	return &Services{
		Tokens:    ts,
		Sessions:  sess,
		Portfolio: services.NewPortfolioService(sess, kc, logger, cfg),
		repos:     repos,
	}, nil
}

// Close releases the storage connection.
func (s *Services) Close() error {
	return s.repos.Close()
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	services *Services
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	svc, err := NewServices(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	if !c.HasKiteCredentials() {
		logger.Warn(ctx, "kite api key or secret not set; login is disabled")
	}

	return &App{config: c, logger: logger, services: svc}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.logger, app.services.Sessions, app.services.Portfolio, app.config)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases storage.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver)

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.services.Close(); err != nil {
		app.logger.Error(ctx, "storage close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
