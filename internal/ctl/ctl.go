// Package ctl implements the kitectl operator commands: a headless login,
// the current token status and the portfolio summary.
package ctl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/logging"
	"github.com/dmitrijs2005/kitekeeper/internal/server"
	"github.com/dmitrijs2005/kitekeeper/internal/server/config"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
	"github.com/google/subcommands"
)

// Sessions is the login lifecycle used by the commands.
type Sessions interface {
	LoginURL() (string, error)
	VerifyState(state string) error
	CompleteLogin(ctx context.Context, requestToken string) (*models.AccessToken, error)
	CurrentToken(ctx context.Context, now time.Time) (*models.AccessToken, bool, error)
}

// Portfolio is the read side used by the commands.
type Portfolio interface {
	Summary(ctx context.Context) (models.Summary, error)
}

// Backend is what a command runs against. Close releases storage.
type Backend struct {
	Sessions  Sessions
	Portfolio Portfolio
	Close     func() error
}

// Opener builds a Backend from the config file at path.
type Opener func(ctx context.Context, path string) (*Backend, error)

// Env carries the streams and backend factory shared by all commands.
type Env struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// ConfigPath is read at execution time, after flags are parsed.
	ConfigPath *string
	Open       Opener
	Now        func() time.Time
}

// Commands returns every kitectl subcommand bound to env.
func Commands(env *Env) []subcommands.Command {
	return []subcommands.Command{
		&loginCmd{env: env},
		&tokenCmd{env: env},
		&summaryCmd{env: env},
	}
}

// OpenServices loads config from path and the environment and assembles
// the same services the server runs. Logs go to stderr.
func OpenServices(ctx context.Context, path string) (*Backend, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, stderr)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	svc, err := server.NewServices(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Backend{Sessions: svc.Sessions, Portfolio: svc.Portfolio, Close: svc.Close}, nil
}

// withBackend opens the backend, runs fn and closes it. Errors are printed
// to env.Err and turned into ExitFailure.
func (env *Env) withBackend(ctx context.Context, fn func(b *Backend) error) subcommands.ExitStatus {
	path := ""
	if env.ConfigPath != nil {
		path = *env.ConfigPath
	}

	b, err := env.Open(ctx, path)
	if err != nil {
		fmt.Fprintln(env.Err, "Error:", err)
		return subcommands.ExitFailure
	}
	defer func() {
		if b.Close != nil {
			_ = b.Close()
		}
	}()

	if err := fn(b); err != nil {
		fmt.Fprintln(env.Err, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (env *Env) now() time.Time {
	if env.Now != nil {
		return env.Now()
	}
	return time.Now()
}
