package ctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/google/subcommands"
)

type loginCmd struct {
	env *Env
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in to Kite and store a fresh access token" }
func (*loginCmd) Usage() string {
	return `kitectl [-c config.json] login

  Prints the Kite login URL. Open it in a browser, log in, then paste the
  URL you were redirected to (or just its request_token) at the prompt.
`
}

func (*loginCmd) SetFlags(*flag.FlagSet) {}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env := c.env
	return env.withBackend(ctx, func(b *Backend) error {
		u, err := b.Sessions.LoginURL()
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Open this URL in a browser and log in:\n\n  %s\n\n", u)

		input, err := readLine(env.In, env.Out, "Paste the redirect URL or request_token")
		if err != nil {
			return err
		}
		requestToken, state, err := parseRedirect(input)
		if err != nil {
			return err
		}
		if state != "" {
			if err := b.Sessions.VerifyState(state); err != nil {
				return err
			}
		}

		tok, err := b.Sessions.CompleteLogin(ctx, requestToken)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Logged in. Token #%d valid until %s\n", tok.ID, tok.ExpiresAt.Local().Format(time.RFC3339))
		return nil
	})
}

type tokenCmd struct {
	env  *Env
	show bool
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "show the current access token" }
func (*tokenCmd) Usage() string {
	return `kitectl [-c config.json] token [-show]

  Prints the current token's id and validity. The value is masked unless
  -show is given.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.show, "show", false, "print the full token value")
}

func (c *tokenCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env := c.env
	return env.withBackend(ctx, func(b *Backend) error {
		tok, ok, err := b.Sessions.CurrentToken(ctx, env.now())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Out, "no session")
			return nil
		}

		value := mask(tok.Value)
		if c.show {
			value = tok.Value
		}
		fmt.Fprintf(env.Out, "id:      %d\n", tok.ID)
		fmt.Fprintf(env.Out, "created: %s\n", tok.CreatedAt.Local().Format(time.RFC3339))
		fmt.Fprintf(env.Out, "expires: %s\n", tok.ExpiresAt.Local().Format(time.RFC3339))
		fmt.Fprintf(env.Out, "value:   %s\n", value)
		return nil
	})
}

type summaryCmd struct {
	env *Env
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the portfolio summary as JSON" }
func (*summaryCmd) Usage() string {
	return `kitectl [-c config.json] summary

  Fetches holdings and net positions with the current token and prints
  total value and P&L.
`
}

func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env := c.env
	return env.withBackend(ctx, func(b *Backend) error {
		sum, err := b.Portfolio.Summary(ctx)
		if errors.Is(err, common.ErrNotAuthenticated) {
			return fmt.Errorf("%w: run `kitectl login` first", err)
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(env.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	})
}
