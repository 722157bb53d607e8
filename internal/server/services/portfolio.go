package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/kite"
	"github.com/dmitrijs2005/kitekeeper/internal/logging"
	"github.com/dmitrijs2005/kitekeeper/internal/server/config"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
)

// PortfolioClient is the read-only part of the broker API.
type PortfolioClient interface {
	Profile(ctx context.Context, accessToken string) (*kite.Profile, error)
	Holdings(ctx context.Context, accessToken string) ([]kite.Holding, error)
	Positions(ctx context.Context, accessToken string) (*kite.Positions, error)
}

// TokenResolver yields the token to authorize upstream calls with.
type TokenResolver interface {
	CurrentToken(ctx context.Context, now time.Time) (*models.AccessToken, bool, error)
}

// Dashboard bundles everything the dashboard page shows.
type Dashboard struct {
	Profile   *kite.Profile   `json:"profile"`
	Holdings  []kite.Holding  `json:"holdings"`
	Positions []kite.Position `json:"positions"`
	Summary   models.Summary  `json:"summary"`
}

// PortfolioService reads portfolio data with the current token.
//
// Without a valid token every method returns common.ErrNotAuthenticated and
// makes no upstream call. A token rejected upstream maps to the same error.
// Other failures wrap common.ErrUpstream. Nothing is retried.
type PortfolioService struct {
	tokens  TokenResolver
	kite    PortfolioClient
	logger  logging.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewPortfolioService(tokens TokenResolver, kc PortfolioClient, logger logging.Logger, cfg *config.Config) *PortfolioService {
	return &PortfolioService{
		tokens:  tokens,
		kite:    kc,
		logger:  logger.With("module", "portfolio"),
		timeout: orDefault(cfg.UpstreamTimeout, config.DefaultUpstreamTimeout),
		now:     time.Now,
	}
}

// withToken resolves the current token once and hands it to fn.
func (s *PortfolioService) withToken(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error {
	tok, ok, err := s.tokens.CurrentToken(ctx, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrNotAuthenticated
	}
	return fn(ctx, tok.Value)
}

// fetch runs one bounded upstream call and classifies its error.
func fetch[T any](ctx context.Context, s *PortfolioService, op string, accessToken string, call func(context.Context, string) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	v, err := call(ctx, accessToken)
	if err != nil {
		var zero T
		if kite.IsTokenError(err) {
			s.logger.Warn(ctx, "access token rejected upstream", "op", op, "error", err)
			return zero, fmt.Errorf("%w: %w", common.ErrNotAuthenticated, err)
		}
		s.logger.Error(ctx, "upstream call failed", "op", op, "error", err)
		return zero, fmt.Errorf("%w: %s: %w", common.ErrUpstream, op, err)
	}
	return v, nil
}

func (s *PortfolioService) Profile(ctx context.Context) (*kite.Profile, error) {
	var p *kite.Profile
	err := s.withToken(ctx, func(ctx context.Context, tok string) (err error) {
		p, err = fetch(ctx, s, "profile", tok, s.kite.Profile)
		return err
	})
	return p, err
}

func (s *PortfolioService) Holdings(ctx context.Context) ([]kite.Holding, error) {
	var h []kite.Holding
	err := s.withToken(ctx, func(ctx context.Context, tok string) (err error) {
		h, err = fetch(ctx, s, "holdings", tok, s.kite.Holdings)
		return err
	})
	return h, err
}

func (s *PortfolioService) Positions(ctx context.Context) (*kite.Positions, error) {
	var p *kite.Positions
	err := s.withToken(ctx, func(ctx context.Context, tok string) (err error) {
		p, err = fetch(ctx, s, "positions", tok, s.kite.Positions)
		return err
	})
	return p, err
}

// Summary fetches holdings and positions with one token resolution and
// aggregates them.
func (s *PortfolioService) Summary(ctx context.Context) (models.Summary, error) {
	var summary models.Summary
	err := s.withToken(ctx, func(ctx context.Context, tok string) error {
		holdings, err := fetch(ctx, s, "holdings", tok, s.kite.Holdings)
		if err != nil {
			return err
		}
		positions, err := fetch(ctx, s, "positions", tok, s.kite.Positions)
		if err != nil {
			return err
		}
		summary = Summarize(holdings, netOf(positions))
		return nil
	})
	return summary, err
}

// Dashboard fetches profile, holdings and positions and adds the summary.
func (s *PortfolioService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d *Dashboard
	err := s.withToken(ctx, func(ctx context.Context, tok string) error {
		profile, err := fetch(ctx, s, "profile", tok, s.kite.Profile)
		if err != nil {
			return err
		}
		holdings, err := fetch(ctx, s, "holdings", tok, s.kite.Holdings)
		if err != nil {
			return err
		}
		positions, err := fetch(ctx, s, "positions", tok, s.kite.Positions)
		if err != nil {
			return err
		}
		net := netOf(positions)
		d = &Dashboard{
			Profile:   profile,
			Holdings:  holdings,
			Positions: net,
			Summary:   Summarize(holdings, net),
		}
		return nil
	})
	return d, err
}

func netOf(p *kite.Positions) []kite.Position {
	if p == nil || p.Net == nil {
		return []kite.Position{}
	}
	return p.Net
}
