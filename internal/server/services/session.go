package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/kite"
	"github.com/dmitrijs2005/kitekeeper/internal/logging"
	"github.com/dmitrijs2005/kitekeeper/internal/server/auth"
	"github.com/dmitrijs2005/kitekeeper/internal/server/config"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
)

// LoginClient is the part of the broker API used to log in.
type LoginClient interface {
	HasCredentials() bool
	LoginURL(state string) (string, error)
	GenerateSession(ctx context.Context, requestToken string) (*kite.Session, error)
}

// SessionStatus is a read-only view of the login state.
type SessionStatus struct {
	Authenticated bool       `json:"authenticated"`
	TokenID       int64      `json:"token_id,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// SessionService drives the login flow: it issues the broker login URL,
// exchanges the returned request token and resolves the current token.
// Every call re-reads the store; nothing is cached between requests.
type SessionService struct {
	store           TokenStore
	kite            LoginClient
	logger          logging.Logger
	stateSecret     []byte
	stateValidity   time.Duration
	upstreamTimeout time.Duration
	now             func() time.Time
}

// NewSessionService constructs a SessionService using server config.
func NewSessionService(store TokenStore, kc LoginClient, logger logging.Logger, cfg *config.Config) *SessionService {
	return &SessionService{
		store:           store,
		kite:            kc,
		logger:          logger.With("module", "session"),
		stateSecret:     []byte(cfg.SecretKey),
		stateValidity:   orDefault(cfg.StateValidityDuration, config.DefaultStateValidity),
		upstreamTimeout: orDefault(cfg.UpstreamTimeout, config.DefaultUpstreamTimeout),
		now:             time.Now,
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// LoginURL returns the broker authorization URL carrying a fresh signed
// state. It makes no network call and stores nothing.
func (s *SessionService) LoginURL() (string, error) {
	if !s.kite.HasCredentials() {
		return "", fmt.Errorf("%w: kite api key and secret must be set", common.ErrConfig)
	}

	state, err := auth.GenerateState(s.stateSecret, s.stateValidity, s.now())
	if err != nil {
		return "", fmt.Errorf("%w: sign login state: %w", common.ErrorInternal, err)
	}

	u, err := s.kite.LoginURL(state)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrConfig, err)
	}
	return u, nil
}

// VerifyState checks the state echoed back on the callback.
func (s *SessionService) VerifyState(state string) error {
	if state == "" {
		return fmt.Errorf("%w: missing state", common.ErrInvalidState)
	}
	if _, err := auth.ParseState(state, s.stateSecret, s.now()); err != nil {
		if errors.Is(err, common.ErrInvalidState) {
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrInvalidState, err)
	}
	return nil
}

// CompleteLogin exchanges requestToken for an access token and persists it.
//
// A rejected or failed exchange returns common.ErrUpstreamAuth and writes
// nothing. If the exchange succeeds but the write fails, the error wraps
// common.ErrStorage: the broker session is live but unrecorded, and the
// user has to log in again.
func (s *SessionService) CompleteLogin(ctx context.Context, requestToken string) (*models.AccessToken, error) {
	if requestToken == "" {
		return nil, fmt.Errorf("%w: empty request token", common.ErrUpstreamAuth)
	}
	if !s.kite.HasCredentials() {
		return nil, fmt.Errorf("%w: kite api key and secret must be set", common.ErrConfig)
	}

	session, err := s.exchange(ctx, requestToken)
	if err != nil {
		s.logger.Warn(ctx, "request token exchange failed", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrUpstreamAuth, err)
	}

	tok, err := s.store.Save(ctx, session.AccessToken)
	if err != nil {
		s.logger.Error(ctx, "access token obtained but not persisted", "user_id", session.UserID, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "login completed", "user_id", session.UserID, "token_id", tok.ID, "expires_at", tok.ExpiresAt)
	return tok, nil
}

func (s *SessionService) exchange(ctx context.Context, requestToken string) (*kite.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()
	return s.kite.GenerateSession(ctx, requestToken)
}

// CurrentToken returns the token valid at now, if any.
func (s *SessionService) CurrentToken(ctx context.Context, now time.Time) (*models.AccessToken, bool, error) {
	return s.store.LatestValid(ctx, now)
}

// Status summarises the session at now. Storage failures are reported in
// the Error field rather than returned.
func (s *SessionService) Status(ctx context.Context, now time.Time) SessionStatus {
	tok, ok, err := s.CurrentToken(ctx, now)
	if err != nil {
		return SessionStatus{Error: err.Error()}
	}
	if !ok {
		return SessionStatus{}
	}
	return SessionStatus{
		Authenticated: true,
		TokenID:       tok.ID,
		CreatedAt:     &tok.CreatedAt,
		ExpiresAt:     &tok.ExpiresAt,
	}
}
