// Package services contains server-side business logic: the token store,
// the login lifecycle, portfolio reads and the summary aggregator.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/cryptox"
	"github.com/dmitrijs2005/kitekeeper/internal/server/config"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/tokens"
)

// TokenStore is the persistence contract the lifecycle manager depends on.
type TokenStore interface {
	Save(ctx context.Context, value string) (*models.AccessToken, error)
	LatestValid(ctx context.Context, now time.Time) (*models.AccessToken, bool, error)
}

// TokenService persists access tokens sealed at rest and resolves the
// current one. It keeps no token state of its own.
type TokenService struct {
	repomanager repomanager.RepositoryManager
	sealer      *cryptox.Sealer
	validity    time.Duration
	now         func() time.Time
}

// NewTokenService constructs a TokenService. A non-positive
// cfg.TokenValidityDuration falls back to config.DefaultTokenValidity.
func NewTokenService(m repomanager.RepositoryManager, sealer *cryptox.Sealer, cfg *config.Config) *TokenService {
	validity := cfg.TokenValidityDuration
	if validity <= 0 {
		validity = config.DefaultTokenValidity
	}
	return &TokenService{
		repomanager: m,
		sealer:      sealer,
		validity:    validity,
		now:         time.Now,
	}
}

// Save records value as a new token created now and valid for the
// configured window. Failures wrap common.ErrStorage.
func (s *TokenService) Save(ctx context.Context, value string) (*models.AccessToken, error) {
	// microsecond precision is the finest every backend keeps
	now := s.now().UTC().Truncate(time.Microsecond)

	ciphertext, nonce, err := s.sealer.Seal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: seal token: %w", common.ErrStorage, err)
	}

	var stored *models.SealedToken
	err = s.repomanager.Write(ctx, func(ctx context.Context, repo tokens.Repository) error {
		var err error
		stored, err = repo.Create(ctx, &models.SealedToken{
			Ciphertext: ciphertext,
			Nonce:      nonce,
			CreatedAt:  now,
			ExpiresAt:  now.Add(s.validity),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: save token: %w", common.ErrStorage, err)
	}

	return &models.AccessToken{
		ID:        stored.ID,
		Value:     value,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// LatestValid returns the most recently created token still valid at now.
// The bool is false when there is none; that is not an error.
func (s *TokenService) LatestValid(ctx context.Context, now time.Time) (*models.AccessToken, bool, error) {
	var sealed *models.SealedToken
	err := s.repomanager.Read(ctx, func(ctx context.Context, repo tokens.Repository) error {
		var err error
		sealed, err = repo.LatestValid(ctx, now)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: load token: %w", common.ErrStorage, err)
	}

	value, err := s.sealer.Open(sealed.Ciphertext, sealed.Nonce)
	if err != nil {
		return nil, false, fmt.Errorf("%w: token %d cannot be unsealed: %w", common.ErrStorage, sealed.ID, err)
	}

	return &models.AccessToken{
		ID:        sealed.ID,
		Value:     value,
		CreatedAt: sealed.CreatedAt,
		ExpiresAt: sealed.ExpiresAt,
	}, true, nil
}
