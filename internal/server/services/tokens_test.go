package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/cryptox"
	"github.com/dmitrijs2005/kitekeeper/internal/server/config"
	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSealer(t *testing.T, secret string) *cryptox.Sealer {
	t.Helper()
	s, err := cryptox.NewSealer(secret)
	require.NoError(t, err)
	return s
}

// clock returns a controllable time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTokenService(t *testing.T, m repomanager.RepositoryManager, c *clock) *TokenService {
	t.Helper()
	s := NewTokenService(m, newSealer(t, "k"), &config.Config{TokenValidityDuration: 24 * time.Hour})
	s.now = c.now
	return s
}

func TestTokenService_SaveThenLatestValid(t *testing.T) {
	c := &clock{t: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
	s := newTokenService(t, repomanager.NewMemoryRepositoryManager(), c)
	ctx := context.Background()

	saved, err := s.Save(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, "acc-1", saved.Value)
	assert.True(t, saved.ExpiresAt.After(saved.CreatedAt))
	assert.Equal(t, 24*time.Hour, saved.ExpiresAt.Sub(saved.CreatedAt))

	got, ok, err := s.LatestValid(ctx, c.now().Add(time.Hour))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "acc-1", got.Value)
	assert.Equal(t, saved.ID, got.ID)
}

func TestTokenService_ValueIsSealedAtRest(t *testing.T) {
	c := &clock{t: time.Now()}
	m := repomanager.NewMemoryRepositoryManager()
	s := newTokenService(t, m, c)
	ctx := context.Background()

	_, err := s.Save(ctx, "plain-secret-token")
	require.NoError(t, err)

	err = m.Read(ctx, func(ctx context.Context, repo tokens.Repository) error {
		st, err := repo.LatestValid(ctx, c.now())
		require.NoError(t, err)
		assert.NotContains(t, string(st.Ciphertext), "plain-secret-token")
		return nil
	})
	require.NoError(t, err)
}

func TestTokenService_LaterTokenReplacesEarlier(t *testing.T) {
	c := &clock{t: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
	s := newTokenService(t, repomanager.NewMemoryRepositoryManager(), c)
	ctx := context.Background()

	_, err := s.Save(ctx, "t1")
	require.NoError(t, err)
	c.advance(25 * time.Hour)
	_, err = s.Save(ctx, "t2")
	require.NoError(t, err)

	got, ok, err := s.LatestValid(ctx, c.now().Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "t2", got.Value)
}

func TestTokenService_Absent(t *testing.T) {
	c := &clock{t: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
	s := newTokenService(t, repomanager.NewMemoryRepositoryManager(), c)
	ctx := context.Background()

	_, ok, err := s.LatestValid(ctx, c.now())
	require.NoError(t, err)
	assert.False(t, ok, "empty store")

	saved, err := s.Save(ctx, "t1")
	require.NoError(t, err)

	_, ok, err = s.LatestValid(ctx, saved.ExpiresAt)
	require.NoError(t, err)
	assert.False(t, ok, "expiry equal to now is invalid")
}

func TestTokenService_Idempotent(t *testing.T) {
	c := &clock{t: time.Now()}
	s := newTokenService(t, repomanager.NewMemoryRepositoryManager(), c)
	ctx := context.Background()

	_, err := s.Save(ctx, "t1")
	require.NoError(t, err)

	a, _, err := s.LatestValid(ctx, c.now())
	require.NoError(t, err)
	b, _, err := s.LatestValid(ctx, c.now())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTokenService_StorageErrors(t *testing.T) {
	s := newTokenService(t, &failingManager{err: errors.New("db down")}, &clock{t: time.Now()})

	_, err := s.Save(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStorage))

	_, ok, err := s.LatestValid(context.Background(), time.Now())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, common.ErrStorage))
}

func TestTokenService_WrongSecretIsStorageError(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	c := &clock{t: time.Now()}
	writer := newTokenService(t, m, c)
	_, err := writer.Save(context.Background(), "x")
	require.NoError(t, err)

	reader := NewTokenService(m, newSealer(t, "rotated"), &config.Config{})
	_, _, err = reader.LatestValid(context.Background(), c.now())
	assert.True(t, errors.Is(err, common.ErrStorage))
}

func TestNewTokenService_DefaultValidity(t *testing.T) {
	s := NewTokenService(repomanager.NewMemoryRepositoryManager(), newSealer(t, "k"), &config.Config{})
	assert.Equal(t, config.DefaultTokenValidity, s.validity)
}

var _ TokenStore = (*TokenService)(nil)
