package repomanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/tokens"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManager_ScopesShareState(t *testing.T) {
	m := NewMemoryRepositoryManager()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, m.Write(ctx, func(ctx context.Context, repo tokens.Repository) error {
		_, err := repo.Create(ctx, sampleToken(now))
		return err
	}))

	require.NoError(t, m.Read(ctx, func(ctx context.Context, repo tokens.Repository) error {
		_, err := repo.LatestValid(ctx, now)
		return err
	}))
}

func TestMemoryManager_PropagatesFnError(t *testing.T) {
	m := NewMemoryRepositoryManager()
	boom := errors.New("boom")

	err := m.Read(context.Background(), func(context.Context, tokens.Repository) error { return boom })
	assert.ErrorIs(t, err, boom)
	err = m.Write(context.Background(), func(context.Context, tokens.Repository) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRedisManager_Scopes(t *testing.T) {
	mr := miniredis.RunT(t)
	m := NewRedisRepositoryManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "kk")
	t.Cleanup(func() { _ = m.Close() })

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.Write(ctx, func(ctx context.Context, repo tokens.Repository) error {
		_, err := repo.Create(ctx, sampleToken(now))
		return err
	}))
	require.NoError(t, m.Read(ctx, func(ctx context.Context, repo tokens.Repository) error {
		got, err := repo.LatestValid(ctx, now)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), got.ID)
		return nil
	}))
	assert.True(t, mr.Exists("kk:access_token:1"))
}
