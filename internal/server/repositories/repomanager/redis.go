package repomanager

import (
	"context"

	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/tokens"
	"github.com/redis/go-redis/v9"
)

// RedisRepositoryManager shares one client across scopes. Writes are
// applied with MULTI/EXEC inside the repository itself.
type RedisRepositoryManager struct {
	client redis.UniversalClient
	repo   *tokens.RedisRepository
}

func NewRedisRepositoryManager(client redis.UniversalClient, prefix string) *RedisRepositoryManager {
	return &RedisRepositoryManager{
		client: client,
		repo:   tokens.NewRedisRepository(client, prefix),
	}
}

// RunMigrations only checks connectivity; Redis has no schema.
func (m *RedisRepositoryManager) RunMigrations(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

func (m *RedisRepositoryManager) Read(ctx context.Context, fn ScopeFunc) error {
	return fn(ctx, m.repo)
}

func (m *RedisRepositoryManager) Write(ctx context.Context, fn ScopeFunc) error {
	return fn(ctx, m.repo)
}

func (m *RedisRepositoryManager) Close() error {
	return m.client.Close()
}
