package repomanager

import (
	"context"

	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/tokens"
)

// MemoryRepositoryManager keeps tokens in process memory; they are lost on restart.
type MemoryRepositoryManager struct {
	repo *tokens.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: tokens.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Read(ctx context.Context, fn ScopeFunc) error {
	return fn(ctx, m.repo)
}

func (m *MemoryRepositoryManager) Write(ctx context.Context, fn ScopeFunc) error {
	return fn(ctx, m.repo)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
