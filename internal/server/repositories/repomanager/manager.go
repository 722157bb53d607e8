// Package repomanager selects the token storage engine and vends
// repositories bound to a scoped handle: a pooled connection for reads and
// a transaction for writes on SQL engines.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/tokens"
)

// ScopeFunc receives a repository that is valid only for the duration of the call.
type ScopeFunc func(ctx context.Context, repo tokens.Repository) error

type RepositoryManager interface {
	// RunMigrations prepares the schema (SQL) or indexes (MongoDB), or
	// just checks connectivity where there is nothing to prepare.
	RunMigrations(ctx context.Context) error

	// Read runs fn with a read-only handle that is released when fn returns.
	Read(ctx context.Context, fn ScopeFunc) error

	// Write runs fn with a handle whose effects are committed only if fn
	// returns nil.
	Write(ctx context.Context, fn ScopeFunc) error

	Close() error
}
