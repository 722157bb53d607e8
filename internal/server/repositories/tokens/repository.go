// Package tokens declares the repository contract for sealed broker access
// tokens and provides PostgreSQL, SQLite, Redis, MongoDB and in-memory
// implementations of it.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
)

// Repository stores sealed access tokens. Records are append-only: there is
// no update or delete.
type Repository interface {
	// Create persists t and returns a copy with the storage-assigned ID.
	Create(ctx context.Context, t *models.SealedToken) (*models.SealedToken, error)

	// LatestValid returns the most recently created token whose expiry is
	// strictly after now. Ties on creation time go to the highest ID.
	// Implementations return common.ErrorNotFound when no token qualifies.
	LatestValid(ctx context.Context, now time.Time) (*models.SealedToken, error)
}

// newer reports whether a should be preferred over b as the current token.
func newer(a, b *models.SealedToken) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
