package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/dbx"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB, *sql.Conn or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a sealed token and fills in its ID.
func (r *PostgresRepository) Create(ctx context.Context, t *models.SealedToken) (*models.SealedToken, error) {
	query := `
		INSERT INTO access_tokens (token_ciphertext, token_nonce, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	out := *t
	if err := r.db.QueryRowContext(ctx, query, t.Ciphertext, t.Nonce, t.CreatedAt, t.ExpiresAt).Scan(&out.ID); err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return &out, nil
}

// LatestValid returns the newest token with expires_at > now, or
// common.ErrorNotFound.
func (r *PostgresRepository) LatestValid(ctx context.Context, now time.Time) (*models.SealedToken, error) {
	query := `
		SELECT id, token_ciphertext, token_nonce, created_at, expires_at
		FROM access_tokens
		WHERE expires_at > $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	t := &models.SealedToken{}
	err := r.db.QueryRowContext(ctx, query, now).Scan(&t.ID, &t.Ciphertext, &t.Nonce, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
