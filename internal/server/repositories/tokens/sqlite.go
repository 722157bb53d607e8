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

// SQLiteRepository implements Repository for SQLite. Timestamps are stored
// as unix nanoseconds so comparisons and ordering are exact integers.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, t *models.SealedToken) (*models.SealedToken, error) {
	query := `
		INSERT INTO access_tokens (token_ciphertext, token_nonce, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query, t.Ciphertext, t.Nonce, t.CreatedAt.UnixNano(), t.ExpiresAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("error reading inserted id: %w", err)
	}

	out := *t
	out.ID = id
	return &out, nil
}

func (r *SQLiteRepository) LatestValid(ctx context.Context, now time.Time) (*models.SealedToken, error) {
	query := `
		SELECT id, token_ciphertext, token_nonce, created_at, expires_at
		FROM access_tokens
		WHERE expires_at > ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var (
		t                  models.SealedToken
		created, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, query, now.UnixNano()).Scan(&t.ID, &t.Ciphertext, &t.Nonce, &created, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	t.CreatedAt = time.Unix(0, created).UTC()
	t.ExpiresAt = time.Unix(0, expiresAt).UTC()
	return &t, nil
}
