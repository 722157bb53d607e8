package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
)

// MemoryRepository keeps tokens in process memory. Used by the "memory"
// storage driver and in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  []models.SealedToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, t *models.SealedToken) (*models.SealedToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	out := *t
	out.ID = r.nextID
	out.Ciphertext = append([]byte(nil), t.Ciphertext...)
	out.Nonce = append([]byte(nil), t.Nonce...)
	r.items = append(r.items, out)

	ret := out
	return &ret, nil
}

func (r *MemoryRepository) LatestValid(ctx context.Context, now time.Time) (*models.SealedToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *models.SealedToken
	for i := range r.items {
		it := &r.items[i]
		if !it.ValidAt(now) {
			continue
		}
		if best == nil || newer(it, best) {
			best = it
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}

	out := *best
	return &out, nil
}
