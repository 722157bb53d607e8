package tokens

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each token as a hash and indexes ids in a sorted
// set scored by expiry (unix microseconds). Exact nanosecond timestamps
// live in the hash and are used for the final comparison.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRepository constructs a repository. All keys are namespaced with prefix.
func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) seqKey() string    { return r.prefix + ":access_tokens:seq" }
func (r *RedisRepository) expiryKey() string { return r.prefix + ":access_tokens:by_expiry" }
func (r *RedisRepository) tokenKey(id int64) string {
	return fmt.Sprintf("%s:access_token:%d", r.prefix, id)
}

func (r *RedisRepository) Create(ctx context.Context, t *models.SealedToken) (*models.SealedToken, error) {
	id, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate token id: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, r.tokenKey(id), map[string]interface{}{
			"ciphertext": t.Ciphertext,
			"nonce":      t.Nonce,
			"created_at": t.CreatedAt.UnixNano(),
			"expires_at": t.ExpiresAt.UnixNano(),
		})
		p.ZAdd(ctx, r.expiryKey(), redis.Z{
			Score:  float64(t.ExpiresAt.UnixMicro()),
			Member: id,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store token in Redis: %w", err)
	}

	out := *t
	out.ID = id
	return &out, nil
}

func (r *RedisRepository) LatestValid(ctx context.Context, now time.Time) (*models.SealedToken, error) {
	ids, err := r.client.ZRangeByScore(ctx, r.expiryKey(), &redis.ZRangeBy{
		// expires > now implies floor(expires) >= floor(now); the exact
		// check happens below.
		Min: strconv.FormatInt(now.UnixMicro(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query expiry index: %w", err)
	}
	if len(ids) == 0 {
		return nil, common.ErrorNotFound
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, raw := range ids {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt expiry index member %q: %w", raw, err)
			}
			cmds[i] = p.HGetAll(ctx, r.tokenKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	var best *models.SealedToken
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		t, err := decodeRedisToken(ids[i], fields)
		if err != nil {
			return nil, err
		}
		if !t.ValidAt(now) {
			continue
		}
		if best == nil || newer(t, best) {
			best = t
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return best, nil
}

func decodeRedisToken(rawID string, fields map[string]string) (*models.SealedToken, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt token id %q: %w", rawID, err)
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at for token %d: %w", id, err)
	}
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt expires_at for token %d: %w", id, err)
	}

	return &models.SealedToken{
		ID:         id,
		Ciphertext: []byte(fields["ciphertext"]),
		Nonce:      []byte(fields["nonce"]),
		CreatedAt:  time.Unix(0, created).UTC(),
		ExpiresAt:  time.Unix(0, expires).UTC(),
	}, nil
}
