package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	TokensCollection   = "access_tokens"
	CountersCollection = "counters"
)

// tokenDocument is the stored shape. BSON dates only keep milliseconds, so
// the *_ns fields carry the exact values used for filtering and sorting.
type tokenDocument struct {
	ID          int64     `bson:"_id"`
	Ciphertext  []byte    `bson:"token_ciphertext"`
	Nonce       []byte    `bson:"token_nonce"`
	CreatedAt   time.Time `bson:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at"`
	CreatedAtNs int64     `bson:"created_at_ns"`
	ExpiresAtNs int64     `bson:"expires_at_ns"`
}

// MongoRepository implements Repository on a MongoDB database. Integer ids
// come from a counter document so ordering matches the SQL backends.
type MongoRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		coll:     db.Collection(TokensCollection),
		counters: db.Collection(CountersCollection),
	}
}

// EnsureIndexes creates the indexes LatestValid relies on. It is idempotent.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at_ns", Value: 1}}},
		{Keys: bson.D{{Key: "created_at_ns", Value: -1}, {Key: "_id", Value: -1}}},
	})
	return err
}

func (r *MongoRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": TokensCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (r *MongoRepository) Create(ctx context.Context, t *models.SealedToken) (*models.SealedToken, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate token id: %w", err)
	}

	doc := tokenDocument{
		ID:          id,
		Ciphertext:  t.Ciphertext,
		Nonce:       t.Nonce,
		CreatedAt:   t.CreatedAt.UTC(),
		ExpiresAt:   t.ExpiresAt.UTC(),
		CreatedAtNs: t.CreatedAt.UnixNano(),
		ExpiresAtNs: t.ExpiresAt.UnixNano(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert token: %w", err)
	}

	out := *t
	out.ID = id
	return &out, nil
}

func (r *MongoRepository) LatestValid(ctx context.Context, now time.Time) (*models.SealedToken, error) {
	var doc tokenDocument
	err := r.coll.FindOne(ctx,
		bson.M{"expires_at_ns": bson.M{"$gt": now.UnixNano()}},
		options.FindOne().SetSort(bson.D{{Key: "created_at_ns", Value: -1}, {Key: "_id", Value: -1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}

	return &models.SealedToken{
		ID:         doc.ID,
		Ciphertext: doc.Ciphertext,
		Nonce:      doc.Nonce,
		CreatedAt:  time.Unix(0, doc.CreatedAtNs).UTC(),
		ExpiresAt:  time.Unix(0, doc.ExpiresAtNs).UTC(),
	}, nil
}
