package repomanager

import (
	"context"

	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/tokens"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type MongoRepositoryManager struct {
	client *mongo.Client
	repo   *tokens.MongoRepository
}

func NewMongoRepositoryManager(client *mongo.Client, database string) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client: client,
		repo:   tokens.NewMongoRepository(client.Database(database)),
	}
}

// RunMigrations pings the primary and creates the token indexes.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	return m.repo.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Read(ctx context.Context, fn ScopeFunc) error {
	return fn(ctx, m.repo)
}

// Write does not open a session transaction: those need a replica set, and
// token writes are a single insert after the counter bump.
func (m *MongoRepositoryManager) Write(ctx context.Context, fn ScopeFunc) error {
	return fn(ctx, m.repo)
}

func (m *MongoRepositoryManager) Close() error {
	return m.client.Disconnect(context.Background())
}
