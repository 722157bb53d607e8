package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/dmitrijs2005/kitekeeper/internal/filex"
	"github.com/dmitrijs2005/kitekeeper/internal/server/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	_ "modernc.org/sqlite"
)

// New opens the engine named by cfg.StorageDriver. It does not run
// migrations; call RunMigrations on the result.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("%w: open postgres: %w", common.ErrStorage, err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: ping postgres: %w", common.ErrStorage, err)
		}
		return NewPostgresRepositoryManager(db), nil

	case config.DriverSQLite:
		dsn := SQLiteDSN(cfg.DatabaseDSN)
		if p := filex.SQLitePath(dsn); p != "" {
			if _, err := filex.EnsureParentDir(p); err != nil {
				return nil, fmt.Errorf("%w: sqlite directory: %w", common.ErrStorage, err)
			}
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: open sqlite: %w", common.ErrStorage, err)
		}
		// a single writer avoids SQLITE_BUSY between concurrent scopes
		db.SetMaxOpenConns(1)
		return NewSQLiteRepositoryManager(db), nil

	case config.DriverRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("%w: redis url: %w", common.ErrConfig, err)
		}
		return NewRedisRepositoryManager(redis.NewClient(opts), cfg.RedisKeyPrefix), nil

	case config.DriverMongo:
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("%w: connect mongo: %w", common.ErrStorage, err)
		}
		return NewMongoRepositoryManager(client, cfg.MongoDatabase), nil

	case config.DriverMemory:
		return NewMemoryRepositoryManager(), nil

	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", common.ErrConfig, cfg.StorageDriver)
	}
}

// SQLiteDSN accepts SQLAlchemy-style "sqlite:///path" URLs as well as plain
// paths and "file:" DSNs.
func SQLiteDSN(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "sqlite:///"):
		return strings.TrimPrefix(dsn, "sqlite:///")
	case strings.HasPrefix(dsn, "sqlite://"):
		return strings.TrimPrefix(dsn, "sqlite://")
	}
	return dsn
}
