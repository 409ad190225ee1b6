package extension

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/larder/store"
	"github.com/xraph/larder/store/memory"
	"github.com/xraph/larder/store/mongo"
	"github.com/xraph/larder/store/postgres"
	"github.com/xraph/larder/store/redis"
	"github.com/xraph/larder/store/s3"
	"github.com/xraph/larder/store/sqlite"
)

// Store drivers accepted in StoreConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// OpenStore opens the snapshot backend described by cfg.
func OpenStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	switch driver {
	case "", DriverMemory:
		return memory.New(), nil

	case DriverSQLite:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("larder: store driver %q needs a dsn", driver)
		}
		return sqlite.Open(ctx, cfg.DSN)

	case DriverPostgres, "pg":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("larder: store driver %q needs a dsn", driver)
		}
		return postgres.Open(ctx, cfg.DSN)

	case DriverMongo, "mongodb":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("larder: store driver %q needs a dsn", driver)
		}
		return mongo.Open(ctx, cfg.DSN)

	case DriverRedis:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("larder: store driver %q needs a dsn", driver)
		}
		var opts []redis.Option
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		return redis.Open(ctx, cfg.DSN, opts...)

	case DriverS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("larder: store driver %q needs a bucket", driver)
		}
		return s3.New(ctx, s3.Config{
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			PathStyle:       cfg.PathStyle,
			Prefix:          cfg.Prefix,
		})

	default:
		return nil, fmt.Errorf("larder: unknown store driver %q", cfg.Driver)
	}
}
