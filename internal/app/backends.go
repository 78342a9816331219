package service

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/okian/dawgbowl/internal/adapters/store"
	"github.com/okian/dawgbowl/internal/config"
	"github.com/okian/dawgbowl/internal/domain/catalog"
	"github.com/okian/dawgbowl/pkg/logger"
)

const pingTimeout = 3 * time.Second

// OpenStore builds the lineup store selected by cfg.StoreBackend. Remote
// backends sit behind a circuit breaker; every backend is instrumented. The
// returned close function releases client connections.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendFile:
		fs, err := store.NewFileStore(cfg.LineupsDir)
		if err != nil {
			return nil, noop, err
		}
		log.Info(ctx, "using file lineup store", logger.String("dir", cfg.LineupsDir))
		return store.NewObserved(config.BackendFile, fs, log), noop, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			// Not fatal: the breaker reports the backend unavailable until it
			// comes up.
			log.Warn(ctx, "redis not reachable at startup", logger.String("addr", cfg.RedisAddr), logger.Error(err))
		}
		base := store.NewRedisStore(client, cfg.RedisKey)
		log.Info(ctx, "using redis lineup store", logger.String("addr", cfg.RedisAddr), logger.String("hash", cfg.RedisKey))
		return store.NewObserved(config.BackendRedis, store.NewBreaker(config.BackendRedis, base), log), client.Close, nil

	case config.BackendS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("load aws config: %w", err)
		}
		base := store.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix)
		log.Info(ctx, "using s3 lineup store", logger.String("bucket", cfg.S3Bucket), logger.String("prefix", cfg.S3Prefix))
		return store.NewObserved(config.BackendS3, store.NewBreaker(config.BackendS3, base), log), noop, nil
	}
	return nil, noop, fmt.Errorf("%w: unknown store_backend %q", config.ErrInvalidConfig, cfg.StoreBackend)
}

// OpenCatalog loads cfg.CatalogFile, or the built-in pool when unset.
func OpenCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogFile == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(cfg.CatalogFile)
}
