package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/mind-engage/mindengage-tka/internal/config"
	"github.com/mind-engage/mindengage-tka/internal/db"
	"github.com/mind-engage/mindengage-tka/internal/kv"
	"github.com/mind-engage/mindengage-tka/internal/storage"
)

// openStore picks the kv backend. dbh is non-nil only for SQL backends,
// which also carry the event journal.
func openStore(ctx context.Context, cfg config.Config) (store kv.Store, dbh *sqlx.DB, closeFn func() error, err error) {
	switch cfg.StoreDriver {
	case "memory":
		return kv.NewMemory(), nil, func() error { return nil }, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return kv.NewRedisStore(rdb, cfg.RedisPrefix), nil, rdb.Close, nil
	case "sqlite", "postgres", "mysql":
		h, err := db.Open(ctx, db.Driver(cfg.StoreDriver), cfg.StoreDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return kv.NewSQLStore(h), h, h.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func openBlobs(cfg config.Config) (storage.BlobStore, error) {
	switch cfg.BlobDriver {
	case "s3":
		return storage.NewS3Store(storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	case "fs", "":
		return storage.NewFSStore(cfg.BlobBasePath, "/assets")
	default:
		return nil, fmt.Errorf("unsupported BLOB_DRIVER %q", cfg.BlobDriver)
	}
}
