package main

import (
	"context"
	"fmt"

	"github.com/indiancoinstore/coinstore-backend/config"
	"github.com/indiancoinstore/coinstore-backend/internal/app/repository"
	"github.com/indiancoinstore/coinstore-backend/internal/catalog"
	"github.com/indiancoinstore/coinstore-backend/internal/db"
	"github.com/indiancoinstore/coinstore-backend/internal/storage"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
	"github.com/indiancoinstore/coinstore-backend/pkg/redis"
)

// openStorage builds the cart storage backend named by CART_STORAGE. The
// returned func releases it.
func openStorage(cfg *config.Config) (storage.Storage, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		logger.Warn("Using in-memory cart storage, carts are lost on restart")
		return storage.NewMemoryStorage(), func() {}, nil

	case "redis":
		client, err := redis.Connect(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := redis.Close(client); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}
		return storage.NewRedisStorage(client, cfg.Session.TokenExpiry), closeFn, nil

	case "postgres":
		if err := db.Initialize(&cfg.Database); err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database connection", err)
			}
		}
		if err := db.Migrate(); err != nil {
			closeFn()
			return nil, nil, err
		}
		return repository.NewCartSnapshotRepository(db.GetDB()), closeFn, nil

	case "sqlite":
		st, err := storage.NewSQLiteStorage(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := st.Close(); err != nil {
				logger.Error("Failed to close SQLite storage", err)
			}
		}
		return st, closeFn, nil

	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Timeout)
		defer cancel()
		st, err := storage.NewS3Storage(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported cart storage %q", cfg.Storage.Backend)
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.XLSXPath == "" {
		return catalog.Default()
	}
	return catalog.LoadXLSX(cfg.XLSXPath)
}

func catalogSource(cfg config.CatalogConfig) string {
	if cfg.XLSXPath == "" {
		return "bundled"
	}
	return cfg.XLSXPath
}
