package repository

import (
	"context"
	"errors"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/internal/storage"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartSnapshotRepository stores cart records in the cart_snapshots table.
// It satisfies storage.Storage.
type CartSnapshotRepository struct {
	db *gorm.DB
}

var _ storage.Storage = (*CartSnapshotRepository)(nil)

func NewCartSnapshotRepository(db *gorm.DB) *CartSnapshotRepository {
	return &CartSnapshotRepository{db: db}
}

func (r *CartSnapshotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	logger.Debug("Finding cart snapshot in database", map[string]interface{}{
		"key": key,
	})

	var snap model.CartSnapshot
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		logger.Error("Failed to find cart snapshot in database", err, map[string]interface{}{
			"key": key,
		})
		return nil, err
	}
	return snap.Payload, nil
}

func (r *CartSnapshotRepository) Set(ctx context.Context, key string, value []byte) error {
	snap := model.CartSnapshot{Key: key, Payload: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		logger.Error("Failed to save cart snapshot in database", err, map[string]interface{}{
			"key":   key,
			"bytes": len(value),
		})
		return err
	}

	logger.Debug("Cart snapshot saved in database", map[string]interface{}{
		"key":   key,
		"bytes": len(value),
	})
	return nil
}

func (r *CartSnapshotRepository) Delete(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&model.CartSnapshot{}).Error
	if err != nil {
		logger.Error("Failed to delete cart snapshot in database", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}

// Count returns how many carts are stored
func (r *CartSnapshotRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CartSnapshot{}).Count(&n).Error
	return n, err
}
