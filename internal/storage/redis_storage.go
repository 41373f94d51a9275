package storage

import (
	"context"
	"errors"
	"time"

	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisStorage stores each record as a plain redis string
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStorage wraps client. A zero ttl keeps records forever.
func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error("Failed to read record from redis", err, map[string]interface{}{
			"key": key,
		})
		return nil, err
	}
	return val, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		logger.Error("Failed to write record to redis", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		logger.Error("Failed to delete record from redis", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}
