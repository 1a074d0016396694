package storage

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/neonite-mod/internal/config"
	"github.com/annel0/neonite-mod/internal/logging"
)

// RedisStore хранит свойства в Redis под общим префиксом ключей
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore подключается к Redis и проверяет соединение
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🔴 Connected to Redis at %s", cfg.Addr)
	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient оборачивает готовый клиент
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	v, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
