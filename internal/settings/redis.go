package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
	"go.uber.org/zap"
)

// RedisStore keeps settings as a JSON string under one key
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// RedisConfig addresses the Redis server
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisStore connects to Redis
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStoreWithClient(client, cfg.Key, logger)
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, key string, logger *zap.Logger) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, key: key, logger: logger}
}

// Load reads the settings key
func (r *RedisStore) Load(ctx context.Context) receiptformat.CompanySettings {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Failed to read settings from redis, using defaults", zap.String("key", r.key), zap.Error(err))
		}
		return Default()
	}

	s, err := decode(raw)
	if err != nil {
		r.logger.Warn("Failed to decode settings, using defaults", zap.String("key", r.key), zap.Error(err))
		return Default()
	}
	return s
}

// Save writes the settings key with no expiry
func (r *RedisStore) Save(ctx context.Context, s receiptformat.CompanySettings) error {
	raw, err := encode(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write settings to redis: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (r *RedisStore) Close() error {
	return r.client.Close()
}
