package repository

import (
	"context"
	"fmt"
	"time"

	"pawnest/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisCorrelationCache keeps a provider-order-id -> booking-id mapping as a
// best-effort accelerator for the webhook fallback path. The document store
// stays the source of truth; cache misses fall through to a store query.
type RedisCorrelationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisCorrelationCache(client *redis.Client, ttl time.Duration) *RedisCorrelationCache {
	return &RedisCorrelationCache{
		client: client,
		ttl:    ttl,
	}
}

// RememberOrder stores the mapping for a freshly created provider order.
func (r *RedisCorrelationCache) RememberOrder(ctx context.Context, providerOrderID int64, bookingID string) error {
	if r == nil || r.client == nil {
		return nil
	}
	key := orderKey(providerOrderID)
	if err := r.client.Set(ctx, key, bookingID, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set correlation in redis: %w", err)
	}
	return nil
}

// LookupOrder resolves a provider order id to a booking id. Returns "" on
// miss or when the cache is disabled.
func (r *RedisCorrelationCache) LookupOrder(ctx context.Context, providerOrderID int64) (string, error) {
	if r == nil || r.client == nil {
		return "", nil
	}
	key := orderKey(providerOrderID)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get correlation from redis: %w", err)
	}
	return val, nil
}

func orderKey(providerOrderID int64) string {
	return fmt.Sprintf("provider_order:%d", providerOrderID)
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
