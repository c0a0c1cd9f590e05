package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/redis/go-redis/v9"
)

// RedisProductCache implements catalog.ProductCache using Redis. Suitable
// for deployments where the sync engine and the storefront share object
// state across processes.
type RedisProductCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisProductCache creates a new Redis-backed product cache
func NewRedisProductCache(cfg RedisConfig) (*RedisProductCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProductCache{
		client:    client,
		keyPrefix: "catalog:product:",
		ttl:       defaultProductTTL,
	}, nil
}

// NewRedisProductCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisProductCacheWithClient(client *redis.Client, keyPrefix string) *RedisProductCache {
	if keyPrefix == "" {
		keyPrefix = "catalog:product:"
	}
	return &RedisProductCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       defaultProductTTL,
	}
}

func (c *RedisProductCache) key(productID int64) string {
	return fmt.Sprintf("%s%d", c.keyPrefix, productID)
}

// Get returns the cached product or nil on a miss
func (c *RedisProductCache) Get(ctx context.Context, productID int64) (*catalog.Product, error) {
	raw, err := c.client.Get(ctx, c.key(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached product: %w", err)
	}

	var product catalog.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		// a corrupt entry behaves like a miss
		_ = c.client.Del(ctx, c.key(productID)).Err()
		return nil, nil
	}
	return &product, nil
}

// Set stores a product object with a TTL
func (c *RedisProductCache) Set(ctx context.Context, product *catalog.Product) error {
	if product == nil || product.ID == 0 {
		return nil
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(product.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache product: %w", err)
	}
	return nil
}

// Invalidate drops any cached object for the product id
func (c *RedisProductCache) Invalidate(ctx context.Context, productID int64) error {
	if err := c.client.Del(ctx, c.key(productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached product: %w", err)
	}
	return nil
}

// Close releases the underlying Redis client
func (c *RedisProductCache) Close() error {
	return c.client.Close()
}
