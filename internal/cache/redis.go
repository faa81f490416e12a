package cache

import (
	"context"
	"errors"
	"statboard/internal/config"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache defines the interface for a caching implementation
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; a zero ttl keeps it until evicted
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// ErrCacheMiss is returned when a key is not found in the cache
var ErrCacheMiss = errors.New("cache miss")

// RedisCache implements Cache on a single Redis database, namespacing keys
// with the configured prefix
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("address", cfg.Address).Msg("Failed to connect to Redis")
		client.Close()
		return nil, err
	}

	log.Info().
		Str("address", cfg.Address).
		Str("prefix", cfg.Prefix).
		Int("db", cfg.DB).
		Msg("Redis cache initialized")

	return &RedisCache{
		client: client,
		prefix: cfg.Prefix,
	}, nil
}

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	k := c.key(key)

	result, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		log.Debug().Str("key", k).Msg("Cache miss")
		return nil, ErrCacheMiss
	}
	if err != nil {
		log.Error().Err(err).Str("key", k).Msg("Error getting value from Redis")
		return nil, err
	}

	log.Debug().Str("key", k).Int("size", len(result)).Msg("Cache hit")
	return result, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k := c.key(key)

	if err := c.client.Set(ctx, k, value, ttl).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", k).
			Int("size", len(value)).
			Dur("ttl", ttl).
			Msg("Error setting value in Redis")
		return err
	}

	log.Debug().Str("key", k).Dur("ttl", ttl).Msg("Cached value")
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	k := c.key(key)

	if err := c.client.Del(ctx, k).Err(); err != nil {
		log.Error().Err(err).Str("key", k).Msg("Error deleting key from Redis")
		return err
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.client.Ping(ctx).Err()
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Error pinging Redis")
	}
	return err
}

func (c *RedisCache) Close() error {
	log.Info().Msg("Closing Redis cache connection")
	return c.client.Close()
}
