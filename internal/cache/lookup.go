package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Loader produces the value for a key on a cache miss
type Loader func(ctx context.Context) (string, error)

// GetOrLoad returns the cached string for key, or calls load and caches a
// successful, non-empty result for ttl. A nil cache or a failing cache never
// blocks the load; cache errors are logged and the loaded value is still
// returned.
func GetOrLoad(ctx context.Context, c Cache, key string, ttl time.Duration, load Loader) (string, error) {
	if c == nil {
		return load(ctx)
	}

	cached, err := c.Get(ctx, key)
	switch {
	case err == nil && len(cached) > 0:
		return string(cached), nil
	case err != nil && !errors.Is(err, ErrCacheMiss):
		log.Warn().Err(err).Str("key", key).Msg("Cache unavailable, loading directly")
	}

	value, err := load(ctx)
	if err != nil {
		return "", err
	}
	if value == "" {
		return value, nil
	}

	if err := c.Set(ctx, key, []byte(value), ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache loaded value")
	}
	return value, nil
}
