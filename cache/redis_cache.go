package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/idelsangithub/node-tree-api/logging"
	"github.com/idelsangithub/node-tree-api/models"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// generationKey holds the invalidation epoch; page keys embed it so that a
// single INCR retires every cached page
const generationKey = "nodes:generation"

// RedisCache implements CacheProvider using Redis. Calls go through a
// circuit breaker so an unavailable Redis degrades to cache misses.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewRedisCache creates a new Redis cache provider
func NewRedisCache(addr string, logger *zap.Logger) *RedisCache {
	logger = logging.OrNop(logger)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           0,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  250 * time.Millisecond,
		WriteTimeout: 250 * time.Millisecond,
	})

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
	})

	return &RedisCache{
		client:  client,
		ttl:     DefaultTTL,
		breaker: breaker,
		logger:  logger,
	}
}

// Initialize checks that Redis is reachable
func (c *RedisCache) Initialize(ctx context.Context) error {
	_, err := c.client.Ping(ctx).Result()
	return err
}

// generation returns the current invalidation epoch
func (c *RedisCache) generation(ctx context.Context) (Generation, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, generationKey).Int64()
	})
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return NoGeneration, err
	}
	return Generation(result.(int64)), nil
}

// GetPage retrieves a page from cache if available
func (c *RedisCache) GetPage(ctx context.Context, key PageKey) (*models.Page, Generation, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Debug("redis cache unavailable", zap.Error(err))
		return nil, NoGeneration, false
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, pageKey(key, gen)).Bytes()
	})
	if err != nil {
		return nil, gen, false
	}

	var page models.Page
	if err := json.Unmarshal(result.([]byte), &page); err != nil {
		return nil, gen, false
	}
	return &page, gen, true
}

// SetPage stores a page under the generation it was computed in. A page
// from a retired generation lands under a key no reader looks up.
func (c *RedisCache) SetPage(ctx context.Context, key PageKey, page *models.Page, gen Generation) {
	if gen == NoGeneration {
		return
	}
	k := pageKey(key, gen)
	data, err := json.Marshal(page)
	if err != nil {
		return
	}

	if _, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, k, data, c.ttl).Err()
	}); err != nil {
		c.logger.Debug("failed to store page in redis", zap.String("key", k), zap.Error(err))
	}
}

// InvalidateCache retires every cached page by bumping the generation
func (c *RedisCache) InvalidateCache(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Incr(ctx, generationKey).Err()
	})
	return err
}

// SetCacheTTL sets the cache time-to-live duration
func (c *RedisCache) SetCacheTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// BreakerState reports the state of the circuit breaker guarding Redis
func (c *RedisCache) BreakerState() gobreaker.State {
	return c.breaker.State()
}
