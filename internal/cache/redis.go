package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// RedisBackend is a Redis-backed implementation of Backend.
type RedisBackend struct {
	client    *redis.Client
	logger    zerolog.Logger
	opTimeout time.Duration
	stats     struct {
		hits   atomic.Int64
		misses atomic.Int64
		adds   atomic.Int64
	}
}

// NewRedisBackend connects to Redis and verifies the connection with PING.
func NewRedisBackend(ctx context.Context, config RedisConfig, logger zerolog.Logger) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", config.Addr).
		Int("db", config.DB).
		Msg("connected to Redis cache")

	return newRedisBackend(client, logger), nil
}

func newRedisBackend(client *redis.Client, logger zerolog.Logger) *RedisBackend {
	return &RedisBackend{
		client:    client,
		logger:    logger,
		opTimeout: 2 * time.Second,
	}
}

// Get retrieves a value from Redis.
func (c *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.stats.misses.Add(1)
		return nil, ErrMiss
	}
	if err != nil {
		c.stats.misses.Add(1)
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	c.stats.hits.Add(1)
	return val, nil
}

// Add stores value with SET NX so a concurrent fill never overwrites a
// fresher entry.
func (c *RedisBackend) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	ok, err := c.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if ok {
		c.stats.adds.Add(1)
	}
	return ok, nil
}

// Delete removes a value from Redis.
func (c *RedisBackend) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// HealthCheck checks if Redis is available.
func (c *RedisBackend) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisBackend) Close() error {
	return c.client.Close()
}

// Stats returns cache statistics.
func (c *RedisBackend) Stats() Stats {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	size, err := c.client.DBSize(ctx).Result()
	if err != nil {
		c.logger.Warn().Err(err).Msg("redis dbsize failed")
		size = 0
	}

	return Stats{
		Hits:        c.stats.hits.Load(),
		Misses:      c.stats.misses.Load(),
		Adds:        c.stats.adds.Load(),
		CurrentSize: int(size),
	}
}
