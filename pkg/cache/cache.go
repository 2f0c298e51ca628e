// Package cache provides a typed wrapper over the shared Redis cache.
//
// The wrapper owns serialization (a single JSON format, no type sniffing on
// read) and the fail-soft contract: an unreachable or timed-out cache is
// reported as a cache miss, never as a request failure. Every operation runs
// under a short bounded timeout so hot-path callers fail fast.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Nareshthota-64/Sales-CRM/pkg/observability"
)

// Config holds shared cache connection settings
type Config struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int

	// OpTimeout bounds every cache operation. The cache sits on the hot
	// path, so it must fail fast to preserve fail-open behavior upstream.
	OpTimeout time.Duration
}

// DefaultOpTimeout bounds cache calls when Config.OpTimeout is unset.
const DefaultOpTimeout = 300 * time.Millisecond

// Client handles shared cache operations
type Client struct {
	client    *redis.Client
	opTimeout time.Duration
	logger    *observability.Logger
}

// New creates a new cache client and verifies connectivity
func New(cfg Config, logger *observability.Logger) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB >= 0 {
		opts.DB = cfg.DB
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	return &Client{
		client:    client,
		opTimeout: opTimeout,
		logger:    logger,
	}, nil
}

// NewFromClient wraps an existing Redis client (used by tests with miniredis)
func NewFromClient(client *redis.Client, opTimeout time.Duration, logger *observability.Logger) *Client {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Client{client: client, opTimeout: opTimeout, logger: logger}
}

func (c *Client) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

// GetJSON retrieves and unmarshals a value. It returns false on a cache miss
// and, per the fail-soft contract, on any cache error. Corrupt entries are
// deleted so the next read goes upstream instead of failing repeatedly.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false
	} else if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache get failed, treating as miss")
		return false
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("corrupt cache entry, deleting")
		c.client.Del(ctx, key)
		return false
	}

	return true
}

// SetJSON marshals and stores a value with the given TTL. The error is
// returned so callers can log it; callers must not fail the request on it.
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys from the cache
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	return c.client.Del(ctx, keys...).Err()
}

// Exists reports whether a key is present. Fail-soft: errors report false.
func (c *Client) Exists(ctx context.Context, key string) bool {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache exists failed, treating as absent")
		return false
	}
	return n > 0
}

// Incr atomically increments a counter and returns the post-increment value.
// The increment must be a single atomic server-side operation; the rate
// limiter's correctness under concurrency depends on it.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	return c.client.Incr(ctx, key).Result()
}

// GetInt reads an integer counter, treating a missing key as zero
func (c *Client) GetInt(ctx context.Context, key string) (int64, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	val, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Expire sets a key's TTL
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	return c.client.Expire(ctx, key, ttl).Err()
}

// TTL returns the remaining time to live of a key
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	return c.client.TTL(ctx, key).Result()
}

// AddSetMember adds a member to a set and refreshes the set's TTL. Used for
// the per-subject index of identity cache keys, which enables exact
// enumeration and deletion on invalidation.
func (c *Client) AddSetMember(ctx context.Context, key, member string, ttl time.Duration) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	pipe := c.client.Pipeline()
	pipe.SAdd(ctx, key, member)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// SetMembers returns all members of a set; a missing set is empty, not an error
func (c *Client) SetMembers(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	return c.client.SMembers(ctx, key).Result()
}

// Ping checks cache connectivity
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	return c.client.Ping(ctx).Err()
}

// Underlying returns the raw Redis client for health checks
func (c *Client) Underlying() *redis.Client {
	return c.client
}

// Close closes the cache connection
func (c *Client) Close() error {
	return c.client.Close()
}
