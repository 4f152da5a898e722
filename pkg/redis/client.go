package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seemyown/StockController/pkg/config"
	"github.com/seemyown/StockController/pkg/logger"
)

const keyNamespace = "stockctl"

// Nil is returned by Get when the key does not exist.
var Nil = redis.Nil

var errNotInitialized = errors.New("redis client not initialized")

// deleteIfValueScript removes KEYS[1] only while it still holds ARGV[1].
const deleteIfValueScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

type cmdable interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Client is the redis surface StockController needs: the cron lock,
// the last-reconciliation marker and the readiness probe.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// New connects using cfg and fails fast when the server does not answer PING.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"redis_addr": opts.Addr, "redis_db": opts.DB})
		logg.Info(ctx, "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig prefers STOCKCTL_REDIS_URL; explicit pool and timeout
// settings fill whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	default:
		return nil, errors.New("redis url or address is required")
	}

	fillInt(&opts.DB, cfg.DB)
	fillInt(&opts.PoolSize, cfg.PoolSize)
	fillInt(&opts.MinIdleConns, cfg.MinIdleConns)
	fillDuration(&opts.DialTimeout, cfg.DialTimeout)
	fillDuration(&opts.ReadTimeout, cfg.ReadTimeout)
	fillDuration(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fillInt(dst *int, value int) {
	if *dst == 0 {
		*dst = value
	}
}

func fillDuration(dst *time.Duration, value time.Duration) {
	if *dst == 0 {
		*dst = value
	}
}

func (c *Client) ready() error {
	if c == nil || c.store == nil {
		return errNotInitialized
	}
	return nil
}

// Set stores value at key; a zero ttl keeps it until overwritten.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns the value at key or Nil when it is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	return c.store.Get(ctx, key).Result()
}

// SetNX stores value only when key is free and reports whether it did.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// DeleteIfValue atomically deletes key when it still holds value.
func (c *Client) DeleteIfValue(ctx context.Context, key, value string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	deleted, err := c.store.Eval(ctx, deleteIfValueScript, []string{key}, value).Int64()
	if err != nil {
		return false, fmt.Errorf("compare and delete %s: %w", key, err)
	}
	return deleted > 0, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Ping(ctx).Err()
}

// Close releases the connection pool; clients built without New have none.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// LockKey names the lock guarding a cron job, e.g. stockctl:lock:cron-worker.
func (c *Client) LockKey(job string) string {
	return buildKey("lock", job)
}

// ReconcileMarkerKey names the key holding the last reconciliation report.
func (c *Client) ReconcileMarkerKey() string {
	return buildKey("reconcile", "last")
}

func buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
