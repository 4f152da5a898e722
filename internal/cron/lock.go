package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Lock coordinates exclusive cron runs.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
}

// RedisLock is a SETNX lock with a TTL and a per-acquire owner token.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// Acquire tries to own the lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only while this instance still owns it. A lock that
// expired and was taken by another worker is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	if _, err := l.client.DeleteIfValue(ctx, l.key, owner); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}

// LocalLock serializes cycles inside one process when Redis is not configured.
type LocalLock struct {
	mu   sync.Mutex
	held bool
}

func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

func (l *LocalLock) Acquire(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *LocalLock) Release(context.Context) error {
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
	return nil
}
