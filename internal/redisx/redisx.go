// Package redisx provides Redis client functionality
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/romangarms/WhereHaveIBeen/internal/config"
)

// Client is an alias for a Redis client
type Client = redis.Client

// Open creates a new Redis client based on configuration. Without
// REDIS_ADDR the client is nil and callers fall back to in-memory state.
func Open(cfg *config.Config) (*Client, func(), error) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, func() {}, err
	}
	closer := func() { _ = rdb.Close() }
	return rdb, closer, nil
}

// windowIncr bumps a fixed-window counter, starting the window on first hit.
var windowIncr = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then redis.call('PEXPIRE', KEYS[1], ARGV[1]) end
return current`)

// WindowCounter counts hits per key in fixed windows shared by every
// gateway instance.
type WindowCounter struct {
	rdb    redis.Scripter
	prefix string
}

func NewWindowCounter(rdb redis.Scripter, prefix string) *WindowCounter {
	return &WindowCounter{rdb: rdb, prefix: prefix}
}

// Incr returns the hit count for key in the current window.
func (w *WindowCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	res, err := windowIncr.Run(ctx, w.rdb, []string{w.prefix + key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	n, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("redisx: unexpected counter reply %T", res)
	}
	return n, nil
}
