package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// QuotaRepo keeps fixed-window submission counters. Each counter is a plain
// integer key that expires when its window closes.
type QuotaRepo struct {
	client *goredis.Client
	prefix string
}

func NewQuotaRepo(client *goredis.Client, prefix string) *QuotaRepo {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &QuotaRepo{client: client, prefix: prefix}
}

// IncrementWindow bumps the counter and returns the new count with the time
// left in the window. A counter found without a TTL gets one, so a crash
// between INCR and EXPIRE cannot pin a reporter forever.
func (r *QuotaRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid quota window")
	}

	fullKey := r.prefix + key
	var incr *goredis.IntCmd
	var ttl *goredis.DurationCmd
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		ttl = pipe.TTL(ctx, fullKey)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("increment quota counter: %w", err)
	}

	left := ttl.Val()
	if left < 0 {
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("set quota window: %w", err)
		}
		left = window
	}

	return incr.Val(), left, nil
}

// WindowState reads the counter without touching it. A missing key is an
// empty window.
func (r *QuotaRepo) WindowState(ctx context.Context, key string) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return 0, 0, fmt.Errorf("quota key is required")
	}

	fullKey := r.prefix + key
	var get *goredis.StringCmd
	var ttl *goredis.DurationCmd
	_, err := r.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		get = pipe.Get(ctx, fullKey)
		ttl = pipe.TTL(ctx, fullKey)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return 0, 0, fmt.Errorf("read quota counter: %w", err)
	}

	count, err := get.Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("decode quota counter: %w", err)
	}

	left := ttl.Val()
	if left < 0 {
		left = 0
	}
	return count, left, nil
}
