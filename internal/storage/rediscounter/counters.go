// Package rediscounter is the optional distributed CounterStorage
// backend (SPEC_FULL.md DOMAIN STACK: redis/go-redis/v9), used when
// common.RedisConfig.Addr is set so multiple worker processes share one
// daily search-API counter and per-task AI budget counter instead of
// each tracking its own in the local Badger store.
package rediscounter

import (
	"context"
	"fmt"
	"time"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"
)

// counterTTL bounds how long a day-bucket key survives; 48h covers
// timezone skew between the worker and Redis without counters
// accumulating forever.
const counterTTL = 48 * time.Hour

// CounterStorage implements interfaces.CounterStorage on top of Redis's
// INCR, which is atomic server-side without any client-held lock.
type CounterStorage struct {
	client *redis.Client
	logger arbor.ILogger
}

// New connects to addr and returns a CounterStorage, or nil (with the
// caller expected to fall back to the Store's own counter) if addr is
// empty.
func New(addr, password string, db int, logger arbor.ILogger) *CounterStorage {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &CounterStorage{client: client, logger: logger}
}

func key(name, dayBucket string) string {
	return fmt.Sprintf("jobfinder:counter:%s:%s", name, dayBucket)
}

func (c *CounterStorage) IncrementDaily(ctx context.Context, name, dayBucket string) (int, error) {
	k := key(name, dayBucket)
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, counterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment redis counter %s: %w", k, err)
	}
	return int(incr.Val()), nil
}

func (c *CounterStorage) GetDaily(ctx context.Context, name, dayBucket string) (int, error) {
	k := key(name, dayBucket)
	val, err := c.client.Get(ctx, k).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read redis counter %s: %w", k, err)
	}
	return val, nil
}

func (c *CounterStorage) Close() error {
	return c.client.Close()
}

var _ interfaces.CounterStorage = (*CounterStorage)(nil)
