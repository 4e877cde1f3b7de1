// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for SCAN walks over the key prefix.
const scanBatch = 500

// RedisCache shares cached schema entries between processes. All keys live
// under one prefix, so several deployments can use the same Redis database.
type RedisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
	closed     atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	errs   atomic.Int64
}

// RedisCacheOptions configures NewRedisCache. Zero durations and a zero
// pool size keep the go-redis defaults.
type RedisCacheOptions struct {
	URL            string
	Prefix         string
	DefaultTTL     time.Duration
	PoolSize       int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultRedisCacheOptions returns the options used when only a URL is configured.
func DefaultRedisCacheOptions() RedisCacheOptions {
	return RedisCacheOptions{
		Prefix:         "ocms:",
		DefaultTTL:     time.Hour,
		PoolSize:       10,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    3 * time.Second,
		WriteTimeout:   3 * time.Second,
	}
}

// NewRedisCache dials Redis and fails unless the server answers PING
// within the connect timeout.
func NewRedisCache(opts RedisCacheOptions) (*RedisCache, error) {
	if opts.URL == "" {
		return nil, errors.New("redis cache: URL is required")
	}

	clientOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: parsing URL: %w", err)
	}
	applyRedisOptions(clientOpts, opts)
	client := redis.NewClient(clientOpts)

	wait := opts.ConnectTimeout
	if wait <= 0 {
		wait = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache: ping: %w", err)
	}

	return &RedisCache{
		client:     client,
		prefix:     opts.Prefix,
		defaultTTL: opts.DefaultTTL,
	}, nil
}

func applyRedisOptions(dst *redis.Options, opts RedisCacheOptions) {
	if opts.PoolSize > 0 {
		dst.PoolSize = opts.PoolSize
	}
	if opts.ConnectTimeout > 0 {
		dst.DialTimeout = opts.ConnectTimeout
	}
	if opts.ReadTimeout > 0 {
		dst.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		dst.WriteTimeout = opts.WriteTimeout
	}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// failed counts a server error so /health can show a degraded cache.
func (c *RedisCache) failed(err error) error {
	c.errs.Add(1)
	return err
}

// Get returns the stored bytes, or ErrCacheMiss when the key is absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.misses.Add(1)
		return nil, ErrCacheMiss
	case err != nil:
		return nil, c.failed(err)
	}
	c.hits.Add(1)
	return data, nil
}

// Set stores value with ttl, or with the default TTL when ttl is not positive.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return c.failed(err)
	}
	c.sets.Add(1)
	return nil
}

// Delete drops one key. Deleting an absent key is not an error.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return c.failed(err)
	}
	return nil
}

// DeleteByPrefix drops every key under prefix. It walks the keyspace with
// SCAN, so keys written concurrently may survive.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	iter := c.client.Scan(ctx, 0, c.key(prefix)+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return c.failed(err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return c.failed(err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return c.failed(err)
		}
	}
	return nil
}

// Ping reports whether the server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool. Later calls are no-ops.
func (c *RedisCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.client.Close()
}

// Stats combines this process's counters with a count of the keys under
// the prefix. The key count is left at zero when the server is unreachable.
func (c *RedisCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	stats := Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Errors:  c.errs.Load(),
		HitRate: hitRate(hits, misses),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	iter := c.client.Scan(ctx, 0, c.prefix+"*", scanBatch).Iterator()
	items := 0
	for iter.Next(ctx) {
		items++
	}
	if iter.Err() == nil {
		stats.Items = items
	}
	return stats
}

var (
	_ Cacher        = (*RedisCache)(nil)
	_ StatsProvider = (*RedisCache)(nil)
)
