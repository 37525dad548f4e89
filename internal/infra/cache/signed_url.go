// Package cache keeps presigned URLs in redis so repeated reads of the same
// design do not re-sign every image.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roomforge/api/internal/infra/blob"
	"go.uber.org/zap"
)

// A cached URL is served for 4/5 of its signing TTL, so it is always at least
// 20% of its TTL away from expiry when handed out.
const (
	lifetimeNum = 4
	lifetimeDen = 5
)

const keyPrefix = "signed:"

type URLSigner interface {
	Sign(ctx context.Context, key string, ttl time.Duration) (string, bool)
	ExtractKey(raw string) (string, bool)
	IsStorageURL(raw string) bool
}

// Cmdable is the part of redis.Cmdable the cache needs.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachingSigner decorates a URLSigner. Redis failures degrade to signing
// directly; they are never surfaced to callers.
type CachingSigner struct {
	next URLSigner
	rdb  Cmdable
	log  *zap.Logger
}

func NewCachingSigner(next URLSigner, rdb Cmdable, log *zap.Logger) *CachingSigner {
	return &CachingSigner{next: next, rdb: rdb, log: log.Named("signed_url_cache")}
}

func (c *CachingSigner) Sign(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	if ttl <= 0 {
		ttl = blob.DefaultSignTTL
	}
	ck := cacheKey(key, ttl)

	cached, err := c.rdb.Get(ctx, ck).Result()
	switch {
	case err == nil && cached != "":
		return cached, true
	case err != nil && !errors.Is(err, redis.Nil):
		c.log.Debug("cache read failed", zap.String("key", ck), zap.Error(err))
	}

	signed, ok := c.next.Sign(ctx, key, ttl)
	if !ok {
		return "", false
	}

	lifetime := ttl * lifetimeNum / lifetimeDen
	if err := c.rdb.Set(ctx, ck, signed, lifetime).Err(); err != nil {
		c.log.Debug("cache write failed", zap.String("key", ck), zap.Error(err))
	}
	return signed, true
}

func (c *CachingSigner) ExtractKey(raw string) (string, bool) {
	return c.next.ExtractKey(raw)
}

func (c *CachingSigner) IsStorageURL(raw string) bool {
	return c.next.IsStorageURL(raw)
}

func cacheKey(objectKey string, ttl time.Duration) string {
	return keyPrefix + strconv.FormatInt(int64(ttl/time.Second), 10) + ":" + objectKey
}
