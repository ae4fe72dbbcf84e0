package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Di-Twin/nlp-search-lite/internal/db"
	"github.com/Di-Twin/nlp-search-lite/internal/domain"
)

const keyPrefix = "search:cache:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores serialized ResultPages in a key-value store.
// All failures degrade to cache-miss behavior; nothing here can fail a request.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached page for (query, limit, offset), if present.
func (c *Cache) Get(ctx context.Context, query string, limit, offset int) (domain.ResultPage, bool) {
	key := c.key(query, limit, offset)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read result cache", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return domain.ResultPage{}, false
	}

	var page domain.ResultPage
	if err := json.Unmarshal(data, &page); err != nil {
		c.logger.Warn("Failed to decode cached page", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return domain.ResultPage{}, false
	}

	c.incCache("hit")
	return page, true
}

// Put stores a page best-effort; store failures are logged and swallowed.
func (c *Cache) Put(ctx context.Context, query string, limit, offset int, page domain.ResultPage) {
	key := c.key(query, limit, offset)

	data, err := json.Marshal(page)
	if err != nil {
		c.logger.Warn("Failed to encode page for cache", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to write result cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) key(query string, limit, offset int) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d", query, limit, offset))
	return keyPrefix + hex.EncodeToString(h[:])
}
