package featured

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/ports"
)

// DefaultKeyPrefix namespaces featured entries inside a shared store.
const DefaultKeyPrefix = "wiki_featured_"

// CacheConfig tunes key naming and the per-entry quota.
type CacheConfig struct {
	KeyPrefix     string
	MaxEntryBytes int
	Location      *time.Location
}

// Cache keeps resolved featured lists keyed by language and requested day.
// Every failure is logged and reported as a miss or a false Put.
type Cache struct {
	store         ports.KVStore
	prefix        string
	maxEntryBytes int
	loc           *time.Location
	logger        *slog.Logger
}

var _ ports.FeaturedCache = (*Cache)(nil)

// NewCache wraps store; a nil store gives a cache that never hits.
func NewCache(store ports.KVStore, cfg CacheConfig, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Cache{
		store:         store,
		prefix:        cfg.KeyPrefix,
		maxEntryBytes: cfg.MaxEntryBytes,
		loc:           cfg.Location,
		logger:        logger,
	}
}

// Key renders the storage key, e.g. "wiki_featured_en:2024-04-02".
func (c *Cache) Key(language string, day time.Time) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, language, FormatDay(Day(day, c.loc)))
}

// Get returns the cached list or false. Entries that do not decode to a list
// are removed.
func (c *Cache) Get(ctx context.Context, language string, day time.Time) ([]domain.FeaturedArticle, bool) {
	if c.store == nil {
		return nil, false
	}

	key := c.Key(language, day)
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var articles []domain.FeaturedArticle
	if err := json.Unmarshal(raw, &articles); err != nil || articles == nil {
		c.logger.Warn("invalid cache entry, clearing", "key", key, "error", err)
		if dErr := c.store.Delete(ctx, key); dErr != nil {
			c.logger.Warn("cache delete failed", "key", key, "error", dErr)
		}
		return nil, false
	}
	if len(articles) == 0 {
		return nil, false
	}
	return articles, true
}

// Put stores articles and reports whether the write happened.
func (c *Cache) Put(ctx context.Context, language string, day time.Time, articles []domain.FeaturedArticle) bool {
	if c.store == nil || articles == nil {
		return false
	}

	key := c.Key(language, day)
	raw, err := json.Marshal(articles)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return false
	}
	if c.maxEntryBytes > 0 && len(raw) > c.maxEntryBytes {
		c.logger.Warn("cache quota exceeded, not caching", "key", key, "bytes", len(raw), "error", domain.ErrQuotaExceeded)
		return false
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
		return false
	}
	return true
}

// Clear removes every featured entry and returns how many were dropped.
func (c *Cache) Clear(ctx context.Context) int {
	if c.store == nil {
		return 0
	}
	n, err := c.store.DeletePrefix(ctx, c.prefix)
	if err != nil {
		c.logger.Warn("cache clear failed", "prefix", c.prefix, "error", err)
	}
	return n
}
