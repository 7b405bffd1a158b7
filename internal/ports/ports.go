package ports

import (
	"context"
	"time"

	"WikiTrends/internal/domain"
)

// PageViewsSource returns the ranked busiest pages of a day.
type PageViewsSource interface {
	TopPages(ctx context.Context, language string, day time.Time) ([]domain.PageViewItem, error)
}

// PageDetailSource fetches page summaries, one request per call.
type PageDetailSource interface {
	PageDetails(ctx context.Context, language, title string) (domain.PageDetail, error)
}

// SearchSource runs full-text searches against the encyclopedia.
type SearchSource interface {
	SearchPages(ctx context.Context, language, term string) ([]domain.SearchPage, error)
}

// KVStore is the best-effort key-value storage behind the featured cache.
// Get returns domain.ErrCacheMiss for absent keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// FeaturedCache stores resolved featured lists by language and requested day.
type FeaturedCache interface {
	Get(ctx context.Context, language string, day time.Time) ([]domain.FeaturedArticle, bool)
	Put(ctx context.Context, language string, day time.Time, articles []domain.FeaturedArticle) bool
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
