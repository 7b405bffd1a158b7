package usecase

import (
	"context"
	"log/slog"
	"time"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/ports"
)

// Fetcher is the slice of FeaturedService the warmer needs.
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time, language string) domain.FetchResult
}

// Warmer pre-fills the featured cache for a set of languages on a schedule.
type Warmer struct {
	driver    ports.Scheduler
	fetcher   Fetcher
	languages []string
	logger    *slog.Logger
}

// NewWarmer returns a helper that registers a warm-up job with driver.
func NewWarmer(driver ports.Scheduler, fetcher Fetcher, languages []string, logger *slog.Logger) *Warmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Warmer{driver: driver, fetcher: fetcher, languages: languages, logger: logger}
}

// Warm fetches the list for day in every configured language, one at a time,
// and returns the results in language order.
func (w *Warmer) Warm(ctx context.Context, day time.Time) []domain.FetchResult {
	results := make([]domain.FetchResult, 0, len(w.languages))
	for _, lang := range w.languages {
		if ctx.Err() != nil {
			break
		}
		result := w.fetcher.Fetch(ctx, day, lang)
		w.logger.Info("cache warmed", "language", lang, "status", result.Status,
			"resolved", result.ResolvedDate, "articles", len(result.Data), "fromCache", result.FromCache)
		results = append(results, result)
	}
	return results
}

// Start registers Warm with the scheduler driver.
func (w *Warmer) Start(ctx context.Context) error {
	if w.driver == nil || w.fetcher == nil {
		return nil
	}
	return w.driver.Start(ctx, func(trigger time.Time) {
		w.Warm(ctx, trigger)
	})
}

// Stop tears down the underlying scheduler.
func (w *Warmer) Stop(ctx context.Context) error {
	if w.driver == nil {
		return nil
	}
	return w.driver.Stop(ctx)
}
