package featured

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/ports"
)

// DefaultMaxRetries is how many earlier days are tried after the requested one.
const DefaultMaxRetries = 10

// Resolution is the accepted pageviews payload and the day it belongs to.
type Resolution struct {
	Date     time.Time
	Pages    []domain.PageViewItem
	Attempts int
}

// ResolverConfig tunes the backward date walk.
type ResolverConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

// Resolver walks back from a requested day until the aggregation has data.
type Resolver struct {
	source     ports.PageViewsSource
	maxRetries int
	backoff    time.Duration
	observe    func(attempts int)
	logger     *slog.Logger
}

// NewResolver wires the pageviews source; a negative MaxRetries disables retries.
func NewResolver(source ports.PageViewsSource, cfg ResolverConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Resolver{
		source:     source,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		logger:     logger,
	}
}

// OnResolved registers a hook receiving the number of requests of each resolution.
func (r *Resolver) OnResolved(fn func(attempts int)) {
	r.observe = fn
}

// Resolve returns the first day, starting at day and going back one calendar
// day per retry, for which the aggregation has a non-empty ranked list.
// It fails with domain.ErrNoDataForDate once the retry budget is spent, and
// with a wrapped transport error on any other upstream failure.
func (r *Resolver) Resolve(ctx context.Context, language string, day time.Time) (Resolution, error) {
	var (
		current  = day
		attempts int
		accepted Resolution
	)

	operation := func() error {
		attempts++
		pages, err := r.source.TopPages(ctx, language, current)
		switch ClassifyPageViews(pages, err) {
		case OutcomeOK:
			accepted = Resolution{Date: current, Pages: pages, Attempts: attempts}
			return nil
		case OutcomeNotFound:
			r.logger.Debug("no pageviews for day", "language", language, "date", FormatDay(current), "attempt", attempts)
			current = PreviousDay(current)
			if err == nil {
				err = domain.ErrNotPublished
			}
			return err
		default:
			return backoff.Permanent(fmt.Errorf("pageviews %s %s: %w", language, FormatDay(current), err))
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{base: r.backoff}, uint64(r.maxRetries)), ctx)
	err := backoff.Retry(operation, policy)
	if r.observe != nil {
		r.observe(attempts)
	}

	switch {
	case err == nil:
		r.logger.Info("pageviews resolved", "language", language,
			"requested", FormatDay(day), "resolved", FormatDay(accepted.Date), "attempts", attempts)
		return accepted, nil
	case errors.Is(err, domain.ErrNotPublished):
		r.logger.Info("pageviews exhausted", "language", language, "requested", FormatDay(day), "attempts", attempts)
		return Resolution{Attempts: attempts}, fmt.Errorf("%s %s after %d attempts: %w",
			language, FormatDay(day), attempts, domain.ErrNoDataForDate)
	default:
		return Resolution{Attempts: attempts}, err
	}
}

// linearBackOff waits base, 2*base, 3*base, ... between attempts.
type linearBackOff struct {
	base  time.Duration
	tries int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.tries++
	return l.base * time.Duration(l.tries)
}

func (l *linearBackOff) Reset() {
	l.tries = 0
}
