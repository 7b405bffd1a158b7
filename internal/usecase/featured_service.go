package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/featured"
	"WikiTrends/internal/metrics"
	"WikiTrends/internal/ports"
)

// FeaturedDeps wires the pipeline components into the featured service.
type FeaturedDeps struct {
	Resolver *featured.Resolver
	Enricher *featured.Enricher
	Cache    ports.FeaturedCache
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// FeaturedOptions tunes the featured service.
type FeaturedOptions struct {
	MaxArticles     int
	DefaultLanguage string
	Languages       []string
	Location        *time.Location
	Now             func() time.Time
	// FetchTimeout bounds one shared resolution; 0 leaves it unbounded.
	FetchTimeout time.Duration
}

// unsupportedLabel replaces unknown languages in metric labels.
const unsupportedLabel = "unsupported"

// FeaturedService answers "what was trending on day D in language L".
type FeaturedService struct {
	resolver    *featured.Resolver
	enricher    *featured.Enricher
	cache       ports.FeaturedCache
	metrics     *metrics.Metrics
	logger      *slog.Logger
	flights     singleflight.Group
	maxArticles int
	defaultLang string
	languages   map[string]struct{}
	loc         *time.Location
	now         func() time.Time
	timeout     time.Duration
}

// NewFeaturedService builds the orchestrator. An empty Languages list accepts
// any language.
func NewFeaturedService(deps FeaturedDeps, opts FeaturedOptions) *FeaturedService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = featured.DefaultMaxArticles
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var languages map[string]struct{}
	if len(opts.Languages) > 0 {
		languages = make(map[string]struct{}, len(opts.Languages))
		for _, l := range opts.Languages {
			languages[strings.ToLower(l)] = struct{}{}
		}
	}

	if deps.Metrics != nil {
		if deps.Resolver != nil {
			deps.Resolver.OnResolved(deps.Metrics.Resolved)
		}
		if deps.Enricher != nil {
			deps.Enricher.OnDrop(deps.Metrics.Dropped)
		}
	}

	return &FeaturedService{
		resolver:    deps.Resolver,
		enricher:    deps.Enricher,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		logger:      logger,
		maxArticles: opts.MaxArticles,
		defaultLang: strings.ToLower(opts.DefaultLanguage),
		languages:   languages,
		loc:         opts.Location,
		now:         opts.Now,
		timeout:     opts.FetchTimeout,
	}
}

// Fetch returns the featured list for date (zero means today) in language
// (empty means the default language). It never returns an error value: every
// failure is folded into the result status.
func (s *FeaturedService) Fetch(ctx context.Context, date time.Time, language string) domain.FetchResult {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		lang = s.defaultLang
	}
	if date.IsZero() {
		date = s.now()
	}
	day := featured.Day(date, s.loc)

	result := s.fetch(ctx, day, lang)
	result.Language = lang
	result.RequestedDate = featured.FormatDay(day)

	label := lang
	if !s.Supports(lang) {
		label = unsupportedLabel
	}
	s.metrics.FetchResult(label, string(result.Status))
	return result
}

func (s *FeaturedService) fetch(ctx context.Context, day time.Time, lang string) domain.FetchResult {
	if !s.Supports(lang) {
		return domain.Failure(fmt.Sprintf("%s: %q", domain.ErrUnsupportedLanguage, lang))
	}

	if s.cache != nil {
		articles, ok := s.cache.Get(ctx, lang, day)
		s.metrics.CacheLookup(ok)
		if ok {
			s.logger.Debug("featured cache hit", "language", lang, "date", featured.FormatDay(day))
			result := domain.Success(articles)
			result.FromCache = true
			return result
		}
	}

	// The shared resolution is detached from any single caller; each caller
	// stops waiting on its own context.
	key := lang + ":" + featured.FormatDay(day)
	ch := s.flights.DoChan(key, func() (any, error) {
		flightCtx := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			flightCtx, cancel = context.WithTimeout(flightCtx, s.timeout)
			defer cancel()
		}
		return s.resolveAndEnrich(flightCtx, day, lang), nil
	})

	select {
	case res := <-ch:
		result := res.Val.(domain.FetchResult)
		if res.Shared {
			result.Data = slices.Clone(result.Data)
		}
		return result
	case <-ctx.Done():
		return domain.Failure(ctx.Err().Error())
	}
}

func (s *FeaturedService) resolveAndEnrich(ctx context.Context, day time.Time, lang string) domain.FetchResult {
	if s.resolver == nil || s.enricher == nil {
		return domain.Failure("featured pipeline is not configured")
	}

	resolution, err := s.resolver.Resolve(ctx, lang, day)
	if errors.Is(err, domain.ErrNoDataForDate) {
		return domain.NoData()
	}
	if err != nil {
		s.logger.Error("featured resolution failed", "language", lang, "date", featured.FormatDay(day), "error", err)
		return domain.Failure(err.Error())
	}

	articles := s.enricher.Enrich(ctx, lang, resolution.Pages, s.maxArticles)
	if err := ctx.Err(); err != nil {
		s.logger.Warn("featured enrichment cut short, not caching", "language", lang, "date", featured.FormatDay(day), "error", err)
		return domain.Failure(err.Error())
	}
	result := domain.Success(articles)
	result.ResolvedDate = featured.FormatDay(resolution.Date)
	if result.Status != domain.StatusSuccess {
		s.logger.Info("featured list empty after enrichment", "language", lang, "resolved", result.ResolvedDate)
		return result
	}

	if s.cache != nil {
		s.cache.Put(ctx, lang, day, articles)
	}
	return result
}

// Supports reports whether language is in the configured set.
func (s *FeaturedService) Supports(language string) bool {
	if s.languages == nil {
		return true
	}
	_, ok := s.languages[strings.ToLower(language)]
	return ok
}

// DefaultLanguage is used when a caller passes no language.
func (s *FeaturedService) DefaultLanguage() string {
	return s.defaultLang
}
