package featured

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/ports"
)

// Defaults of the enrichment round.
const (
	DefaultMaxArticles = 50
	DefaultImageWidth  = 400
)

// Drop reasons reported to the OnDrop hook.
const (
	DropBanned    = "banned"
	DropNotFound  = "not_found"
	DropTransport = "transport_error"
	DropCancelled = "cancelled"
)

// EnricherConfig tunes the enrichment round.
type EnricherConfig struct {
	ImageWidth  int
	Concurrency int
}

// Enricher turns ranked (title, views) rows into displayable articles.
type Enricher struct {
	details     ports.PageDetailSource
	denylists   *DenylistSet
	formatter   *ViewsFormatter
	imageWidth  int
	concurrency int
	onDrop      func(reason string)
	logger      *slog.Logger
}

// NewEnricher wires the detail source and denylists.
func NewEnricher(details ports.PageDetailSource, denylists *DenylistSet, cfg EnricherConfig, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ImageWidth <= 0 {
		cfg.ImageWidth = DefaultImageWidth
	}
	return &Enricher{
		details:     details,
		denylists:   denylists,
		formatter:   NewViewsFormatter(),
		imageWidth:  cfg.ImageWidth,
		concurrency: cfg.Concurrency,
		logger:      logger,
	}
}

// OnDrop registers a hook called once per page left out of the result.
func (e *Enricher) OnDrop(fn func(reason string)) {
	e.onDrop = fn
}

// Enrich takes the first maxArticles rows, drops denylisted titles, fetches
// every remaining page concurrently and waits for all of them. Pages whose
// lookup fails are skipped; survivors keep the input order and are ranked 1..N.
func (e *Enricher) Enrich(ctx context.Context, language string, pages []domain.PageViewItem, maxArticles int) []domain.FeaturedArticle {
	if maxArticles <= 0 {
		maxArticles = DefaultMaxArticles
	}
	if len(pages) > maxArticles {
		pages = pages[:maxArticles]
	}

	denylist := e.denylists.For(language)
	candidates := make([]domain.PageViewItem, 0, len(pages))
	for _, p := range pages {
		if p.Article == "" {
			continue
		}
		if !denylist.IsAllowed(p.Article) {
			e.drop(DropBanned)
			continue
		}
		candidates = append(candidates, p)
	}

	built := mapAll(ctx, candidates, e.concurrency, func(ctx context.Context, item domain.PageViewItem) (domain.FeaturedArticle, bool) {
		return e.build(ctx, language, item)
	})

	articles := make([]domain.FeaturedArticle, 0, len(built))
	for _, b := range built {
		if !b.ok {
			continue
		}
		article := b.value
		article.Rank = len(articles) + 1
		article.ViewsFormatted = e.formatter.Format(language, article.Views)
		articles = append(articles, article)
	}
	return articles
}

func (e *Enricher) build(ctx context.Context, language string, item domain.PageViewItem) (domain.FeaturedArticle, bool) {
	detail, err := e.details.PageDetails(ctx, language, item.Article)
	switch outcome := ClassifyDetail(detail, err); outcome {
	case OutcomeOK:
	case OutcomeNotFound:
		e.logger.Warn("skip page without details", "language", language, "title", item.Article, "reason", outcome.String())
		e.drop(DropNotFound)
		return domain.FeaturedArticle{}, false
	case OutcomeCancelled:
		e.logger.Debug("page lookup cancelled", "language", language, "title", item.Article, "error", err)
		e.drop(DropCancelled)
		return domain.FeaturedArticle{}, false
	default:
		e.logger.Warn("skip page after lookup failure", "language", language, "title", item.Article, "reason", outcome.String(), "error", err)
		e.drop(DropTransport)
		return domain.FeaturedArticle{}, false
	}

	image := detail.ThumbnailSource()
	if image != "" {
		normalized, nErr := NormalizeImageURL(image, e.imageWidth)
		if nErr != nil {
			e.logger.Warn("keep original thumbnail", "title", detail.Title, "error", nErr)
		}
		image = normalized
	}

	return domain.FeaturedArticle{
		Title: detail.Title,
		Text:  ArticleText(detail),
		Link:  ArticleLink(detail),
		Image: image,
		Views: item.Views,
	}, true
}

func (e *Enricher) drop(reason string) {
	if e.onDrop != nil {
		e.onDrop(reason)
	}
}

type settled[T any] struct {
	value T
	ok    bool
}

// mapAll runs fn over items concurrently and settles every call; a failed
// call only marks its own slot. limit <= 0 means no bound.
func mapAll[In, Out any](ctx context.Context, items []In, limit int, fn func(context.Context, In) (Out, bool)) []settled[Out] {
	results := make([]settled[Out], len(items))
	if len(items) == 0 {
		return results
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			v, ok := fn(ctx, item)
			results[i] = settled[Out]{value: v, ok: ok}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
