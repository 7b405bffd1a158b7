package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/featured"
	"WikiTrends/internal/ports"
)

const shortDescriptionProp = "wikibase-shortdesc"

// SearchService maps MediaWiki search hits into lightweight items.
type SearchService struct {
	source      ports.SearchSource
	defaultLang string
	logger      *slog.Logger
}

// NewSearchService wires the search source.
func NewSearchService(source ports.SearchSource, defaultLanguage string, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &SearchService{source: source, defaultLang: defaultLanguage, logger: logger}
}

// Search runs a single request for term. It is neither cached nor retried.
func (s *SearchService) Search(ctx context.Context, term, language string) (domain.SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return domain.SearchResult{}, domain.ErrEmptySearchTerm
	}
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		lang = s.defaultLang
	}

	pages, err := s.source.SearchPages(ctx, lang, term)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("search: %w", err)
	}

	items := make([]domain.SearchItem, 0, len(pages))
	for _, p := range pages {
		if p.Title == "" {
			continue
		}
		items = append(items, s.item(p))
	}
	s.logger.Debug("search done", "language", lang, "term", term, "hits", len(items))

	return domain.SearchResult{Term: term, Language: lang, Items: items}, nil
}

func (s *SearchService) item(p domain.SearchPage) domain.SearchItem {
	item := domain.SearchItem{
		Index: p.Index,
		Title: p.Title,
		Text:  s.text(p),
		Tags:  []string{},
		Link:  p.CanonicalURL,
	}
	if p.Terms != nil && len(p.Terms.Alias) > 0 {
		item.Tags = append(item.Tags, p.Terms.Alias...)
	}
	if item.Link == "" {
		item.Link = featured.FallbackLink
	}
	if p.Thumbnail != nil {
		item.Image = p.Thumbnail.Source
	}
	return item
}

func (s *SearchService) text(p domain.SearchPage) string {
	if extract := strings.TrimSpace(p.Extract); extract != "" {
		return stripMarkup(extract)
	}
	return strings.TrimSpace(p.PageProps[shortDescriptionProp])
}

// stripMarkup flattens an HTML extract to plain text with single spaces.
func stripMarkup(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
