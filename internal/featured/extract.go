package featured

import (
	"strings"

	"WikiTrends/internal/domain"
)

// FieldStrategy extracts one candidate value from a page summary.
type FieldStrategy struct {
	Name    string
	Extract func(domain.PageDetail) (string, bool)
}

// FirstPresent tries strategies in order and returns the first present value.
func FirstPresent(detail domain.PageDetail, strategies []FieldStrategy, fallback string) string {
	for _, s := range strategies {
		if v, ok := s.Extract(detail); ok {
			return v
		}
	}
	return fallback
}

func present(v string) (string, bool) {
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// TextStrategies: long extract, then short description.
var TextStrategies = []FieldStrategy{
	{Name: "extract", Extract: func(d domain.PageDetail) (string, bool) { return present(d.Extract) }},
	{Name: "description", Extract: func(d domain.PageDetail) (string, bool) { return present(d.Description) }},
}

// LinkStrategies: desktop content URL, then the search-style canonical URL.
var LinkStrategies = []FieldStrategy{
	{Name: "desktop", Extract: func(d domain.PageDetail) (string, bool) { return present(d.DesktopPage()) }},
	{Name: "canonical", Extract: func(d domain.PageDetail) (string, bool) { return present(d.CanonicalURL) }},
}

// FallbackLink is used when no link strategy yields a URL.
const FallbackLink = "/"

// ArticleText returns the best available description of a page.
func ArticleText(d domain.PageDetail) string {
	return FirstPresent(d, TextStrategies, "")
}

// ArticleLink returns the canonical article URL or FallbackLink.
func ArticleLink(d domain.PageDetail) string {
	return FirstPresent(d, LinkStrategies, FallbackLink)
}
