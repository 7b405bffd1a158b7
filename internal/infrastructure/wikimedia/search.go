package wikimedia

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"WikiTrends/internal/domain"
)

type searchResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Query struct {
		Pages map[string]domain.SearchPage `json:"pages"`
	} `json:"query"`
}

// SearchURL renders the MediaWiki generator=search request target. Extracts
// are requested as HTML and flattened to text by the caller.
func (c *Client) SearchURL(language, term string) string {
	limit := c.search.Limit
	if limit <= 0 {
		limit = 10
	}
	thumb := c.search.ThumbSize
	if thumb <= 0 {
		thumb = 500
	}
	sentences := c.search.ExtractSentences
	if sentences <= 0 {
		sentences = 2
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("formatversion", "1")
	q.Set("action", "query")
	q.Set("generator", "search")
	q.Set("gsrsearch", term)
	q.Set("gsrnamespace", "0")
	q.Set("gsrlimit", strconv.Itoa(limit))
	q.Set("prop", "pageimages|extracts|pageterms|info|pageprops")
	q.Set("inprop", "url")
	q.Set("pilimit", "max")
	q.Set("pithumbsize", strconv.Itoa(thumb))
	q.Set("exintro", "1")
	q.Set("exsentences", strconv.Itoa(sentences))
	q.Set("exlimit", "max")
	q.Set("origin", "*")

	return expand(c.searchURL, "lang", language) + "?" + q.Encode()
}

// SearchPages runs one search request and returns pages ordered by search rank.
func (c *Client) SearchPages(ctx context.Context, language, term string) ([]domain.SearchPage, error) {
	var payload searchResponse
	if err := c.getJSON(ctx, c.SearchURL(language, term), &payload); err != nil {
		return nil, fmt.Errorf("search %s %q: %w", language, term, err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("search %s %q: %s: %s", language, term, payload.Error.Code, payload.Error.Info)
	}

	pages := make([]domain.SearchPage, 0, len(payload.Query.Pages))
	for _, p := range payload.Query.Pages {
		pages = append(pages, p)
	}
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Index != pages[j].Index {
			return pages[i].Index < pages[j].Index
		}
		return pages[i].PageID < pages[j].PageID
	})
	return pages, nil
}
