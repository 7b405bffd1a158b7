package featured

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/logging"
)

func detailFor(title string) domain.PageDetail {
	return domain.PageDetail{
		Title:     title,
		Extract:   title + " extract",
		Thumbnail: &domain.Thumbnail{Source: "https://upload.wikimedia.org/thumb/a/" + title + ".jpg/320px-" + title + ".jpg"},
		ContentURLs: &domain.ContentURLs{
			Desktop: &domain.PageURLs{Page: "https://en.wikipedia.org/wiki/" + title},
		},
	}
}

func newTestEnricher(details detailsFunc, banned ...string) *Enricher {
	return NewEnricher(details, NewDenylistSet(banned, nil), EnricherConfig{}, logging.Discard())
}

func TestEnrichRanksDenselyAfterFiltering(t *testing.T) {
	t.Parallel()

	details := detailsFunc(func(_ context.Context, _ string, title string) (domain.PageDetail, error) {
		switch title {
		case "Missing":
			return domain.PageDetail{}, &domain.HTTPStatusError{StatusCode: 404, Status: "404 Not Found"}
		case "Broken":
			return domain.PageDetail{}, errors.New("connection reset")
		}
		return detailFor(title), nil
	})
	e := newTestEnricher(details, "Main_Page", "Special:")

	var mu sync.Mutex
	drops := map[string]int{}
	e.OnDrop(func(reason string) {
		mu.Lock()
		drops[reason]++
		mu.Unlock()
	})

	pages := []domain.PageViewItem{
		{Article: "Main_Page", Views: 9000000},
		{Article: "Alpha", Views: 5000},
		{Article: "Missing", Views: 4000},
		{Article: "Special:Search", Views: 3500},
		{Article: "Beta", Views: 3000},
		{Article: "Broken", Views: 2000},
		{Article: "Gamma", Views: 1234},
	}

	got := e.Enrich(context.Background(), "en", pages, 50)
	require.Len(t, got, 3)

	for i, a := range got {
		assert.Equal(t, i+1, a.Rank)
	}
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, []string{got[0].Title, got[1].Title, got[2].Title})

	gamma := got[2]
	assert.Equal(t, int64(1234), gamma.Views)
	assert.Equal(t, "1,234", gamma.ViewsFormatted)
	assert.Equal(t, "Gamma extract", gamma.Text)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Gamma", gamma.Link)
	assert.Equal(t, "https://upload.wikimedia.org/thumb/a/Gamma.jpg/400px-Gamma.jpg", gamma.Image)

	assert.Equal(t, map[string]int{DropBanned: 2, DropNotFound: 1, DropTransport: 1}, drops)
}

func TestEnrichTakesHeadBeforeFiltering(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	details := detailsFunc(func(_ context.Context, _ string, title string) (domain.PageDetail, error) {
		calls.Add(1)
		return detailFor(title), nil
	})
	e := newTestEnricher(details, "Main_Page")

	pages := []domain.PageViewItem{
		{Article: "Main_Page", Views: 100},
		{Article: "A", Views: 90},
		{Article: "B", Views: 80},
		{Article: "C", Views: 70},
	}
	got := e.Enrich(context.Background(), "en", pages, 3)

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "B", got[1].Title)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEnrichDefaultsToFiftyArticles(t *testing.T) {
	t.Parallel()

	details := detailsFunc(func(_ context.Context, _ string, title string) (domain.PageDetail, error) {
		return detailFor(title), nil
	})
	e := newTestEnricher(details)

	pages := make([]domain.PageViewItem, 80)
	for i := range pages {
		pages[i] = domain.PageViewItem{Article: fmt.Sprintf("Page_%02d", i), Views: int64(1000 - i)}
	}

	got := e.Enrich(context.Background(), "en", pages, 0)
	require.Len(t, got, DefaultMaxArticles)
	assert.Equal(t, "Page_49", got[49].Title)
	assert.Equal(t, 50, got[49].Rank)
}

func TestEnrichRunsLookupsConcurrently(t *testing.T) {
	t.Parallel()

	const n = 8
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	details := detailsFunc(func(_ context.Context, _ string, title string) (domain.PageDetail, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		if cur == n {
			close(release)
		}
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		inFlight.Add(-1)
		return detailFor(title), nil
	})
	e := newTestEnricher(details)

	pages := make([]domain.PageViewItem, n)
	for i := range pages {
		pages[i] = domain.PageViewItem{Article: fmt.Sprintf("P%d", i), Views: 1}
	}

	start := time.Now()
	got := e.Enrich(context.Background(), "en", pages, 50)
	assert.Len(t, got, n)
	assert.Equal(t, int32(n), peak.Load())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEnrichSlowLookupDoesNotDropOthers(t *testing.T) {
	t.Parallel()

	details := detailsFunc(func(_ context.Context, _ string, title string) (domain.PageDetail, error) {
		if title == "Slow" {
			time.Sleep(50 * time.Millisecond)
			return domain.PageDetail{}, errors.New("timeout")
		}
		return detailFor(title), nil
	})
	e := newTestEnricher(details)

	got := e.Enrich(context.Background(), "en", []domain.PageViewItem{
		{Article: "Slow", Views: 3}, {Article: "Fast", Views: 2},
	}, 50)
	require.Len(t, got, 1)
	assert.Equal(t, "Fast", got[0].Title)
	assert.Equal(t, 1, got[0].Rank)
}

func TestEnrichAllLookupsFail(t *testing.T) {
	t.Parallel()

	details := detailsFunc(func(context.Context, string, string) (domain.PageDetail, error) {
		return domain.PageDetail{}, errors.New("network unreachable")
	})
	e := newTestEnricher(details)

	got := e.Enrich(context.Background(), "en", []domain.PageViewItem{
		{Article: "A", Views: 3}, {Article: "B", Views: 2},
	}, 50)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEnrichReportsCancelledLookupsSeparately(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	details := detailsFunc(func(ctx context.Context, _ string, title string) (domain.PageDetail, error) {
		if title == "Fast" {
			return detailFor(title), nil
		}
		cancel()
		<-ctx.Done()
		return domain.PageDetail{}, fmt.Errorf("details %s: %w", title, ctx.Err())
	})
	e := newTestEnricher(details)

	var mu sync.Mutex
	drops := map[string]int{}
	e.OnDrop(func(reason string) {
		mu.Lock()
		drops[reason]++
		mu.Unlock()
	})

	got := e.Enrich(ctx, "en", []domain.PageViewItem{
		{Article: "Fast", Views: 3}, {Article: "Slow1", Views: 2}, {Article: "Slow2", Views: 1},
	}, 50)

	require.Len(t, got, 1)
	assert.Equal(t, "Fast", got[0].Title)
	assert.Equal(t, 2, drops[DropCancelled])
	assert.Zero(t, drops[DropTransport])
}

func TestEnrichFieldFallbacks(t *testing.T) {
	t.Parallel()

	details := detailsFunc(func(_ context.Context, _ string, title string) (domain.PageDetail, error) {
		return domain.PageDetail{Title: title, Description: "desc only"}, nil
	})
	e := newTestEnricher(details)

	got := e.Enrich(context.Background(), "de", []domain.PageViewItem{{Article: "Bare", Views: 1234567}}, 50)
	require.Len(t, got, 1)
	assert.Equal(t, "desc only", got[0].Text)
	assert.Equal(t, FallbackLink, got[0].Link)
	assert.Empty(t, got[0].Image)
	assert.Equal(t, "1.234.567", got[0].ViewsFormatted)
}

func TestEnrichRespectsConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	details := detailsFunc(func(_ context.Context, _ string, title string) (domain.PageDetail, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return detailFor(title), nil
	})
	e := NewEnricher(details, nil, EnricherConfig{Concurrency: 2}, logging.Discard())

	pages := make([]domain.PageViewItem, 10)
	for i := range pages {
		pages[i] = domain.PageViewItem{Article: fmt.Sprintf("P%d", i), Views: 1}
	}
	got := e.Enrich(context.Background(), "en", pages, 50)
	assert.Len(t, got, 10)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
