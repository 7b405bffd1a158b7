package usecase

import (
	"context"
	"sync"
	"time"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/featured"
)

// fakeWiki serves pageviews by day and page details by title, counting calls.
type fakeWiki struct {
	mu          sync.Mutex
	days        map[string][]domain.PageViewItem
	missing     map[string]bool
	viewsErr    error
	viewsCalls  []string
	detailCalls int
	release     chan struct{}

	// slow titles wait for detailRelease or their context.
	slow          map[string]bool
	detailRelease chan struct{}
}

func (f *fakeWiki) TopPages(ctx context.Context, _ string, day time.Time) ([]domain.PageViewItem, error) {
	f.mu.Lock()
	f.viewsCalls = append(f.viewsCalls, featured.FormatDay(day))
	release := f.release
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.viewsErr != nil {
		return nil, f.viewsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pages, ok := f.days[featured.FormatDay(day)]
	if !ok {
		return nil, domain.ErrNotPublished
	}
	return pages, nil
}

func (f *fakeWiki) PageDetails(ctx context.Context, _ string, title string) (domain.PageDetail, error) {
	f.mu.Lock()
	f.detailCalls++
	slow, release := f.slow[title], f.detailRelease
	f.mu.Unlock()

	if slow {
		select {
		case <-release:
		case <-ctx.Done():
			return domain.PageDetail{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[title] {
		return domain.PageDetail{}, &domain.HTTPStatusError{StatusCode: 404, Status: "404 Not Found"}
	}
	return domain.PageDetail{
		Title:     title,
		Extract:   title + " is trending.",
		Thumbnail: &domain.Thumbnail{Source: "https://upload.wikimedia.org/thumb/" + title + ".jpg/320px-" + title + ".jpg"},
		ContentURLs: &domain.ContentURLs{
			Desktop: &domain.PageURLs{Page: "https://en.wikipedia.org/wiki/" + title},
		},
	}, nil
}

func (f *fakeWiki) calls() (views []string, details int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.viewsCalls...), f.detailCalls
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
