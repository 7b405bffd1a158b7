package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WikiTrends/internal/domain"
	"WikiTrends/internal/featured"
	"WikiTrends/internal/infrastructure/storage"
	"WikiTrends/internal/logging"
	"WikiTrends/internal/metrics"
)

type serviceFixture struct {
	wiki    *fakeWiki
	store   *storage.MemoryStore
	metrics *metrics.Metrics
	service *FeaturedService
}

func newServiceFixture(t *testing.T, wiki *fakeWiki, maxRetries, maxEntryBytes int) serviceFixture {
	t.Helper()
	return newServiceFixtureWith(t, wiki, maxRetries, maxEntryBytes, 0)
}

func newServiceFixtureWith(t *testing.T, wiki *fakeWiki, maxRetries, maxEntryBytes int, fetchTimeout time.Duration) serviceFixture {
	t.Helper()

	store, err := storage.NewMemoryStore(16, 0)
	require.NoError(t, err)

	logger := logging.Discard()
	m := metrics.New(prometheus.NewRegistry())
	svc := NewFeaturedService(FeaturedDeps{
		Resolver: featured.NewResolver(wiki, featured.ResolverConfig{MaxRetries: maxRetries}, logger),
		Enricher: featured.NewEnricher(wiki, featured.NewDenylistSet([]string{"Main_Page", "Special:"}, nil), featured.EnricherConfig{}, logger),
		Cache:    featured.NewCache(store, featured.CacheConfig{MaxEntryBytes: maxEntryBytes}, logger),
		Metrics:  m,
		Logger:   logger,
	}, FeaturedOptions{Languages: []string{"en", "de"}, FetchTimeout: fetchTimeout})

	return serviceFixture{wiki: wiki, store: store, metrics: m, service: svc}
}

func aprilWiki() *fakeWiki {
	return &fakeWiki{
		days: map[string][]domain.PageViewItem{
			"2024-03-31": {
				{Article: "Main_Page", Views: 7000000},
				{Article: "Solar_eclipse", Views: 123456},
				{Article: "Vanished_page", Views: 9000},
			},
		},
		missing: map[string]bool{"Vanished_page": true},
	}
}

func TestFetchWalksBackAndFilters(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t, aprilWiki(), featured.DefaultMaxRetries, 0)

	result := f.service.Fetch(context.Background(), day(2024, time.April, 2).Add(15*time.Hour), "en")

	require.Equal(t, domain.StatusSuccess, result.Status)
	require.Len(t, result.Data, 1)
	got := result.Data[0]
	assert.Equal(t, 1, got.Rank)
	assert.Equal(t, "Solar_eclipse", got.Title)
	assert.Equal(t, int64(123456), got.Views)
	assert.Equal(t, "123,456", got.ViewsFormatted)
	assert.Equal(t, "https://upload.wikimedia.org/thumb/Solar_eclipse.jpg/400px-Solar_eclipse.jpg", got.Image)
	assert.Equal(t, "2024-04-02", result.RequestedDate)
	assert.Equal(t, "2024-03-31", result.ResolvedDate)
	assert.False(t, result.FromCache)

	views, _ := f.wiki.calls()
	assert.Equal(t, []string{"2024-04-02", "2024-04-01", "2024-03-31"}, views)

	_, err := f.store.Get(context.Background(), "wiki_featured_en:2024-04-02")
	assert.NoError(t, err, "cached under the requested day")
	_, err = f.store.Get(context.Background(), "wiki_featured_en:2024-03-31")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestFetchCacheHitSkipsNetwork(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t, aprilWiki(), featured.DefaultMaxRetries, 0)
	ctx := context.Background()

	first := f.service.Fetch(ctx, day(2024, time.April, 2), "en")
	require.Equal(t, domain.StatusSuccess, first.Status)
	viewsBefore, detailsBefore := f.wiki.calls()

	second := f.service.Fetch(ctx, day(2024, time.April, 2).Add(20*time.Hour), "en")
	require.Equal(t, domain.StatusSuccess, second.Status)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Data, second.Data)

	viewsAfter, detailsAfter := f.wiki.calls()
	assert.Equal(t, viewsBefore, viewsAfter)
	assert.Equal(t, detailsBefore, detailsAfter)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.FetchResults.WithLabelValues("en", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EnrichDrops.WithLabelValues(featured.DropBanned)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EnrichDrops.WithLabelValues(featured.DropNotFound)))
}

func TestFetchQuotaExceededStillSucceeds(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t, aprilWiki(), featured.DefaultMaxRetries, 16)
	ctx := context.Background()

	result := f.service.Fetch(ctx, day(2024, time.April, 2), "en")
	require.Equal(t, domain.StatusSuccess, result.Status)
	require.Len(t, result.Data, 1)

	again := f.service.Fetch(ctx, day(2024, time.April, 2), "en")
	require.Equal(t, domain.StatusSuccess, again.Status)
	assert.False(t, again.FromCache)

	views, _ := f.wiki.calls()
	assert.Len(t, views, 6)
}

func TestFetchExhaustedIsNoData(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t, &fakeWiki{}, featured.DefaultMaxRetries, 0)

	result := f.service.Fetch(context.Background(), day(2024, time.April, 2), "en")

	assert.Equal(t, domain.StatusNoData, result.Status)
	assert.Empty(t, result.Data)
	assert.Empty(t, result.Message)

	views, _ := f.wiki.calls()
	require.Len(t, views, featured.DefaultMaxRetries+1)
	assert.Equal(t, "2024-03-23", views[len(views)-1])

	_, err := f.store.Get(context.Background(), "wiki_featured_en:2024-04-02")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestFetchTransportFailureIsError(t *testing.T) {
	t.Parallel()

	wiki := &fakeWiki{viewsErr: errors.New("dial tcp: connection refused")}
	f := newServiceFixture(t, wiki, featured.DefaultMaxRetries, 0)

	result := f.service.Fetch(context.Background(), day(2024, time.April, 2), "en")

	assert.Equal(t, domain.StatusError, result.Status)
	assert.Contains(t, result.Message, "connection refused")
	views, _ := wiki.calls()
	assert.Len(t, views, 1)
}

func TestFetchEveryDetailMissingIsNoData(t *testing.T) {
	t.Parallel()

	wiki := aprilWiki()
	wiki.missing["Solar_eclipse"] = true
	f := newServiceFixture(t, wiki, featured.DefaultMaxRetries, 0)

	result := f.service.Fetch(context.Background(), day(2024, time.April, 2), "en")

	assert.Equal(t, domain.StatusNoData, result.Status)
	_, err := f.store.Get(context.Background(), "wiki_featured_en:2024-04-02")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestFetchLanguageHandling(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t, aprilWiki(), featured.DefaultMaxRetries, 0)
	ctx := context.Background()

	unsupported := f.service.Fetch(ctx, day(2024, time.April, 2), "xx")
	assert.Equal(t, domain.StatusError, unsupported.Status)
	assert.Contains(t, unsupported.Message, domain.ErrUnsupportedLanguage.Error())

	defaulted := f.service.Fetch(ctx, day(2024, time.April, 2), "  ")
	assert.Equal(t, "en", defaulted.Language)
	assert.Equal(t, domain.StatusSuccess, defaulted.Status)

	assert.True(t, f.service.Supports("DE"))
	assert.False(t, f.service.Supports("pt"))

	f.service.Fetch(ctx, day(2024, time.April, 2), "zz-anything")
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.FetchResults.WithLabelValues("unsupported", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(f.metrics.FetchResults), "only en and unsupported series exist")
}

func TestFetchDeduplicatesConcurrentCalls(t *testing.T) {
	t.Parallel()

	wiki := aprilWiki()
	wiki.days["2024-04-02"] = wiki.days["2024-03-31"]
	wiki.release = make(chan struct{})
	f := newServiceFixture(t, wiki, featured.DefaultMaxRetries, 0)

	const callers = 5
	results := make([]domain.FetchResult, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.service.Fetch(context.Background(), day(2024, time.April, 2), "en")
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(wiki.release)
	wg.Wait()

	views, _ := wiki.calls()
	assert.Len(t, views, 1)
	for _, r := range results {
		assert.Equal(t, domain.StatusSuccess, r.Status)
		assert.Len(t, r.Data, 1)
	}
}

func TestFetchDefaultsToToday(t *testing.T) {
	t.Parallel()

	wiki := aprilWiki()
	logger := logging.Discard()
	svc := NewFeaturedService(FeaturedDeps{
		Resolver: featured.NewResolver(wiki, featured.ResolverConfig{MaxRetries: 3}, logger),
		Enricher: featured.NewEnricher(wiki, nil, featured.EnricherConfig{}, logger),
		Logger:   logger,
	}, FeaturedOptions{Now: func() time.Time { return day(2024, time.April, 1).Add(23 * time.Hour) }})

	result := svc.Fetch(context.Background(), time.Time{}, "")

	assert.Equal(t, "2024-04-01", result.RequestedDate)
	assert.Equal(t, "2024-03-31", result.ResolvedDate)
	require.Equal(t, domain.StatusSuccess, result.Status)
	assert.Len(t, result.Data, 2)
}

func slowEnrichmentWiki() *fakeWiki {
	return &fakeWiki{
		days: map[string][]domain.PageViewItem{
			"2024-04-02": {
				{Article: "Alpha", Views: 300},
				{Article: "Beta", Views: 200},
				{Article: "Gamma", Views: 100},
			},
		},
		slow:          map[string]bool{"Beta": true, "Gamma": true},
		detailRelease: make(chan struct{}),
	}
}

func TestFetchCancelledCallerDoesNotCacheShortList(t *testing.T) {
	t.Parallel()

	wiki := slowEnrichmentWiki()
	f := newServiceFixture(t, wiki, featured.DefaultMaxRetries, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.FetchResult, 1)
	go func() { done <- f.service.Fetch(ctx, day(2024, time.April, 2), "en") }()

	require.Eventually(t, func() bool {
		_, details := wiki.calls()
		return details == 3
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	cancelled := <-done
	assert.Equal(t, domain.StatusError, cancelled.Status)
	assert.Contains(t, cancelled.Message, context.Canceled.Error())

	close(wiki.detailRelease)
	require.Eventually(t, func() bool {
		_, err := f.store.Get(context.Background(), "wiki_featured_en:2024-04-02")
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	fresh := f.service.Fetch(context.Background(), day(2024, time.April, 2), "en")
	require.Equal(t, domain.StatusSuccess, fresh.Status)
	assert.True(t, fresh.FromCache)
	assert.Len(t, fresh.Data, 3)
}

func TestFetchTimedOutEnrichmentIsNotCached(t *testing.T) {
	t.Parallel()

	wiki := slowEnrichmentWiki()
	f := newServiceFixtureWith(t, wiki, featured.DefaultMaxRetries, 0, 50*time.Millisecond)

	result := f.service.Fetch(context.Background(), day(2024, time.April, 2), "en")

	assert.Equal(t, domain.StatusError, result.Status)
	assert.Contains(t, result.Message, context.DeadlineExceeded.Error())
	assert.Empty(t, result.Data)
	_, err := f.store.Get(context.Background(), "wiki_featured_en:2024-04-02")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.EnrichDrops.WithLabelValues(featured.DropCancelled)))
	assert.Zero(t, testutil.ToFloat64(f.metrics.EnrichDrops.WithLabelValues(featured.DropTransport)))
}

func TestFetchJoinerSurvivesCancelledLeader(t *testing.T) {
	t.Parallel()

	wiki := aprilWiki()
	wiki.days["2024-04-02"] = wiki.days["2024-03-31"]
	wiki.release = make(chan struct{})
	f := newServiceFixture(t, wiki, featured.DefaultMaxRetries, 0)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leader := make(chan domain.FetchResult, 1)
	go func() { leader <- f.service.Fetch(leaderCtx, day(2024, time.April, 2), "en") }()

	require.Eventually(t, func() bool {
		views, _ := wiki.calls()
		return len(views) == 1
	}, 2*time.Second, 5*time.Millisecond)

	joiner := make(chan domain.FetchResult, 1)
	go func() { joiner <- f.service.Fetch(context.Background(), day(2024, time.April, 2), "en") }()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	leaderResult := <-leader
	assert.Equal(t, domain.StatusError, leaderResult.Status)

	close(wiki.release)
	joined := <-joiner
	require.Equal(t, domain.StatusSuccess, joined.Status, joined.Message)
	assert.Len(t, joined.Data, 1)

	views, _ := wiki.calls()
	assert.Len(t, views, 1)
}
