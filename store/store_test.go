package store

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leopold7/zenfeed-go/model"
	"github.com/leopold7/zenfeed-go/storage"
)

type stubClient struct {
	feeds []model.Feed
	err   error
	calls atomic.Int32
}

func (s *stubClient) FetchFeeds(_ context.Context, _ model.FeedRequest) ([]model.Feed, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.feeds, nil
}

func feed(title, ts string) model.Feed {
	return model.Feed{Labels: model.FeedLabels{Title: title, Category: "tech"}, Time: ts}
}

func newTestCache(t *testing.T) *ContentCache {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContentCache(db, DefaultCacheTTL)
}

func newTestStore(t *testing.T, cache *ContentCache, sources ...Source) *Store {
	t.Helper()
	disabled := false
	s, err := NewStore(Config{
		Sources:               sources,
		Timeout:               5 * time.Second,
		CircuitBreakerEnabled: &disabled,
		Logger:                slog.New(slog.DiscardHandler),
	}, cache)
	require.NoError(t, err)
	return s
}

func TestNewStoreRequiresSources(t *testing.T) {
	_, err := NewStore(Config{}, newTestCache(t))
	assert.Error(t, err)
}

func TestFetchMergesAndSorts(t *testing.T) {
	a := &stubClient{feeds: []model.Feed{
		feed("Old", "2024-01-01T00:00:00Z"),
		feed("Newest", "2024-03-01T00:00:00Z"),
	}}
	b := &stubClient{feeds: []model.Feed{
		feed("Middle", "2024-02-01T00:00:00Z"),
	}}
	s := newTestStore(t, newTestCache(t), Source{ID: "", Client: a}, Source{ID: "s2", Client: b})

	resp, err := s.Fetch(context.Background(), FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Count)

	titles := []string{resp.Feeds[0].Labels.Title, resp.Feeds[1].Labels.Title, resp.Feeds[2].Labels.Title}
	assert.Equal(t, []string{"Newest", "Middle", "Old"}, titles)

	for i := 1; i < len(resp.Feeds); i++ {
		assert.GreaterOrEqual(t,
			model.TimeSortKey(resp.Feeds[i-1].Time),
			model.TimeSortKey(resp.Feeds[i].Time))
	}
}

func TestFetchTieBreaksByTitle(t *testing.T) {
	a := &stubClient{feeds: []model.Feed{
		feed("Beta", "2024-01-01T00:00:00Z"),
		feed("Alpha", "2024-01-01T00:00:00Z"),
	}}
	s := newTestStore(t, newTestCache(t), Source{ID: "", Client: a})

	resp, err := s.Fetch(context.Background(), FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", resp.Feeds[0].Labels.Title)
	assert.Equal(t, "Beta", resp.Feeds[1].Labels.Title)
}

func TestFetchStampsServerID(t *testing.T) {
	a := &stubClient{feeds: []model.Feed{feed("Primary", "2024-01-02T00:00:00Z")}}
	b := &stubClient{feeds: []model.Feed{feed("Secondary", "2024-01-01T00:00:00Z")}}
	s := newTestStore(t, newTestCache(t), Source{ID: "", Client: a}, Source{ID: "s2", Client: b})

	resp, err := s.Fetch(context.Background(), FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "", resp.Feeds[0].ServerID)
	assert.Equal(t, "s2", resp.Feeds[1].ServerID)
}

func TestFetchPartialFailure(t *testing.T) {
	ok := &stubClient{feeds: []model.Feed{feed("Survivor", "2024-01-01T00:00:00Z")}}
	failing := &stubClient{err: errors.New("boom")}
	s := newTestStore(t, newTestCache(t), Source{ID: "a", Client: ok}, Source{ID: "b", Client: failing})

	resp, err := s.Fetch(context.Background(), FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Survivor", resp.Feeds[0].Labels.Title)
	assert.Equal(t, "a", resp.Feeds[0].ServerID)
	assert.Empty(t, resp.Error)
}

func TestFetchAllFailNoCache(t *testing.T) {
	failing := &stubClient{err: errors.New("boom")}
	s := newTestStore(t, newTestCache(t), Source{ID: "a", Client: failing})

	_, err := s.Fetch(context.Background(), FetchOptions{})
	require.Error(t, err)
	var fe *model.FeedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, model.ErrorTypeAllSourcesFailed, fe.ErrorType)
}

func TestFetchAllFailServesCache(t *testing.T) {
	cache := newTestCache(t)
	ok := &stubClient{feeds: []model.Feed{feed("Cached", "2024-01-01T00:00:00Z")}}
	s := newTestStore(t, cache, Source{ID: "a", Client: ok})

	_, err := s.Fetch(context.Background(), FetchOptions{})
	require.NoError(t, err)

	// Now every source fails; the cached response comes back annotated.
	ok.err = syscall.ECONNREFUSED
	resp, err := s.Fetch(context.Background(), FetchOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Cached", resp.Feeds[0].Labels.Title)
	assert.Contains(t, resp.Error, "unable to reach")
}

func TestFetchAllFailServesStaleCache(t *testing.T) {
	cache := newTestCache(t)
	ok := &stubClient{feeds: []model.Feed{feed("Stale", "2024-01-01T00:00:00Z")}}
	s := newTestStore(t, cache, Source{ID: "a", Client: ok})

	_, err := s.Fetch(context.Background(), FetchOptions{})
	require.NoError(t, err)

	// Age the entry past the TTL, then fail the source. Staleness does not
	// block the fallback path.
	cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	ok.err = errors.New("boom")
	resp, err := s.Fetch(context.Background(), FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Stale", resp.Feeds[0].Labels.Title)
	assert.NotEmpty(t, resp.Error)
}

func TestFetchUseCacheShortCircuits(t *testing.T) {
	cache := newTestCache(t)
	src := &stubClient{feeds: []model.Feed{feed("A", "2024-01-01T00:00:00Z")}}
	s := newTestStore(t, cache, Source{ID: "", Client: src})

	_, err := s.Fetch(context.Background(), FetchOptions{UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())

	// Second cached fetch never reaches the source.
	resp, err := s.Fetch(context.Background(), FetchOptions{UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, resp.Count)
}

func TestFetchRefreshBypassesCache(t *testing.T) {
	cache := newTestCache(t)
	src := &stubClient{feeds: []model.Feed{feed("A", "2024-01-01T00:00:00Z")}}
	s := newTestStore(t, cache, Source{ID: "", Client: src})

	_, err := s.Fetch(context.Background(), FetchOptions{UseCache: true})
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), FetchOptions{UseCache: false})
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestFetchLimit(t *testing.T) {
	src := &stubClient{feeds: []model.Feed{
		feed("A", "2024-01-03T00:00:00Z"),
		feed("B", "2024-01-02T00:00:00Z"),
		feed("C", "2024-01-01T00:00:00Z"),
	}}
	s := newTestStore(t, newTestCache(t), Source{ID: "", Client: src})

	resp, err := s.Fetch(context.Background(), FetchOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "A", resp.Feeds[0].Labels.Title)
}

func TestContentCacheTTL(t *testing.T) {
	cache := newTestCache(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }

	require.NoError(t, cache.Put([]model.Feed{feed("A", "2024-01-01T00:00:00Z")}))

	valid, err := cache.IsValid()
	require.NoError(t, err)
	assert.True(t, valid, "fresh immediately after put")

	cache.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, fresh, err := cache.Get()
	require.NoError(t, err)
	assert.True(t, fresh, "fresh at 59 minutes")

	cache.now = func() time.Time { return base.Add(61 * time.Minute) }
	valid, err = cache.IsValid()
	require.NoError(t, err)
	assert.False(t, valid, "stale at 61 minutes")

	// GetAny still serves the stale entry.
	feeds, ok, err := cache.GetAny()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, feeds, 1)
}

type fakeReporter struct {
	size    int64
	cleared bool
}

func (f *fakeReporter) SizeBytes() (int64, error) { return f.size, nil }
func (f *fakeReporter) Clear() error              { f.cleared = true; return nil }

func TestContentCacheSizeAndClear(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	aux := &fakeReporter{size: 100}
	cache := NewContentCache(db, DefaultCacheTTL, aux)
	require.NoError(t, cache.Put([]model.Feed{feed("A", "2024-01-01T00:00:00Z")}))

	size, err := cache.SizeBytes()
	require.NoError(t, err)
	assert.Greater(t, size, int64(100), "snapshot plus collaborator sizes")

	require.NoError(t, cache.Clear())
	assert.True(t, aux.cleared)
	_, ok, err := cache.GetAny()
	require.NoError(t, err)
	assert.False(t, ok)
}
