package store

import (
	"time"

	"github.com/leopold7/zenfeed-go/model"
	"github.com/leopold7/zenfeed-go/storage"
)

// DefaultCacheTTL is how long a cached response stays fresh.
const DefaultCacheTTL = 1 * time.Hour

// SizeReporter is a cache collaborator that can report and clear its own
// footprint, counted into the total cache size.
type SizeReporter interface {
	SizeBytes() (int64, error)
	Clear() error
}

// ContentCache holds the last merged feed response with a freshness window.
// Fresh reads short-circuit the network; stale reads back the all-sources-
// failed fallback. Clearing is atomic over the persisted cache state.
type ContentCache struct {
	snapshot *storage.Snapshot
	db       *storage.DB
	ttl      time.Duration
	aux      []SizeReporter
	now      func() time.Time
}

// NewContentCache creates a cache over the snapshot store. aux collaborators
// (search history, image cache) are counted in SizeBytes and wiped by Clear.
func NewContentCache(db *storage.DB, ttl time.Duration, aux ...SizeReporter) *ContentCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ContentCache{
		snapshot: storage.NewSnapshot(db),
		db:       db,
		ttl:      ttl,
		aux:      aux,
		now:      time.Now,
	}
}

// IsValid reports whether a fresh cached response exists.
func (c *ContentCache) IsValid() (bool, error) {
	_, ok, err := c.Get()
	return ok, err
}

// Get returns the cached feeds only while fresh. ok is false on a miss or a
// stale entry.
func (c *ContentCache) Get() (feeds []model.Feed, ok bool, err error) {
	feeds, storedAt, present, err := c.snapshot.Get()
	if err != nil || !present {
		return nil, false, err
	}
	if c.now().Sub(storedAt) >= c.ttl {
		return nil, false, nil
	}
	return feeds, true, nil
}

// GetAny returns the cached feeds regardless of age, for fallback serving.
func (c *ContentCache) GetAny() (feeds []model.Feed, ok bool, err error) {
	feeds, _, ok, err = c.snapshot.Get()
	return feeds, ok, err
}

// Put replaces the cached response and restarts its freshness window.
func (c *ContentCache) Put(feeds []model.Feed) error {
	return c.snapshot.Put(feeds, c.now())
}

// SizeBytes reports the total cache footprint: the stored response plus every
// collaborator.
func (c *ContentCache) SizeBytes() (int64, error) {
	total, err := c.snapshot.SizeBytes()
	if err != nil {
		return 0, err
	}
	for _, reporter := range c.aux {
		n, err := reporter.SizeBytes()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Clear wipes the cached response, read state and search history in one
// transaction, then the collaborators. Favorites and offline audio survive.
func (c *ContentCache) Clear() error {
	if err := c.db.ClearCachedData(); err != nil {
		return err
	}
	for _, reporter := range c.aux {
		if err := reporter.Clear(); err != nil {
			return err
		}
	}
	return nil
}
