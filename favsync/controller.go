// Package favsync coordinates favorites with the offline audio cache:
// favoriting can trigger a background download, unfavoriting cancels and
// cleans up, and reconciliation repairs the mapping between stored favorites
// and files on disk.
package favsync

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/leopold7/zenfeed-go/model"
	"github.com/leopold7/zenfeed-go/offline"
	"github.com/leopold7/zenfeed-go/storage"
)

// Controller owns the favorite list and its offline audio side effects.
type Controller struct {
	favorites *storage.Favorites
	settings  *storage.Settings
	audio     *offline.AudioStore
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	jobs map[string]*downloadJob
	wg   sync.WaitGroup
}

type downloadJob struct {
	cancel context.CancelFunc
}

// NewController wires the favorites store to the audio cache.
func NewController(favorites *storage.Favorites, settings *storage.Settings, audio *offline.AudioStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		favorites: favorites,
		settings:  settings,
		audio:     audio,
		logger:    logger,
		now:       time.Now,
		jobs:      make(map[string]*downloadJob),
	}
}

// Favorites returns the current list, most recent first.
func (c *Controller) Favorites() ([]model.FavoriteEntry, error) {
	return c.favorites.All()
}

// ToggleFavorite flips the favorite state of feed and returns the updated
// list. Favoriting a podcast entry starts a background download when
// auto-download is on; unfavoriting cancels any in-flight download and
// removes the cached audio.
func (c *Controller) ToggleFavorite(feed model.Feed) ([]model.FavoriteEntry, error) {
	feedID := feed.StableID()
	favorited, err := c.favorites.IsFavorited(feedID)
	if err != nil {
		return nil, err
	}
	if favorited {
		return c.unfavorite(feedID, feed)
	}
	return c.favorite(feedID, feed)
}

func (c *Controller) favorite(feedID string, feed model.Feed) ([]model.FavoriteEntry, error) {
	entries, err := c.favorites.Upsert(feed, c.now().UnixMilli())
	if err != nil {
		return nil, err
	}
	c.maybeAutoDownload(feedID, feed)
	return entries, nil
}

func (c *Controller) unfavorite(feedID string, feed model.Feed) ([]model.FavoriteEntry, error) {
	c.cancelJob(feedID)
	if feed.Labels.PodcastURL != "" {
		key := offline.KeyFor(feed.ServerID, feed.Labels.PodcastURL)
		if _, err := c.audio.Delete(key); err != nil {
			c.logger.Warn("failed to delete cached audio", "feed_id", feedID, "error", err)
		}
	}
	c.removeRecordedAudio(feedID)
	return c.favorites.Remove(feedID)
}

// removeRecordedAudio deletes the file at the stored entry's recorded local
// path. The recorded path can diverge from the key-derived path, so the key
// deletion alone may leave the file behind. Best effort, logged.
func (c *Controller) removeRecordedAudio(feedID string) {
	entries, err := c.favorites.All()
	if err != nil {
		c.logger.Warn("failed to load favorite for cleanup", "feed_id", feedID, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.FeedID != feedID {
			continue
		}
		if path := entry.Feed.Labels.LocalPodcastPath; path != "" {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				c.logger.Warn("failed to delete recorded audio file",
					"feed_id", feedID, "path", path, "error", err)
			}
		}
		return
	}
}

// maybeAutoDownload starts a cancellable background download for the entry's
// audio. Download errors are absorbed: the favorite stays, only the local
// path is missing.
func (c *Controller) maybeAutoDownload(feedID string, feed model.Feed) {
	if feed.Labels.PodcastURL == "" {
		return
	}
	enabled, err := c.settings.AutoDownloadToLocal()
	if err != nil || !enabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &downloadJob{cancel: cancel}
	c.mu.Lock()
	if _, ok := c.jobs[feedID]; ok {
		// A download for this entry is already in flight.
		c.mu.Unlock()
		cancel()
		return
	}
	c.jobs[feedID] = job
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.clearJob(feedID, job)

		path, err := c.audio.DownloadIfNeeded(ctx, feed.ServerID, feed.Labels.PodcastURL)
		if err != nil {
			c.logger.Warn("auto-download failed", "feed_id", feedID, "error", err)
			return
		}

		// The user may have unfavorited while the download ran.
		stillFavorited, err := c.favorites.IsFavorited(feedID)
		if err != nil {
			c.logger.Warn("favorite re-check failed", "feed_id", feedID, "error", err)
			return
		}
		if !stillFavorited {
			key := offline.KeyFor(feed.ServerID, feed.Labels.PodcastURL)
			if _, err := c.audio.Delete(key); err != nil {
				c.logger.Warn("failed to delete cached audio", "feed_id", feedID, "error", err)
			}
			return
		}
		if _, err := c.favorites.UpdateLocalPodcastPath(feedID, path); err != nil {
			c.logger.Warn("failed to record local audio path", "feed_id", feedID, "error", err)
		}
	}()
}

func (c *Controller) cancelJob(feedID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if job, ok := c.jobs[feedID]; ok {
		job.cancel()
		delete(c.jobs, feedID)
	}
}

// clearJob removes the job entry only if it still belongs to this download.
func (c *Controller) clearJob(feedID string, job *downloadJob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.jobs[feedID] == job {
		delete(c.jobs, feedID)
	}
}

// EnsureOfflineCacheForFavorites reconciles favorites against the audio
// cache: files already on disk get their paths recorded, stale paths to
// missing files are cleared, and missing audio is downloaded when
// auto-download is on. Individual failures are logged, not fatal.
func (c *Controller) EnsureOfflineCacheForFavorites(ctx context.Context) error {
	entries, err := c.favorites.All()
	if err != nil {
		return err
	}
	autoDownload, err := c.settings.AutoDownloadToLocal()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		url := entry.Feed.Labels.PodcastURL
		if url == "" {
			continue
		}
		key := offline.KeyFor(entry.Feed.ServerID, url)

		switch {
		case c.audio.Has(key):
			path := c.audio.LocalPath(key)
			if entry.Feed.Labels.LocalPodcastPath != path {
				if _, err := c.favorites.UpdateLocalPodcastPath(entry.FeedID, path); err != nil {
					c.logger.Warn("reconcile: failed to record path", "feed_id", entry.FeedID, "error", err)
				}
			}
		case entry.Feed.Labels.LocalPodcastPath != "":
			if _, err := c.favorites.UpdateLocalPodcastPath(entry.FeedID, ""); err != nil {
				c.logger.Warn("reconcile: failed to clear stale path", "feed_id", entry.FeedID, "error", err)
			}
			fallthrough
		default:
			if !autoDownload {
				continue
			}
			path, err := c.audio.DownloadIfNeeded(ctx, entry.Feed.ServerID, url)
			if err != nil {
				c.logger.Warn("reconcile: download failed", "feed_id", entry.FeedID, "error", err)
				continue
			}
			if _, err := c.favorites.UpdateLocalPodcastPath(entry.FeedID, path); err != nil {
				c.logger.Warn("reconcile: failed to record path", "feed_id", entry.FeedID, "error", err)
			}
		}
	}
	return nil
}

// ClearAll cancels every in-flight download, then wipes favorites and the
// audio cache together.
func (c *Controller) ClearAll() error {
	c.mu.Lock()
	for id, job := range c.jobs {
		job.cancel()
		delete(c.jobs, id)
	}
	c.mu.Unlock()
	c.wg.Wait()

	if err := c.favorites.Clear(); err != nil {
		return err
	}
	return c.audio.Clear()
}

// Wait blocks until all background downloads settle.
func (c *Controller) Wait() {
	c.wg.Wait()
}
