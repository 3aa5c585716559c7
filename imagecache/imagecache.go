// Package imagecache caches article images and favicons on disk with an
// in-memory loadable layer in front, so repeated renders of the same feed
// list fetch each image at most once.
package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	gocache_store "github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/gocolly/colly"

	"github.com/leopold7/zenfeed-go/model"
)

const imageExt = ".img"

// ErrImageUnavailable reports a fetch that produced no body.
var ErrImageUnavailable = errors.New("image unavailable")

// Cache serves image bytes by URL, backed by disk with a memory layer.
type Cache struct {
	dir     string
	manager *cache.LoadableCache[[]byte]
	logger  *slog.Logger
}

// New creates an image cache rooted at dir, creating it if needed.
func New(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)

	c := &Cache{dir: dir, logger: logger}

	loadFunction := func(ctx context.Context, key any) ([]byte, []gocache_store.Option, error) {
		url, ok := key.(string)
		if !ok {
			return nil, nil, errors.New("invalid key type")
		}
		data, err := c.load(url)
		if err != nil {
			return nil, nil, err
		}
		return data, []gocache_store.Option{gocache_store.WithCost(int64(len(data)))}, nil
	}

	c.manager = cache.NewLoadable[[]byte](
		loadFunction,
		cache.New[[]byte](ristrettoStore),
	)
	return c, nil
}

// Get returns the image bytes for url, fetching and persisting on first use.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, error) {
	if err := model.ValidateServerURL(url); err != nil {
		return nil, err
	}
	return c.manager.Get(ctx, url)
}

// load reads the image from disk, fetching it first when missing.
func (c *Cache) load(url string) ([]byte, error) {
	path := c.pathFor(url)
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		return data, nil
	}

	data, err := c.fetch(url)
	if err != nil {
		return nil, err
	}
	if err := c.persist(path, data); err != nil {
		c.logger.Warn("image persist failed", "url", url, "error", err)
	}
	return data, nil
}

func (c *Cache) fetch(url string) ([]byte, error) {
	collector := colly.NewCollector()

	var body []byte
	var fetchErr error
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", url, err)
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("fetch image %s: %w", url, fetchErr)
	}
	if len(body) == 0 {
		return nil, ErrImageUnavailable
	}
	return body, nil
}

// persist writes the image through a staging file so readers never see a
// partial image.
func (c *Cache) persist(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (c *Cache) pathFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+imageExt)
}

// SizeBytes reports the on-disk footprint of the cache.
func (c *Cache) SizeBytes() (int64, error) {
	var total int64
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != imageExt {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return total, err
}

// Clear wipes the cache directory and the memory layer.
func (c *Cache) Clear() error {
	if err := c.manager.Clear(context.Background()); err != nil {
		return err
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
