// Package offline caches podcast audio on disk for playback without a
// network. Files are content-addressed by entry identity and promoted
// atomically, so a file that exists is always complete.
package offline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/leopold7/zenfeed-go/client"
	"github.com/leopold7/zenfeed-go/model"
)

const (
	audioExt = ".audio"
	tmpExt   = ".tmp"
)

// AudioStore downloads and serves offline audio files. At most one download
// runs per key; concurrent requests for the same key wait for the winner.
type AudioStore struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// NewAudioStore creates a store rooted at dir, creating it if needed.
func NewAudioStore(dir string, httpClient *http.Client, logger *slog.Logger) (*AudioStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if httpClient == nil {
		// Audio transfers are big; the rate limit protects the server, the
		// long timeout protects the transfer.
		httpClient = client.NewRateLimitedHTTPClient(1.0, 2, 10*time.Minute)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AudioStore{
		dir:        dir,
		httpClient: httpClient,
		logger:     logger,
		inflight:   make(map[string]chan struct{}),
	}, nil
}

// KeyFor derives the stable cache key for one entry's audio. The same entry
// and URL always map to the same file.
func KeyFor(serverID, podcastURL string) string {
	sum := sha256.Sum256([]byte(serverID + "|" + podcastURL))
	return hex.EncodeToString(sum[:])
}

// LocalPath returns where the audio for key lives once downloaded.
func (s *AudioStore) LocalPath(key string) string {
	return filepath.Join(s.dir, key+audioExt)
}

// Has reports whether a complete download exists for key. Zero-length files
// never count.
func (s *AudioStore) Has(key string) bool {
	info, err := os.Stat(s.LocalPath(key))
	return err == nil && info.Size() > 0
}

// DownloadIfNeeded ensures the audio for the entry is on disk and returns its
// local path. A download already in flight for the same key is joined rather
// than duplicated.
func (s *AudioStore) DownloadIfNeeded(ctx context.Context, serverID, podcastURL string) (string, error) {
	if err := model.ValidatePodcastURL(podcastURL); err != nil {
		return "", err
	}
	key := KeyFor(serverID, podcastURL)
	path := s.LocalPath(key)

	for {
		if s.Has(key) {
			return path, nil
		}

		s.mu.Lock()
		done, running := s.inflight[key]
		if !running {
			done = make(chan struct{})
			s.inflight[key] = done
		}
		s.mu.Unlock()

		if running {
			select {
			case <-done:
				// Re-check: the winner may have failed.
				continue
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		err := s.download(ctx, key, podcastURL)
		s.mu.Lock()
		delete(s.inflight, key)
		close(done)
		s.mu.Unlock()
		if err != nil {
			return "", err
		}
		return path, nil
	}
}

// download streams the URL into a staging file and promotes it only when the
// transfer completed with content.
func (s *AudioStore) download(ctx context.Context, key, podcastURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, podcastURL, nil)
	if err != nil {
		return model.CreateDownloadError(model.ErrorTypeDownloadFailed, "invalid download request", err, podcastURL)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return model.CreateDownloadError(model.ErrorTypeDownloadFailed, "audio download failed", err, podcastURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.CreateDownloadError(model.ErrorTypeDownloadFailed,
			fmt.Sprintf("audio download failed: unexpected status %s", resp.Status), nil, podcastURL).
			WithHTTPStatus(resp.StatusCode)
	}

	tmpPath := filepath.Join(s.dir, key+tmpExt)
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return model.CreateDownloadError(model.ErrorTypeDownloadFailed, "cannot create staging file", err, podcastURL)
	}

	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if copyErr == nil {
			copyErr = closeErr
		}
		return model.CreateDownloadError(model.ErrorTypeDownloadFailed, "audio download interrupted", copyErr, podcastURL)
	}
	if written == 0 {
		os.Remove(tmpPath)
		return model.CreateDownloadError(model.ErrorTypeIntegrity, "audio download produced an empty file", nil, podcastURL)
	}

	if err := promote(tmpPath, s.LocalPath(key)); err != nil {
		os.Remove(tmpPath)
		return model.CreateDownloadError(model.ErrorTypeDownloadFailed, "cannot promote downloaded file", err, podcastURL)
	}

	s.logger.Debug("audio cached", "key", key, "bytes", written)
	return nil
}

// promote moves the staged file into place, falling back to copy-then-delete
// when rename crosses filesystems.
func promote(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// Delete removes the cached audio for key. Idempotent: it reports true when
// the file is gone, whether it was just removed or never existed.
func (s *AudioStore) Delete(key string) (bool, error) {
	err := os.Remove(s.LocalPath(key))
	if err == nil || os.IsNotExist(err) {
		return true, nil
	}
	return false, err
}

// Clear wipes the whole audio cache directory.
func (s *AudioStore) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	return os.MkdirAll(s.dir, 0o755)
}

// SizeBytes reports the total size of completed downloads. Staging files are
// not counted.
func (s *AudioStore) SizeBytes() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != audioExt {
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
