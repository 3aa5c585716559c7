package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leopold7/zenfeed-go/model"
)

// Favorites persists favorited feed entries keyed by stable feed identity.
// Listing always returns entries sorted descending by favorite time.
type Favorites struct {
	db *DB
}

// NewFavorites creates a favorites store backed by db.
func NewFavorites(db *DB) *Favorites {
	return &Favorites{db: db}
}

// All returns every favorite, most recently favorited first. Entries sharing
// a favorite time are ordered by feed ID for determinism.
func (f *Favorites) All() ([]model.FavoriteEntry, error) {
	rows, err := f.db.conn.Query(
		"SELECT feed_id, favorited_at, feed FROM favorites ORDER BY favorited_at DESC, feed_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.FavoriteEntry
	for rows.Next() {
		var entry model.FavoriteEntry
		var blob []byte
		if err := rows.Scan(&entry.FeedID, &entry.FavoritedAt, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(blob, &entry.Feed); err != nil {
			return nil, fmt.Errorf("decode favorite %s: %w", entry.FeedID, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// IsFavorited reports whether the entry is currently favorited.
func (f *Favorites) IsFavorited(feedID string) (bool, error) {
	var one int
	err := f.db.conn.QueryRow("SELECT 1 FROM favorites WHERE feed_id = ?", feedID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Upsert inserts or replaces the favorite for the feed's stable identity.
// Re-upserting with the original favoritedAt updates the stored snapshot in
// place without altering favorite order.
func (f *Favorites) Upsert(feed model.Feed, favoritedAt int64) ([]model.FavoriteEntry, error) {
	blob, err := json.Marshal(feed)
	if err != nil {
		return nil, err
	}
	_, err = f.db.conn.Exec(`
		INSERT INTO favorites (feed_id, favorited_at, feed) VALUES (?, ?, ?)
		ON CONFLICT(feed_id) DO UPDATE SET favorited_at = excluded.favorited_at, feed = excluded.feed`,
		feed.StableID(), favoritedAt, blob)
	if err != nil {
		return nil, err
	}
	return f.All()
}

// Remove deletes the favorite for feedID, if present.
func (f *Favorites) Remove(feedID string) ([]model.FavoriteEntry, error) {
	if _, err := f.db.conn.Exec("DELETE FROM favorites WHERE feed_id = ?", feedID); err != nil {
		return nil, err
	}
	return f.All()
}

// Clear removes all favorites.
func (f *Favorites) Clear() error {
	_, err := f.db.conn.Exec("DELETE FROM favorites")
	return err
}

// UpdateLocalPodcastPath rewrites the stored feed snapshot for feedID with a
// new local podcast path, keeping favorite order untouched. Unknown IDs are a
// no-op.
func (f *Favorites) UpdateLocalPodcastPath(feedID, localPath string) ([]model.FavoriteEntry, error) {
	tx, err := f.db.conn.Begin()
	if err != nil {
		return nil, err
	}
	var blob []byte
	err = tx.QueryRow("SELECT feed FROM favorites WHERE feed_id = ?", feedID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		tx.Rollback()
		return f.All()
	}
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	var feed model.Feed
	if err := json.Unmarshal(blob, &feed); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("decode favorite %s: %w", feedID, err)
	}
	feed.Labels.LocalPodcastPath = localPath
	updated, err := json.Marshal(feed)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := tx.Exec("UPDATE favorites SET feed = ? WHERE feed_id = ?", updated, feedID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return f.All()
}

// ClearAllLocalPodcastPaths strips the local podcast path from every stored
// snapshot, used when the offline audio cache is wiped.
func (f *Favorites) ClearAllLocalPodcastPaths() ([]model.FavoriteEntry, error) {
	entries, err := f.All()
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.Feed.Labels.LocalPodcastPath == "" {
			continue
		}
		if _, err := f.UpdateLocalPodcastPath(entry.FeedID, ""); err != nil {
			return nil, err
		}
	}
	return f.All()
}
