package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/leopold7/zenfeed-go/model"
)

// Snapshot persists the merged feed list as one serialized blob plus its
// store time. It is overwritten whole on every successful aggregation; there
// is no incremental merge at this layer.
type Snapshot struct {
	db *DB
}

// NewSnapshot creates a snapshot store backed by db.
func NewSnapshot(db *DB) *Snapshot {
	return &Snapshot{db: db}
}

// Put replaces the snapshot with feeds stored at storedAt.
func (s *Snapshot) Put(feeds []model.Feed, storedAt time.Time) error {
	blob, err := json.Marshal(feeds)
	if err != nil {
		return err
	}
	_, err = s.db.conn.Exec(`
		INSERT INTO snapshot (id, feeds, stored_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET feeds = excluded.feeds, stored_at = excluded.stored_at`,
		blob, storedAt.UnixMilli())
	return err
}

// Get returns the stored feeds and their store time. ok is false when no
// snapshot exists.
func (s *Snapshot) Get() (feeds []model.Feed, storedAt time.Time, ok bool, err error) {
	var blob []byte
	var millis int64
	err = s.db.conn.QueryRow("SELECT feeds, stored_at FROM snapshot WHERE id = 1").Scan(&blob, &millis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	if err := json.Unmarshal(blob, &feeds); err != nil {
		return nil, time.Time{}, false, err
	}
	return feeds, time.UnixMilli(millis), true, nil
}

// SizeBytes reports the size of the stored blob, zero when absent.
func (s *Snapshot) SizeBytes() (int64, error) {
	var n int64
	err := s.db.conn.QueryRow("SELECT COALESCE(LENGTH(feeds), 0) FROM snapshot WHERE id = 1").Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// Delete removes the snapshot.
func (s *Snapshot) Delete() error {
	_, err := s.db.conn.Exec("DELETE FROM snapshot")
	return err
}
