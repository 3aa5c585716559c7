package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
)

// ReadState tracks which feed entries have been read, keyed by stable feed
// identity. Mutations persist immediately and publish a single coalescing
// change notification rather than one event per mutation.
type ReadState struct {
	db      *DB
	changed chan struct{}
}

// NewReadState creates a read-state store backed by db.
func NewReadState(db *DB) *ReadState {
	return &ReadState{
		db:      db,
		changed: make(chan struct{}, 1),
	}
}

// Changed returns a channel that receives at most one pending notification no
// matter how many mutations happened since the last receive. Downstream views
// drain it and recompute derived read flags in one pass.
func (r *ReadState) Changed() <-chan struct{} {
	return r.changed
}

func (r *ReadState) notify() {
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

// IsRead reports whether the entry has been marked read.
func (r *ReadState) IsRead(feedID string) (bool, error) {
	var one int
	err := r.db.conn.QueryRow("SELECT 1 FROM read_state WHERE feed_id = ?", feedID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkRead marks the entry as read. Marking an already-read entry is a no-op
// and publishes no notification.
func (r *ReadState) MarkRead(feedID string) error {
	res, err := r.db.conn.Exec("INSERT INTO read_state (feed_id) VALUES (?) ON CONFLICT(feed_id) DO NOTHING", feedID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.notify()
	}
	return nil
}

// MarkUnread removes the read mark from the entry.
func (r *ReadState) MarkUnread(feedID string) error {
	res, err := r.db.conn.Exec("DELETE FROM read_state WHERE feed_id = ?", feedID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.notify()
	}
	return nil
}

// All returns the set of read feed IDs.
func (r *ReadState) All() (map[string]struct{}, error) {
	rows, err := r.db.conn.Query("SELECT feed_id FROM read_state")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// SizeBytes reports the serialized size of the read-state set.
func (r *ReadState) SizeBytes() (int64, error) {
	ids, err := r.All()
	if err != nil {
		return 0, err
	}
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
