package storage

import (
	"encoding/json"
	"strings"
)

// Search history keeps the last few queries, most recent first.
const searchHistoryLimit = 10

// SearchHistory persists recent search queries.
type SearchHistory struct {
	db *DB
}

// NewSearchHistory creates a search-history store backed by db.
func NewSearchHistory(db *DB) *SearchHistory {
	return &SearchHistory{db: db}
}

// Add records a query at the front of the history. Duplicates move to the
// front; blank queries are ignored; the history is capped.
func (s *SearchHistory) Add(query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	tx, err := s.db.conn.Begin()
	if err != nil {
		return err
	}
	// Re-inserting bumps the rowid, which is the recency order.
	if _, err := tx.Exec("DELETE FROM search_history WHERE query = ?", query); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO search_history (query) VALUES (?)", query); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`
		DELETE FROM search_history WHERE rowid NOT IN
		(SELECT rowid FROM search_history ORDER BY rowid DESC LIMIT ?)`, searchHistoryLimit); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// All returns the history, most recent first.
func (s *SearchHistory) All() ([]string, error) {
	rows, err := s.db.conn.Query("SELECT query FROM search_history ORDER BY rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// Clear removes the whole history.
func (s *SearchHistory) Clear() error {
	_, err := s.db.conn.Exec("DELETE FROM search_history")
	return err
}

// SizeBytes reports the serialized size of the history.
func (s *SearchHistory) SizeBytes() (int64, error) {
	queries, err := s.All()
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(queries)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
