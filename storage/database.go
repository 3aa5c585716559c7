// Package storage provides SQLite persistence for the feed client: read
// state, favorites, search history, settings and the cached feed snapshot.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection shared by the stores.
type DB struct {
	conn *sql.DB
}

// Open opens or creates an SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Enable WAL mode for better concurrency.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		feeds BLOB NOT NULL,
		stored_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS read_state (
		feed_id TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS search_history (
		query TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS favorites (
		feed_id TEXT PRIMARY KEY,
		favorited_at INTEGER NOT NULL,
		feed BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// ClearCachedData removes the feed snapshot, read state and search history in
// one transaction, so a caller never observes a partially cleared cache.
func (db *DB) ClearCachedData() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range []string{
		"DELETE FROM snapshot",
		"DELETE FROM read_state",
		"DELETE FROM search_history",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
