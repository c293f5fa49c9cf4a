package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

func unixTime(sec int64) time.Time { return time.Unix(sec, 0) }

// SQLiteStore is the durable document-store tier. One row per key; writes
// upsert, so the last writer wins.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so concurrent request handlers can read while one writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key         TEXT PRIMARY KEY,
		value       BLOB NOT NULL,
		written_at  INTEGER NOT NULL,
		ttl_seconds INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(key string) (*Entry, error) {
	var entry Entry
	var writtenAt int64

	err := s.db.QueryRow(
		`SELECT key, value, written_at, ttl_seconds FROM cache_entries WHERE key = ?`, key,
	).Scan(&entry.Key, (*[]byte)(&entry.Value), &writtenAt, &entry.TTLSeconds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry.WrittenAt = unixTime(writtenAt)
	return &entry, nil
}

func (s *SQLiteStore) Set(entry Entry) error {
	_, err := s.db.Exec(`INSERT INTO cache_entries (key, value, written_at, ttl_seconds)
		VALUES (?,?,?,?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			written_at = excluded.written_at,
			ttl_seconds = excluded.ttl_seconds`,
		entry.Key, []byte(entry.Value), entry.WrittenAt.Unix(), entry.TTLSeconds,
	)
	return err
}

func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
